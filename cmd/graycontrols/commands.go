package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-controls/internal/api"
	"github.com/nerrad567/gray-logic-controls/internal/infrastructure/config"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the controls service until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPathFrom(cmd))
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "graycontrols %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

func newCheckConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Load and validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPathFrom(cmd)
			cfg, err := config.Load(path)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			c := cfg.Controls
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d pages of %dx%d, api %s:%d)\n",
				path, c.Pages, c.Rows, c.Columns, cfg.API.Host, cfg.API.Port)
			return nil
		},
	}
}

// newTokenCmd mints a bearer token for a surface or an editor, signed with
// the configured secret.
func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r := api.Role(role)
			if r != api.RoleEditor && r != api.RoleSurface {
				return fmt.Errorf("unknown role %q (want %s or %s)", role, api.RoleEditor, api.RoleSurface)
			}
			cfg, err := config.Load(configPathFrom(cmd))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			tok, err := api.IssueToken(cfg.Security.JWT.Secret, subject, r, ttl)
			if err != nil {
				return fmt.Errorf("issuing token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject, used as the surface id for presses")
	cmd.Flags().StringVar(&role, "role", string(api.RoleSurface), "token role: editor or surface")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default 24h)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
