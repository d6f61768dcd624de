// Gray Logic Controls - button grid and trigger engine
//
// This is the main entry point for the controls service. It hosts the
// control grid, runs button and trigger actions against connections reached
// over MQTT, and serves the command API and WebSocket surface feed.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. The root command runs the service.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "graycontrols",
		Short:         "Gray Logic Controls runs the button grid and trigger engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPathFrom(cmd))
		},
	}
	root.PersistentFlags().String("config", "", "config file (default $GRAYCONTROLS_CONFIG or "+defaultConfigPath+")")

	root.AddCommand(
		newServeCmd(),
		newVersionCmd(),
		newCheckConfigCmd(),
		newTokenCmd(),
	)
	return root
}

// getConfigPath returns the configuration file path.
// Uses GRAYCONTROLS_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GRAYCONTROLS_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// configPathFrom prefers the --config flag over the environment.
func configPathFrom(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		return p
	}
	return getConfigPath()
}
