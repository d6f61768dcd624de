// Package database provides SQLite connectivity for Gray Logic Controls.
//
// It owns the single *sql.DB used by the control store and the page
// repository, applies WAL mode and a busy timeout, and runs the embedded
// schema migrations on startup.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql (with an
// optional matching .down.sql) and applied in version order, each in its own
// transaction.
package database
