package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db"), WALMode: true, BusyTimeout: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func useMigrations(t *testing.T, files fstest.MapFS) {
	t.Helper()
	origFS, origDir := MigrationsFS, MigrationsDir
	MigrationsFS, MigrationsDir = files, "."
	t.Cleanup(func() { MigrationsFS, MigrationsDir = origFS, origDir })
}

func TestOpen_HealthCheck(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.HealthCheck(context.Background()))
	assert.NotEmpty(t, db.Path())
}

func TestOpen_InMemory(t *testing.T) {
	db, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck // test cleanup
	assert.NoError(t, db.HealthCheck(context.Background()))
}

func TestMigrate_AppliesInOrderAndIsIdempotent(t *testing.T) {
	useMigrations(t, fstest.MapFS{
		"20260101_000000_first.up.sql":    {Data: []byte("CREATE TABLE first (id TEXT PRIMARY KEY);")},
		"20260101_000000_first.down.sql":  {Data: []byte("DROP TABLE first;")},
		"20260102_000000_second.up.sql":   {Data: []byte("ALTER TABLE first ADD COLUMN name TEXT;")},
		"README.md":                       {Data: []byte("ignored")},
		"20260103_000000_orphan.down.sql": {Data: []byte("DROP TABLE nothing;")},
	})

	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))
	_, err := db.ExecContext(ctx, "INSERT INTO first (id, name) VALUES ('a', 'b')")
	require.NoError(t, err, "schema not applied in order")

	require.NoError(t, db.Migrate(ctx), "second run")
	n, err := db.AppliedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMigrate_FailureStopsRun(t *testing.T) {
	useMigrations(t, fstest.MapFS{
		"20260101_000000_ok.up.sql":     {Data: []byte("CREATE TABLE ok (id TEXT);")},
		"20260102_000000_broken.up.sql": {Data: []byte("THIS IS NOT SQL;")},
	})

	db := openTestDB(t)
	ctx := context.Background()

	require.Error(t, db.Migrate(ctx))
	n, err := db.AppliedCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "earlier migration stays committed")
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		wantVersion string
		wantDesc    string
		wantUp      bool
		wantOK      bool
	}{
		{"20261019_120000_controls.up.sql", "20261019_120000", "controls", true, true},
		{"20261019_120000_controls.down.sql", "20261019_120000", "controls", false, true},
		{"20261019_120000.up.sql", "20261019_120000", "", true, true},
		{"20261019.up.sql", "", "", false, false},
		{"controls.sql", "", "", false, false},
		{"notes.txt", "", "", false, false},
	}
	for _, tt := range tests {
		version, desc, up, ok := parseMigrationFilename(tt.name)
		assert.Equal(t, tt.wantOK, ok, tt.name)
		assert.Equal(t, tt.wantVersion, version, tt.name)
		assert.Equal(t, tt.wantDesc, desc, tt.name)
		assert.Equal(t, tt.wantUp, up, tt.name)
	}
}
