package location

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database with the pages table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// Each pooled connection would otherwise get its own empty :memory: db.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE pages (
			number     INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;

		INSERT INTO pages (number, name, updated_at) VALUES
			(2, 'Lighting', '2026-10-01T08:00:00Z'),
			(1, 'Home', '2026-10-01T08:00:00Z');
	`
	t.Cleanup(func() {
		db.Close()
	})
	_, err = db.Exec(schema)
	require.NoError(t, err)
	return db
}

func TestListPages(t *testing.T) {
	repo := NewSQLitePageRepository(setupTestDB(t))

	pages, err := repo.ListPages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "Home", pages[0].Name)
	assert.False(t, pages[1].UpdatedAt.IsZero(), "UpdatedAt not parsed")
}

func TestGetPage(t *testing.T) {
	repo := NewSQLitePageRepository(setupTestDB(t))

	page, err := repo.GetPage(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Lighting", page.Name)

	_, err = repo.GetPage(context.Background(), 42)
	assert.ErrorIs(t, err, ErrPageNotFound)
}

func TestSetPageName(t *testing.T) {
	repo := NewSQLitePageRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.SetPageName(ctx, 3, "Audio"), "new page")
	require.NoError(t, repo.SetPageName(ctx, 1, "Lobby"), "rename")

	page, err := repo.GetPage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Lobby", page.Name)

	pages, err := repo.ListPages(ctx)
	require.NoError(t, err)
	assert.Len(t, pages, 3)

	assert.ErrorIs(t, repo.SetPageName(ctx, 4, "   "), ErrInvalidName)
}

func TestDeletePage(t *testing.T) {
	repo := NewSQLitePageRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.DeletePage(ctx, 2))
	assert.ErrorIs(t, repo.DeletePage(ctx, 2), ErrPageNotFound)
}
