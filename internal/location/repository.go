package location

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PageRepository defines the interface for page name persistence.
type PageRepository interface {
	ListPages(ctx context.Context) ([]Page, error)
	GetPage(ctx context.Context, number int) (*Page, error)
	SetPageName(ctx context.Context, number int, name string) error
	DeletePage(ctx context.Context, number int) error
}

// SQLitePageRepository implements PageRepository using SQLite.
type SQLitePageRepository struct {
	db *sql.DB
}

// NewSQLitePageRepository creates a new SQLite-backed page repository.
func NewSQLitePageRepository(db *sql.DB) *SQLitePageRepository {
	return &SQLitePageRepository{db: db}
}

// ListPages returns every named page ordered by number.
func (r *SQLitePageRepository) ListPages(ctx context.Context) ([]Page, error) {
	const query = `SELECT number, name, updated_at FROM pages ORDER BY number`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var p Page
		var updatedAt string
		if err := rows.Scan(&p.Number, &p.Name, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		p.UpdatedAt = parseTime(updatedAt)
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pages: %w", err)
	}
	return pages, nil
}

// GetPage returns a single page by number.
func (r *SQLitePageRepository) GetPage(ctx context.Context, number int) (*Page, error) {
	const query = `SELECT number, name, updated_at FROM pages WHERE number = ?`
	var p Page
	var updatedAt string
	err := r.db.QueryRowContext(ctx, query, number).Scan(&p.Number, &p.Name, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPageNotFound
		}
		return nil, fmt.Errorf("scanning page %d: %w", number, err)
	}
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// SetPageName creates or renames a page.
func (r *SQLitePageRepository) SetPageName(ctx context.Context, number int, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	const query = `INSERT INTO pages (number, name, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(number) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := r.db.ExecContext(ctx, query, number, name, now); err != nil {
		return fmt.Errorf("saving page %d: %w", number, err)
	}
	return nil
}

// DeletePage removes a page's stored name.
func (r *SQLitePageRepository) DeletePage(ctx context.Context, number int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM pages WHERE number = ?", number)
	if err != nil {
		return fmt.Errorf("deleting page %d: %w", number, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrPageNotFound
	}
	return nil
}

// parseTime parses an ISO 8601 timestamp from SQLite.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
