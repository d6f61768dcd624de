package connection

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Record is a connection the engine has seen announce itself.
type Record struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	FirstSeen time.Time `json:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen"`
}

// Repository persists connection records.
type Repository interface {
	List(ctx context.Context) ([]Record, error)
	Upsert(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed connection repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List returns every record ordered by id.
func (r *SQLiteRepository) List(ctx context.Context) ([]Record, error) {
	const query = `SELECT id, label, first_seen, last_seen FROM connections ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying connections: %w", err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var first, last string
		if err := rows.Scan(&rec.ID, &rec.Label, &first, &last); err != nil {
			return nil, fmt.Errorf("scanning connection: %w", err)
		}
		rec.FirstSeen = parseTime(first)
		rec.LastSeen = parseTime(last)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating connections: %w", err)
	}
	return recs, nil
}

// Upsert inserts a record or refreshes its label and last-seen time. The
// first-seen time of an existing record is kept.
func (r *SQLiteRepository) Upsert(ctx context.Context, rec Record) error {
	const query = `INSERT INTO connections (id, label, first_seen, last_seen) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET label = excluded.label, last_seen = excluded.last_seen`
	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.Label, formatTime(rec.FirstSeen), formatTime(rec.LastSeen))
	if err != nil {
		return fmt.Errorf("saving connection %s: %w", rec.ID, err)
	}
	return nil
}

// Delete removes a record. Deleting a missing id is not an error.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM connections WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting connection %s: %w", id, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
