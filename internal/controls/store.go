package controls

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// Store persists control models.
type Store interface {
	List(ctx context.Context) (map[string]model.ControlModel, error)
	Save(ctx context.Context, id string, m model.ControlModel) error
	Delete(ctx context.Context, id string) error
}

// SQLiteStore implements Store over the controls table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed control store.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// List returns every stored control keyed by id.
func (s *SQLiteStore) List(ctx context.Context) (map[string]model.ControlModel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, model FROM controls ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying controls: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.ControlModel)
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scanning control: %w", err)
		}
		var m model.ControlModel
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decoding control %s: %w", id, err)
		}
		out[id] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating controls: %w", err)
	}
	return out, nil
}

// Save creates or replaces a control.
func (s *SQLiteStore) Save(ctx context.Context, id string, m model.ControlModel) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding control %s: %w", id, err)
	}
	const query = `INSERT INTO controls (id, type, model, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET type = excluded.type, model = excluded.model, updated_at = excluded.updated_at`
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, query, id, m.Type, string(raw), now); err != nil {
		return fmt.Errorf("saving control %s: %w", id, err)
	}
	return nil
}

// Delete removes a control. Deleting an absent id is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM controls WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting control %s: %w", id, err)
	}
	return nil
}
