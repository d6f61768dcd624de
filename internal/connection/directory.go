package connection

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Directory is the persisted set of connections the engine knows about.
// A connection joins when it announces its definitions and leaves only when
// removed explicitly; going offline does not remove it.
//
// Thread Safety: all methods are safe for concurrent use.
type Directory struct {
	repo    Repository
	manager *Manager

	mu       sync.RWMutex
	records  map[string]Record
	onRemove []func(connectionID string)
	logger   Logger
}

// NewDirectory creates an empty directory. manager may be nil; when set, a
// removed connection's host is unregistered.
func NewDirectory(repo Repository, manager *Manager) *Directory {
	return &Directory{
		repo:    repo,
		manager: manager,
		records: make(map[string]Record),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger.
func (d *Directory) SetLogger(logger Logger) {
	d.logger = logger
}

// OnRemove registers fn to run after a connection is removed.
func (d *Directory) OnRemove(fn func(connectionID string)) {
	d.mu.Lock()
	d.onRemove = append(d.onRemove, fn)
	d.mu.Unlock()
}

// Load replaces the in-memory set with the stored records.
func (d *Directory) Load(ctx context.Context) error {
	recs, err := d.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading connections: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = make(map[string]Record, len(recs))
	for _, rec := range recs {
		d.records[rec.ID] = rec
	}
	return nil
}

// Known reports whether id is in the directory.
func (d *Directory) Known(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.records[id]
	return ok
}

// Len returns the number of known connections.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.records)
}

// Records returns every known connection, sorted by id.
func (d *Directory) Records() []Record {
	d.mu.RLock()
	recs := make([]Record, 0, len(d.records))
	for _, rec := range d.records {
		recs = append(recs, rec)
	}
	d.mu.RUnlock()
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
	return recs
}

// Record adds or refreshes a connection. It reports whether the connection
// was new.
func (d *Directory) Record(ctx context.Context, id, label string) (bool, error) {
	now := time.Now().UTC().Truncate(time.Second)

	d.mu.RLock()
	rec, exists := d.records[id]
	d.mu.RUnlock()
	if !exists {
		rec = Record{ID: id, FirstSeen: now}
	}
	rec.Label = label
	rec.LastSeen = now

	if err := d.repo.Upsert(ctx, rec); err != nil {
		return false, err
	}

	d.mu.Lock()
	d.records[id] = rec
	d.mu.Unlock()

	if !exists {
		d.logger.Info("connection recorded", "connection_id", id, "label", label)
	}
	return !exists, nil
}

// Remove deletes a connection, unregisters its host and runs the OnRemove
// callbacks. An unknown id yields ErrUnknownConnection.
func (d *Directory) Remove(ctx context.Context, id string) error {
	if !d.Known(id) {
		return ErrUnknownConnection
	}
	if err := d.repo.Delete(ctx, id); err != nil {
		return err
	}

	d.mu.Lock()
	delete(d.records, id)
	callbacks := append([]func(string){}, d.onRemove...)
	d.mu.Unlock()

	if d.manager != nil {
		d.manager.Unregister(id)
	}
	for _, fn := range callbacks {
		fn(id)
	}
	d.logger.Info("connection removed", "connection_id", id)
	return nil
}
