package repository

import (
	"context"
	"sync"
	"time"

	"collablist/store"
)

// MemoryRepository keeps entries in process memory. It backs STORAGE=memory
// for local runs without PostgreSQL; contents are lost on restart.
type MemoryRepository struct {
	mu      sync.Mutex
	entries []store.Entry
	last    time.Time
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

func (r *MemoryRepository) Insert(_ context.Context, e store.Entry) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	createdAt := r.now().UTC()
	if createdAt.Before(r.last) {
		createdAt = r.last
	}
	r.last = createdAt

	e.CreatedAt = createdAt
	e.Fields = copyFields(e.Fields)
	r.entries = append(r.entries, e)
	return createdAt, nil
}

func (r *MemoryRepository) ListByCollection(_ context.Context, path string) (store.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := store.Snapshot{}
	for _, e := range r.entries {
		if e.Collection == path {
			e.Fields = copyFields(e.Fields)
			snap = append(snap, e)
		}
	}
	return snap, nil
}

func copyFields(fields store.Fields) store.Fields {
	out := make(store.Fields, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
