package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStorage keeps records in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]Record
	opts    options
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	return &MemoryStorage{
		records: make(map[string]Record),
		opts:    buildOptions(opts),
	}
}

// Get returns a defensive copy of the record.
func (s *MemoryStorage) Get(ctx context.Context, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.Clone(), nil
}

func (s *MemoryStorage) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	s.mu.RUnlock()

	sortRecords(out)
	return out, nil
}

func (s *MemoryStorage) Create(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := validate(rec); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return Record{}, fmt.Errorf("%w: %s", ErrConflict, rec.ID)
	}
	now := s.opts.now().UTC()
	rec = rec.Clone()
	rec.CreatedAt, rec.UpdatedAt = now, now
	s.records[rec.ID] = rec
	return rec.Clone(), nil
}

func (s *MemoryStorage) Update(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := validate(rec); err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, exists := s.records[rec.ID]
	if !exists {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}
	rec = rec.Clone()
	rec.CreatedAt = prev.CreatedAt
	rec.UpdatedAt = s.opts.now().UTC()
	s.records[rec.ID] = rec
	return rec.Clone(), nil
}

func (s *MemoryStorage) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.records, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStorage) Close() error {
	return nil
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}
