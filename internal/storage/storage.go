package storage

import (
	"context"
	"errors"
	"maps"
	"time"
)

var (
	// ErrNotFound indicates no record exists for the requested id.
	ErrNotFound = errors.New("endpoint record not found")
	// ErrConflict indicates a record with the same id already exists.
	ErrConflict = errors.New("endpoint record already exists")
	// ErrInvalidRecord indicates a record without an id or uri.
	ErrInvalidRecord = errors.New("endpoint record requires an id and a uri")
)

// Record is a stored endpoint definition: the URI and the explicit properties it was bound with.
type Record struct {
	ID         string         `json:"id" yaml:"id"`
	URI        string         `json:"uri" yaml:"uri"`
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
	IgnoreCase bool           `json:"ignoreCase" yaml:"ignore_case"`
	CreatedAt  time.Time      `json:"createdAt" yaml:"created_at"`
	UpdatedAt  time.Time      `json:"updatedAt" yaml:"updated_at"`
}

// Storage persists endpoint definitions.
type Storage interface {
	Get(ctx context.Context, id string) (Record, error)
	// List returns every record ordered by creation time, then id.
	List(ctx context.Context) ([]Record, error)
	// Create stores a new record and stamps both timestamps.
	Create(ctx context.Context, rec Record) (Record, error)
	// Update replaces an existing record, keeping its creation time.
	Update(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Option configures a storage implementation.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func validate(rec Record) error {
	if rec.ID == "" || rec.URI == "" {
		return ErrInvalidRecord
	}
	return nil
}

// Clone returns a deep copy of rec.
func (rec Record) Clone() Record {
	rec.Properties = cloneProperties(rec.Properties)
	return rec
}

func cloneProperties(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		return cloneProperties(t)
	case map[string]string:
		return maps.Clone(t)
	default:
		return v
	}
}
