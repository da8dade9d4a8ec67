package configurer

import (
	"fmt"
	"reflect"
	"sync"
)

type cacheEntry struct {
	once   sync.Once
	schema *Schema
	err    error
}

var (
	schemas sync.Map // reflect.Type -> *cacheEntry

	// buildSchema is swapped in tests to count constructions.
	buildSchema = introspect
)

// SchemaFor returns the process-wide schema for a struct type, introspecting it on first use.
// Construction runs at most once per type; concurrent callers wait for the same result.
func SchemaFor(typ reflect.Type) (*Schema, error) {
	if typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v is not a struct type", ErrInvalidTarget, typ)
	}

	v, _ := schemas.LoadOrStore(typ, &cacheEntry{})
	entry := v.(*cacheEntry)
	entry.once.Do(func() {
		entry.schema, entry.err = buildSchema(typ)
	})
	return entry.schema, entry.err
}

// Register installs an explicitly built schema as the process-wide schema for its type.
func Register(schema *Schema) error {
	entry := &cacheEntry{schema: schema}
	entry.once.Do(func() {})

	if _, loaded := schemas.LoadOrStore(schema.typ, entry); loaded {
		return fmt.Errorf("%w: %s", ErrSchemaExists, schema.typ)
	}
	return nil
}
