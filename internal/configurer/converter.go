package configurer

import (
	"reflect"
	"sync"
)

// ConverterFunc converts a raw value into an instance of the type it is registered for.
type ConverterFunc func(value any) (any, error)

// Converters is a registry of converters keyed by target type. It is safe for concurrent use.
type Converters struct {
	mu    sync.RWMutex
	funcs map[reflect.Type]ConverterFunc
}

// NewConverters returns an empty converter registry.
func NewConverters() *Converters {
	return &Converters{
		funcs: make(map[reflect.Type]ConverterFunc),
	}
}

// Register installs fn for typ, replacing any previous converter.
func (c *Converters) Register(typ reflect.Type, fn ConverterFunc) {
	c.mu.Lock()
	c.funcs[typ] = fn
	c.mu.Unlock()
}

// Lookup returns the converter registered for typ.
func (c *Converters) Lookup(typ reflect.Type) (ConverterFunc, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	fn, ok := c.funcs[typ]
	return fn, ok
}

// RegisterConverter installs a typed converter for T.
func RegisterConverter[T any](c *Converters, fn func(value any) (T, error)) {
	c.Register(reflect.TypeFor[T](), func(value any) (any, error) {
		return fn(value)
	})
}
