package configurer

import (
	"fmt"
	"reflect"
	"sort"

	"go.uber.org/multierr"
)

// Configurer applies a named property to a target object.
//
// Configure returns false without touching target when name is not a known property.
// A known property whose value cannot be converted yields an error wrapping ErrTypeCoercion.
type Configurer interface {
	Configure(target any, name string, value any, ignoreCase bool) (bool, error)
}

// PropertyConfigurer is the schema-driven Configurer shared by every configurable type.
type PropertyConfigurer struct {
	schema  *Schema
	coercer coercer
}

// Option configures a PropertyConfigurer.
type Option func(*PropertyConfigurer)

// WithConverters supplies the converter registry used for types without a built-in rule.
func WithConverters(converters *Converters) Option {
	return func(c *PropertyConfigurer) {
		c.coercer.converters = converters
	}
}

// WithLookup supplies the resolver for "#name" object references.
func WithLookup(lookup Lookup) Option {
	return func(c *PropertyConfigurer) {
		c.coercer.lookup = lookup
	}
}

// New creates a configurer over an existing schema.
func New(schema *Schema, opts ...Option) *PropertyConfigurer {
	c := &PropertyConfigurer{schema: schema}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// For creates a configurer for typ using its process-wide schema.
func For(typ reflect.Type, opts ...Option) (*PropertyConfigurer, error) {
	schema, err := SchemaFor(typ)
	if err != nil {
		return nil, err
	}
	return New(schema, opts...), nil
}

// Schema returns the schema backing the configurer.
func (c *PropertyConfigurer) Schema() *Schema {
	return c.schema
}

func (c *PropertyConfigurer) Configure(target any, name string, value any, ignoreCase bool) (bool, error) {
	if err := c.schema.checkTarget(target); err != nil {
		return false, err
	}

	p, ok := c.schema.lookup(name, ignoreCase)
	if !ok {
		return false, nil
	}

	v, err := c.coercer.coerce(p, value)
	if err != nil {
		return false, &CoercionError{Property: p.Name, Type: p.Type, Value: value, Err: err}
	}
	p.set(target, v)
	return true, nil
}

// Get reads the current value of a readable property.
func (c *PropertyConfigurer) Get(target any, name string, ignoreCase bool) (any, bool) {
	if c.schema.checkTarget(target) != nil {
		return nil, false
	}
	p, ok := c.schema.lookup(name, ignoreCase)
	if !ok || p.get == nil {
		return nil, false
	}
	return p.get(target), true
}

// Snapshot returns the current values of every readable property keyed by property name.
func (c *PropertyConfigurer) Snapshot(target any) map[string]any {
	if c.schema.checkTarget(target) != nil {
		return nil
	}
	out := make(map[string]any, c.schema.Len())
	for _, p := range c.schema.order {
		if p.get != nil {
			out[p.Name] = p.get(target)
		}
	}
	return out
}

// Configure applies a property to target using its introspected schema and no converters.
func Configure(target any, name string, value any, ignoreCase bool) (bool, error) {
	if target == nil {
		return false, fmt.Errorf("%w: nil target", ErrInvalidTarget)
	}
	c, err := For(reflect.TypeOf(target))
	if err != nil {
		return false, err
	}
	return c.Configure(target, name, value, ignoreCase)
}

// PropertySetter applies a named property to whatever it is bound to.
type PropertySetter interface {
	Set(name string, value any, ignoreCase bool) (bool, error)
}

// Binding pairs a configurer with the object it configures.
type Binding struct {
	Configurer Configurer
	Target     any
}

func (b Binding) Set(name string, value any, ignoreCase bool) (bool, error) {
	return b.Configurer.Configure(b.Target, name, value, ignoreCase)
}

// Chain tries each binding in order; the first binding that recognizes a name wins.
type Chain []Binding

func (c Chain) Set(name string, value any, ignoreCase bool) (bool, error) {
	for _, b := range c {
		ok, err := b.Set(name, value, ignoreCase)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Apply sets every entry of props in sorted key order. It returns the names no
// property recognized and every conversion failure combined into one error.
func Apply(setter PropertySetter, props map[string]any, ignoreCase bool) ([]string, error) {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		unmatched []string
		errs      error
	)
	for _, name := range names {
		ok, err := setter.Set(name, props[name], ignoreCase)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if !ok {
			unmatched = append(unmatched, name)
		}
	}
	return unmatched, errs
}
