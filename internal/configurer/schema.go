package configurer

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Property is a single configurable entry of a Schema.
type Property struct {
	Name string
	Type reflect.Type
	Kind Kind

	enumerators []string
	set         func(target any, value reflect.Value)
	get         func(target any) any
}

// Enumerators returns the allowed names of an enum property.
func (p *Property) Enumerators() []string {
	return append([]string(nil), p.enumerators...)
}

// Readable reports whether the property's current value can be read back.
func (p *Property) Readable() bool {
	return p.get != nil
}

// Schema maps property names of one struct type to their setters and declared types.
// It is immutable once built.
type Schema struct {
	typ    reflect.Type
	exact  map[string]*Property
	folded map[string]*Property
	order  []*Property
}

func newSchema(typ reflect.Type, props []*Property) (*Schema, error) {
	s := &Schema{
		typ:    typ,
		exact:  make(map[string]*Property, len(props)),
		folded: make(map[string]*Property, len(props)),
		order:  make([]*Property, 0, len(props)),
	}

	collisions := make(map[string][]string)
	for _, p := range props {
		key := strings.ToLower(p.Name)
		if prev, ok := s.folded[key]; ok {
			if len(collisions[key]) == 0 {
				collisions[key] = append(collisions[key], prev.Name)
			}
			collisions[key] = append(collisions[key], p.Name)
			continue
		}
		s.exact[p.Name] = p
		s.folded[key] = p
		s.order = append(s.order, p)
	}

	if len(collisions) > 0 {
		keys := make([]string, 0, len(collisions))
		for key := range collisions {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		var names []string
		for _, key := range keys {
			names = append(names, collisions[key]...)
		}
		return nil, &AmbiguousSchemaError{Type: typ, Names: names}
	}

	return s, nil
}

// Type returns the struct type the schema configures.
func (s *Schema) Type() reflect.Type {
	return s.typ
}

// Len returns the number of declared properties.
func (s *Schema) Len() int {
	return len(s.order)
}

// Lookup finds a property by exact name, or by its lowercase form when ignoreCase is set.
// The result is a copy; the schema itself never changes.
func (s *Schema) Lookup(name string, ignoreCase bool) (Property, bool) {
	p, ok := s.lookup(name, ignoreCase)
	if !ok {
		return Property{}, false
	}
	return *p, true
}

func (s *Schema) lookup(name string, ignoreCase bool) (*Property, bool) {
	if ignoreCase {
		p, ok := s.folded[strings.ToLower(name)]
		return p, ok
	}
	p, ok := s.exact[name]
	return p, ok
}

// Properties returns copies of the declared properties in declaration order.
func (s *Schema) Properties() []Property {
	out := make([]Property, len(s.order))
	for i, p := range s.order {
		out[i] = *p
	}
	return out
}

// Names returns the declared property names in declaration order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.order))
	for i, p := range s.order {
		names[i] = p.Name
	}
	return names
}

func (s *Schema) checkTarget(target any) error {
	if target == nil {
		return fmt.Errorf("%w: nil target for %s", ErrInvalidTarget, s.typ)
	}
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: expected non-nil *%s, got %T", ErrInvalidTarget, s.typ, target)
	}
	if rv.Type().Elem() != s.typ {
		return fmt.Errorf("%w: expected *%s, got %T", ErrInvalidTarget, s.typ, target)
	}
	return nil
}
