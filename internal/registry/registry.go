// Package registry holds named objects that endpoint properties can reference as "#name".
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrInvalidName indicates an empty name or one containing whitespace.
	ErrInvalidName = errors.New("object name must be non-empty and contain no whitespace")
	// ErrNilObject indicates an attempt to bind a nil object.
	ErrNilObject = errors.New("cannot bind a nil object")
)

// Registry maps names to shared objects such as exception handlers or poll strategies.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	objects map[string]any
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{objects: make(map[string]any)}
}

// Bind stores obj under name, replacing any previous binding.
func (r *Registry) Bind(name string, obj any) error {
	if name == "" || strings.ContainsFunc(name, isSpace) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if obj == nil {
		return fmt.Errorf("%w: %q", ErrNilObject, name)
	}

	r.mu.Lock()
	r.objects[name] = obj
	r.mu.Unlock()
	return nil
}

// Unbind removes name. Unknown names are ignored.
func (r *Registry) Unbind(name string) {
	r.mu.Lock()
	delete(r.objects, name)
	r.mu.Unlock()
}

// Lookup returns the object bound to name.
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	obj, ok := r.objects[name]
	return obj, ok
}

// Names returns the bound names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.objects))
	for name := range r.objects {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
