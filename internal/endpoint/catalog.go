package endpoint

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/eugenenazirov/propconf/internal/configurer"
	"github.com/eugenenazirov/propconf/internal/uri"
)

// Kind describes one endpoint scheme.
type Kind struct {
	Scheme      string
	Description string
	// New creates an endpoint with default settings for a URI path.
	New func(path string) (Endpoint, error)
	// Defaults returns an endpoint holding default settings, used to describe properties.
	Defaults func() Endpoint
}

// PropertyInfo describes a property offered by an endpoint kind.
type PropertyInfo struct {
	Name        string   `json:"name" yaml:"name"`
	Group       string   `json:"group" yaml:"group"`
	Type        string   `json:"type" yaml:"type"`
	Kind        string   `json:"kind" yaml:"kind"`
	Enumerators []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Default     any      `json:"default,omitempty" yaml:"default,omitempty"`
}

// Catalog maps URI schemes to endpoint kinds and binds URIs onto endpoints.
type Catalog struct {
	mu    sync.RWMutex
	kinds map[string]Kind

	options []configurer.Option
	lenient bool
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithConverters sets the converter registry used when coercing property values.
func WithConverters(converters *configurer.Converters) CatalogOption {
	return func(c *Catalog) {
		c.options = append(c.options, configurer.WithConverters(converters))
	}
}

// WithLookup sets the resolver for "#name" references.
func WithLookup(lookup configurer.Lookup) CatalogOption {
	return func(c *Catalog) {
		c.options = append(c.options, configurer.WithLookup(lookup))
	}
}

// WithLenient makes Bind ignore parameters no configuration object declares.
func WithLenient(lenient bool) CatalogOption {
	return func(c *Catalog) {
		c.lenient = lenient
	}
}

// NewCatalog returns a catalog with the drive and docker kinds registered.
func NewCatalog(opts ...CatalogOption) *Catalog {
	c := &Catalog{kinds: make(map[string]Kind)}
	for _, opt := range opts {
		opt(c)
	}

	for _, kind := range builtinKinds() {
		// Built-in schemes are distinct, so registration cannot fail.
		_ = c.Register(kind)
	}
	return c
}

func builtinKinds() []Kind {
	return []Kind{
		{
			Scheme:      DriveScheme,
			Description: "Cloud drive polling endpoint, path <api>/<method>",
			New: func(path string) (Endpoint, error) {
				return NewDriveEndpoint(path)
			},
			Defaults: func() Endpoint { return newDriveDefaults() },
		},
		{
			Scheme:      DockerScheme,
			Description: "Container engine endpoint, path <operation>",
			New: func(path string) (Endpoint, error) {
				return NewDockerEndpoint(path)
			},
			Defaults: func() Endpoint { return newDockerDefaults() },
		},
	}
}

// Register adds a kind. A scheme can be registered once.
func (c *Catalog) Register(kind Kind) error {
	if kind.Scheme == "" || kind.New == nil || kind.Defaults == nil {
		return fmt.Errorf("endpoint kind %q: scheme, New and Defaults are required", kind.Scheme)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.kinds[kind.Scheme]; exists {
		return fmt.Errorf("%w: %s", ErrKindExists, kind.Scheme)
	}
	c.kinds[kind.Scheme] = kind
	return nil
}

// Kinds returns the registered kinds sorted by scheme.
func (c *Catalog) Kinds() []Kind {
	c.mu.RLock()
	kinds := make([]Kind, 0, len(c.kinds))
	for _, kind := range c.kinds {
		kinds = append(kinds, kind)
	}
	c.mu.RUnlock()

	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Scheme < kinds[j].Scheme })
	return kinds
}

func (c *Catalog) kind(scheme string) (Kind, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	kind, ok := c.kinds[scheme]
	if !ok {
		return Kind{}, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
	return kind, nil
}

// Bind parses rawURI, creates the endpoint for its scheme and applies the URI parameters
// merged with props. Entries in props override URI parameters of the same name.
func (c *Catalog) Bind(rawURI string, props map[string]any, ignoreCase bool) (Endpoint, error) {
	u, err := uri.Parse(rawURI)
	if err != nil {
		return nil, err
	}
	kind, err := c.kind(u.Scheme)
	if err != nil {
		return nil, err
	}

	ep, err := kind.New(u.Path)
	if err != nil {
		return nil, err
	}

	params := u.Params()
	for name, value := range props {
		if ignoreCase {
			for existing := range params {
				if strings.EqualFold(existing, name) {
					delete(params, existing)
				}
			}
		}
		params[name] = value
	}

	chain, err := chainFor(ep, c.options...)
	if err != nil {
		return nil, err
	}
	unmatched, err := configurer.Apply(chain, params, ignoreCase)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", u.Scheme, err)
	}
	if len(unmatched) > 0 && !c.lenient {
		return nil, &UnknownParametersError{Scheme: u.Scheme, Names: unmatched}
	}
	return ep, nil
}

// Describe lists the properties of a scheme in declaration order, with their defaults.
func (c *Catalog) Describe(scheme string) ([]PropertyInfo, error) {
	kind, err := c.kind(scheme)
	if err != nil {
		return nil, err
	}

	defaults := kind.Defaults()
	var infos []PropertyInfo
	seen := make(map[string]struct{})
	for _, target := range defaults.Targets() {
		pc, err := configurer.For(reflect.TypeOf(target), c.options...)
		if err != nil {
			return nil, err
		}
		group := reflect.TypeOf(target).Elem().Name()
		values := pc.Snapshot(target)

		for _, p := range pc.Schema().Properties() {
			if _, dup := seen[p.Name]; dup {
				continue
			}
			seen[p.Name] = struct{}{}

			info := PropertyInfo{
				Name:        p.Name,
				Group:       group,
				Type:        p.Type.String(),
				Kind:        p.Kind.String(),
				Enumerators: p.Enumerators(),
			}
			if v, ok := values[p.Name]; ok && !isZero(v) {
				info.Default = v
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}

// Snapshot returns the current value of every property of ep. When two configuration
// objects declare the same name, the one tried first wins.
func (c *Catalog) Snapshot(ep Endpoint) (map[string]any, error) {
	out := make(map[string]any)
	for _, target := range ep.Targets() {
		pc, err := configurer.For(reflect.TypeOf(target), c.options...)
		if err != nil {
			return nil, err
		}
		for name, value := range pc.Snapshot(target) {
			if _, exists := out[name]; !exists {
				out[name] = value
			}
		}
	}
	return out, nil
}

// Canonical returns the declared spelling of name for ep.
func (c *Catalog) Canonical(ep Endpoint, name string, ignoreCase bool) (string, bool) {
	for _, target := range ep.Targets() {
		schema, err := configurer.SchemaFor(reflect.TypeOf(target))
		if err != nil {
			continue
		}
		if p, ok := schema.Lookup(name, ignoreCase); ok {
			return p.Name, true
		}
	}
	return "", false
}

// Set applies a single property to ep.
func (c *Catalog) Set(ep Endpoint, name string, value any, ignoreCase bool) (bool, error) {
	chain, err := chainFor(ep, c.options...)
	if err != nil {
		return false, err
	}
	return chain.Set(name, value, ignoreCase)
}

func chainFor(ep Endpoint, opts ...configurer.Option) (configurer.Chain, error) {
	targets := ep.Targets()
	chain := make(configurer.Chain, 0, len(targets))
	for _, target := range targets {
		pc, err := configurer.For(reflect.TypeOf(target), opts...)
		if err != nil {
			return nil, err
		}
		chain = append(chain, configurer.Binding{Configurer: pc, Target: target})
	}
	return chain, nil
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}
