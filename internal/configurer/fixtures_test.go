package configurer

import (
	"fmt"
	"net"
	"reflect"
	"strconv"
	"testing"
	"time"
)

type pollerConfig struct {
	Delay  int64 `prop:"delay"`
	Greedy bool  `prop:"greedy"`
}

type color string

func (color) Enumerators() []string { return []string{"Red", "Green", "Blue"} }

type level int

func (level) Enumerators() []string { return []string{"LOW", "MEDIUM", "HIGH"} }

type handler interface {
	Handle() string
}

type namedHandler struct {
	name string
}

func (h *namedHandler) Handle() string { return h.name }

type address struct {
	Host string
	Port int
}

func parseAddress(value any) (address, error) {
	s, ok := value.(string)
	if !ok {
		return address{}, fmt.Errorf("expected host:port string, got %T", value)
	}
	host, rawPort, err := net.SplitHostPort(s)
	if err != nil {
		return address{}, err
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		return address{}, err
	}
	return address{Host: host, Port: port}, nil
}

type retryOptions struct {
	MaxAttempts int `prop:"maxAttempts"`
}

type authOptions struct {
	Username string `prop:"username"`
	Password string `prop:"password"`
}

type sample struct {
	retryOptions

	Name     string         `prop:"name"`
	ClientID string         `prop:"clientId"`
	Count    int            `prop:"count"`
	Small    int8           `prop:"small"`
	Port     uint16         `prop:"port"`
	Ratio    float64        `prop:"ratio"`
	Enabled  bool           `prop:"enabled"`
	Timeout  time.Duration  `prop:"timeout"`
	Color    color          `prop:"color"`
	Level    level          `prop:"level"`
	Tags     []string       `prop:"tags"`
	Labels   map[string]int `prop:"labels"`
	Handler  handler        `prop:"handler"`
	Upstream address        `prop:"upstream"`
	Auth     authOptions    `prop:",inline"`
	Region   string
	Internal string `prop:"-"`

	hidden string
}

type mapLookup map[string]any

func (m mapLookup) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func newSampleConfigurer(t testing.TB) *PropertyConfigurer {
	t.Helper()

	converters := NewConverters()
	RegisterConverter(converters, parseAddress)

	c, err := For(reflect.TypeFor[sample](), WithConverters(converters), WithLookup(mapLookup{
		"primary": &namedHandler{name: "primary"},
		"number":  42,
	}))
	if err != nil {
		t.Fatalf("For returned error: %v", err)
	}
	return c
}
