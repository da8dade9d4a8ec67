package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/propconf/internal/configurer"
	"github.com/eugenenazirov/propconf/internal/logging"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50

	// EnvPrefix marks environment variables holding settings, e.g. PROPCONF_RATE_LIMIT_RPS.
	EnvPrefix = "PROPCONF_"
)

var (
	// ErrInvalidConfig indicates a configuration that failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnknownSetting indicates a setting name that matches no configuration property.
	ErrUnknownSetting = errors.New("unknown setting")
)

// StorageDriver selects the endpoint store implementation.
type StorageDriver string

const (
	DriverMemory StorageDriver = "memory"
	DriverSQLite StorageDriver = "sqlite"
)

func (StorageDriver) Enumerators() []string {
	return []string{string(DriverMemory), string(DriverSQLite)}
}

// EndpointSpec declares an endpoint to seed into storage at startup.
type EndpointSpec struct {
	ID         string         `yaml:"id"`
	URI        string         `yaml:"uri"`
	Properties map[string]any `yaml:"properties"`
	IgnoreCase bool           `yaml:"ignore_case"`
}

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
//
// Scalar settings are applied through the property configurer, so every source
// accepts the same value syntax ("10s", "1d", "true", "25.5").
type Config struct {
	Port                 string        `prop:"port"`
	ShutdownGracePeriod  time.Duration `prop:"shutdownGracePeriod"`
	ReadHeaderTimeout    time.Duration `prop:"readHeaderTimeout"`
	WriteTimeout         time.Duration `prop:"writeTimeout"`
	IdleTimeout          time.Duration `prop:"idleTimeout"`
	EnableRequestLogging bool          `prop:"enableRequestLogging"`
	RateLimitRPS         float64       `prop:"rateLimitRps"`
	RateLimitBurst       int           `prop:"rateLimitBurst"`
	StorageDriver        StorageDriver `prop:"storageDriver"`
	StoragePath          string        `prop:"storagePath"`
	LoggingLevel         string        `prop:"loggingLevel"`
	LenientProperties    bool          `prop:"lenientProperties"`
	Watch                bool          `prop:"watch"`

	ConfigFile string         `prop:"-"`
	Endpoints  []EndpointSpec `prop:"-"`
}

// fileConfig represents the YAML configuration file structure.
type fileConfig struct {
	Server            map[string]any `yaml:"server"`
	RateLimit         map[string]any `yaml:"rate_limit"`
	Storage           map[string]any `yaml:"storage"`
	Logging           map[string]any `yaml:"logging"`
	LenientProperties *bool          `yaml:"lenient_properties"`
	Watch             *bool          `yaml:"watch"`
	Endpoints         []EndpointSpec `yaml:"endpoints"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	// Sets holds repeated key=value flags naming any setting.
	Sets []string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	if err := applySettings(&cfg, envSettings(os.Environ())); err != nil {
		return Config{}, fmt.Errorf("apply environment: %w", err)
	}

	if overrides != nil && overrides.ConfigFile != "" {
		file, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applySettings(&cfg, file.settings()); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
		cfg.ConfigFile = overrides.ConfigFile
		cfg.Endpoints = file.Endpoints
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		StorageDriver:        DriverMemory,
		LoggingLevel:         logging.DefaultLevel,
	}
}

// LoadEndpoints reads only the endpoint declarations of a YAML file.
func LoadEndpoints(path string) ([]EndpointSpec, error) {
	file, err := loadFromFile(path)
	if err != nil {
		return nil, err
	}
	return file.Endpoints, nil
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var file fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	if err := validateEndpoints(file.Endpoints); err != nil {
		return nil, err
	}
	return &file, nil
}

// settings flattens the scalar sections. Server keys are used as-is; keys of the other
// sections are prefixed with the section name (rate_limit.rps -> rateLimitRps).
func (f *fileConfig) settings() map[string]any {
	out := make(map[string]any)
	for key, value := range f.Server {
		out[key] = value
	}
	sections := map[string]map[string]any{
		"rate_limit": f.RateLimit,
		"storage":    f.Storage,
		"logging":    f.Logging,
	}
	for section, values := range sections {
		for key, value := range values {
			out[section+"."+key] = value
		}
	}
	if f.LenientProperties != nil {
		out["lenient_properties"] = *f.LenientProperties
	}
	if f.Watch != nil {
		out["watch"] = *f.Watch
	}
	return out
}

// envSettings collects PROPCONF_* variables plus the conventional PORT.
// PORT is only a fallback for an unset PROPCONF_PORT.
func envSettings(environ []string) map[string]any {
	out := make(map[string]any)
	var port string
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		switch {
		case name == "PORT":
			port = strings.TrimSpace(value)
		case strings.HasPrefix(name, EnvPrefix):
			out[strings.TrimPrefix(name, EnvPrefix)] = strings.TrimSpace(value)
		}
	}
	if port == "" {
		return out
	}
	for key := range out {
		if strings.EqualFold(key, "port") {
			return out
		}
	}
	out["port"] = port
	return out
}

// settingSetter resolves loosely spelled setting names onto Config properties.
type settingSetter struct {
	cfg   *Config
	names map[string]string
}

func newSettingSetter(cfg *Config) (settingSetter, error) {
	schema, err := configurer.SchemaFor(reflect.TypeOf(cfg))
	if err != nil {
		return settingSetter{}, err
	}
	names := make(map[string]string, schema.Len())
	for _, name := range schema.Names() {
		names[normalize(name)] = name
	}
	return settingSetter{cfg: cfg, names: names}, nil
}

func (s settingSetter) Set(name string, value any, _ bool) (bool, error) {
	canonical, ok := s.resolve(name)
	if !ok {
		return false, nil
	}
	return configurer.Configure(s.cfg, canonical, value, false)
}

func (s settingSetter) resolve(name string) (string, bool) {
	key := normalize(name)
	if canonical, ok := s.names[key]; ok {
		return canonical, true
	}
	if trimmed, found := strings.CutPrefix(key, "server"); found {
		canonical, ok := s.names[trimmed]
		return canonical, ok
	}
	return "", false
}

// normalize lowercases a setting name and drops separators, so RATE_LIMIT_RPS,
// rate_limit.rps and rateLimitRps all match.
func normalize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '.', '-':
			return -1
		}
		return r
	}, strings.ToLower(name))
}

func applySettings(cfg *Config, settings map[string]any) error {
	if len(settings) == 0 {
		return nil
	}
	setter, err := newSettingSetter(cfg)
	if err != nil {
		return err
	}
	unmatched, err := configurer.Apply(setter, settings, false)
	if len(unmatched) > 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %s", ErrUnknownSetting, strings.Join(unmatched, ", ")))
	}
	return err
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	settings := make(map[string]any)
	for _, kv := range overrides.Sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("%w: --set expects key=value, got %q", ErrInvalidConfig, kv)
		}
		settings[strings.TrimSpace(key)] = value
	}

	if overrides.Port != nil && *overrides.Port != "" {
		settings["port"] = *overrides.Port
	}
	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		settings["rateLimitRps"] = *overrides.RateLimitRPS
	}
	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		settings["rateLimitBurst"] = *overrides.RateLimitBurst
	}

	if err := applySettings(cfg, settings); err != nil {
		return fmt.Errorf("apply CLI overrides: %w", err)
	}
	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	var err error
	if cfg.Port == "" {
		err = multierr.Append(err, fmt.Errorf("%w: port cannot be empty", ErrInvalidConfig))
	}
	if cfg.RateLimitRPS < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: rate limit rps must be >= 0", ErrInvalidConfig))
	}
	if cfg.RateLimitBurst < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: rate limit burst must be >= 0", ErrInvalidConfig))
	}
	switch cfg.StorageDriver {
	case DriverMemory:
	case DriverSQLite:
		if cfg.StoragePath == "" {
			err = multierr.Append(err, fmt.Errorf("%w: sqlite storage requires a path", ErrInvalidConfig))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, cfg.StorageDriver))
	}
	if _, lvlErr := logging.ParseLevel(cfg.LoggingLevel); lvlErr != nil {
		err = multierr.Append(err, fmt.Errorf("%w: %v", ErrInvalidConfig, lvlErr))
	}
	return err
}

func validateEndpoints(specs []EndpointSpec) error {
	seen := make(map[string]struct{}, len(specs))
	var dups []string
	for i, spec := range specs {
		if spec.ID == "" || spec.URI == "" {
			return fmt.Errorf("%w: endpoint #%d needs both id and uri", ErrInvalidConfig, i+1)
		}
		if _, dup := seen[spec.ID]; dup {
			dups = append(dups, spec.ID)
		}
		seen[spec.ID] = struct{}{}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		return fmt.Errorf("%w: duplicate endpoint ids: %s", ErrInvalidConfig, strings.Join(dups, ", "))
	}
	return nil
}
