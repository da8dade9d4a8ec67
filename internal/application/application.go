package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/eugenenazirov/propconf/internal/api"
	"github.com/eugenenazirov/propconf/internal/config"
	"github.com/eugenenazirov/propconf/internal/configurer"
	"github.com/eugenenazirov/propconf/internal/endpoint"
	"github.com/eugenenazirov/propconf/internal/registry"
	"github.com/eugenenazirov/propconf/internal/storage"
)

// ExceptionHandlerName is the registry name of the logging exception handler,
// referenced from endpoint URIs as "#logExceptions".
const ExceptionHandlerName = "logExceptions"

// App encapsulates the application dependencies and HTTP server.
type App struct {
	registry *registry.Registry
	catalog  *endpoint.Catalog
	storage  storage.Storage
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server

	seedMu  sync.Mutex
	watcher *configWatcher
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	objects, err := NewRegistry(logger)
	if err != nil {
		return nil, err
	}

	catalog := NewCatalog(objects, cfg.LenientProperties)

	store, err := openStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	app := &App{
		registry: objects,
		catalog:  catalog,
		storage:  store,
		logger:   logger,
	}

	if err := app.SeedEndpoints(context.Background(), cfg.Endpoints); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to seed endpoints: %w", err)
	}

	app.handler = api.NewHandler(catalog, store, api.WithLogger(logger))
	app.router = api.NewRouter(app.handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)
	app.server = NewServer(cfg, app.router)

	if cfg.Watch && cfg.ConfigFile != "" {
		w, err := watchConfig(cfg.ConfigFile, logger, app.reseed)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to watch config file: %w", err)
		}
		app.watcher = w
	}

	return app, nil
}

// NewRegistry returns the object registry with the logging exception handler bound.
func NewRegistry(logger *zap.Logger) (*registry.Registry, error) {
	objects := registry.New()
	if err := objects.Bind(ExceptionHandlerName, NewExceptionHandler(logger)); err != nil {
		return nil, fmt.Errorf("failed to bind exception handler: %w", err)
	}
	return objects, nil
}

// NewCatalog builds the endpoint catalog with the byte-size converters and
// objects resolvable as "#name" references.
func NewCatalog(objects configurer.Lookup, lenient bool) *endpoint.Catalog {
	converters := configurer.NewConverters()
	endpoint.RegisterConverters(converters)

	return endpoint.NewCatalog(
		endpoint.WithConverters(converters),
		endpoint.WithLookup(objects),
		endpoint.WithLenient(lenient),
	)
}

func openStorage(cfg config.Config) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		return storage.NewSQLiteStorage(context.Background(), cfg.StoragePath)
	case config.DriverMemory, "":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// SeedEndpoints validates and stores the endpoints declared in configuration.
// Existing records with the same id are replaced. Every failing declaration is reported.
func (a *App) SeedEndpoints(ctx context.Context, specs []config.EndpointSpec) error {
	a.seedMu.Lock()
	defer a.seedMu.Unlock()

	var errs error
	for _, spec := range specs {
		if _, err := a.catalog.Bind(spec.URI, spec.Properties, spec.IgnoreCase); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("endpoint %q: %w", spec.ID, err))
			continue
		}

		rec := storage.Record{
			ID:         spec.ID,
			URI:        spec.URI,
			Properties: spec.Properties,
			IgnoreCase: spec.IgnoreCase,
		}
		_, err := a.storage.Create(ctx, rec)
		if errors.Is(err, storage.ErrConflict) {
			_, err = a.storage.Update(ctx, rec)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("endpoint %q: %w", spec.ID, err))
			continue
		}
		a.logger.Debug("endpoint seeded", zap.String("id", spec.ID), zap.String("uri", spec.URI))
	}
	return errs
}

func (a *App) reseed(specs []config.EndpointSpec) {
	if err := a.SeedEndpoints(context.Background(), specs); err != nil {
		a.logger.Warn("config reload left some endpoints unchanged", zap.Error(err))
		return
	}
	a.logger.Info("endpoints reloaded", zap.Int("count", len(specs)))
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Handler returns the API router.
func (a *App) Handler() http.Handler {
	return a.router
}

// Close stops the config watcher and releases storage.
func (a *App) Close() error {
	var err error
	if a.watcher != nil {
		err = multierr.Append(err, a.watcher.Close())
	}
	return multierr.Append(err, a.storage.Close())
}
