package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/propconf/internal/application"
	"github.com/eugenenazirov/propconf/internal/config"
	"github.com/eugenenazirov/propconf/internal/endpoint"
	"github.com/eugenenazirov/propconf/internal/logging"
)

var signalNotify = signal.Notify

type cli struct {
	app   *kingpin.Application
	serve *kingpin.CmdClause
	bind  *kingpin.CmdClause

	configFile     *string
	sets           *[]string
	port           *string
	rateLimitRPS   *float64
	rateLimitBurst *int

	bindURI    *string
	bindProps  *map[string]string
	ignoreCase *bool
	dump       *bool
}

func newCLI() *cli {
	c := &cli{app: kingpin.New("propconf", "Endpoint property configuration service")}
	c.configFile = c.app.Flag("config", "Path to YAML configuration file").String()
	c.sets = c.app.Flag("set", "Override any setting as key=value (repeatable)").Strings()

	c.serve = c.app.Command("serve", "Run the HTTP API").Default()
	c.port = c.serve.Flag("port", "HTTP port exposed by the service").String()
	c.rateLimitRPS = c.serve.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	c.rateLimitBurst = c.serve.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	c.bind = c.app.Command("bind", "Bind an endpoint URI and print its effective settings")
	c.bindURI = c.bind.Arg("uri", "Endpoint URI, e.g. docker:info?host=localhost").Required().String()
	c.bindProps = c.bind.Flag("property", "Extra property as name=value (repeatable)").Short('p').StringMap()
	c.ignoreCase = c.bind.Flag("ignore-case", "Match property names ignoring case").Bool()
	c.dump = c.bind.Flag("dump", "Dump the bound endpoint instead of printing YAML").Bool()
	return c
}

func (c *cli) overrides() *config.CLIOverrides {
	overrides := &config.CLIOverrides{
		ConfigFile: *c.configFile,
		Sets:       *c.sets,
	}
	if *c.port != "" {
		overrides.Port = c.port
	}
	if *c.rateLimitRPS >= 0 {
		overrides.RateLimitRPS = c.rateLimitRPS
	}
	if *c.rateLimitBurst >= 0 {
		overrides.RateLimitBurst = c.rateLimitBurst
	}
	return overrides
}

func main() {
	c := newCLI()
	command := kingpin.MustParse(c.app.Parse(os.Args[1:]))

	cfg, err := config.Load(c.overrides())
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LoggingLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	if command == c.bind.FullCommand() {
		objects, err := application.NewRegistry(logger)
		if err != nil {
			logger.Fatal("failed to initialize registry", zap.Error(err))
		}
		catalog := application.NewCatalog(objects, cfg.LenientProperties)
		if err := runBind(os.Stdout, catalog, *c.bindURI, *c.bindProps, *c.ignoreCase, *c.dump); err != nil {
			logger.Fatal("failed to bind endpoint", zap.Error(err))
		}
		return
	}

	app, err := application.New(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize application", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to release resources", zap.Error(err))
		}
	}()

	if err := app.Start(); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}

	shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
}

type bindOutput struct {
	Scheme   string         `yaml:"scheme"`
	Path     string         `yaml:"path"`
	Settings map[string]any `yaml:"settings"`
}

var dumper = spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true, DisableCapacities: true}

// runBind binds rawURI and writes the resulting settings to w.
func runBind(w io.Writer, catalog *endpoint.Catalog, rawURI string, props map[string]string, ignoreCase, dump bool) error {
	values := make(map[string]any, len(props))
	for name, value := range props {
		values[name] = value
	}

	ep, err := catalog.Bind(rawURI, values, ignoreCase)
	if err != nil {
		return err
	}
	if dump {
		dumper.Fdump(w, ep)
		return nil
	}

	settings, err := catalog.Snapshot(ep)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(bindOutput{Scheme: ep.Scheme(), Path: ep.Path(), Settings: settings}); err != nil {
		return err
	}
	return enc.Close()
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
