// Package app wires configuration, storage, the unit loader, the render
// engine and the ambient services into the jobs the CLI runs.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/viant/afs"

	"github.com/cwbudde/algo-host/fileio"
	"github.com/cwbudde/algo-host/internal/config"
	"github.com/cwbudde/algo-host/internal/logging"
	"github.com/cwbudde/algo-host/internal/metrics"
	"github.com/cwbudde/algo-host/internal/tracing"
	"github.com/cwbudde/algo-host/render"
	"github.com/cwbudde/algo-host/unit"
	"github.com/cwbudde/algo-host/units"
)

// Service identifies the traces and logs written by the app.
const (
	ServiceName    = "hostrender"
	ServiceVersion = "0.1.0"
)

// App runs render jobs. It is not safe for concurrent use.
type App struct {
	cfg     config.Config
	store   *fileio.Store
	loader  *unit.Loader
	logger  *slog.Logger
	tracer  *tracing.Tracer
	metrics *metrics.Render
}

// Option customizes an App.
type Option func(*App)

// WithStorage sets the afs service used for all file access.
func WithStorage(fs afs.Service) Option {
	return func(a *App) { a.store = fileio.NewStore(fs) }
}

// WithRegistry sets the registry units are loaded from.
func WithRegistry(r *unit.Registry) Option {
	return func(a *App) { a.loader.Registry = r }
}

// WithLogger sets the logger, replacing the one built from the config.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// WithTracer sets the tracer, replacing the one built from the config.
func WithTracer(t *tracing.Tracer) Option {
	return func(a *App) { a.tracer = t }
}

// New validates cfg and builds an App. Logs go to logOut unless a logger is
// passed with WithLogger. Spans go to cfg.TraceFile when set.
func New(cfg config.Config, logOut io.Writer, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		store:   fileio.NewStore(nil),
		loader:  unit.NewLoader(units.DefaultRegistry(), nil),
		metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		if logOut == nil {
			logOut = os.Stderr
		}
		if a.logger, err = logging.New(logOut, level, cfg.LogFormat); err != nil {
			return nil, err
		}
	}
	a.loader.Logger = a.logger

	if a.tracer == nil {
		t, err := tracing.NewFile(ServiceName, ServiceVersion, cfg.TraceFile)
		if err != nil {
			return nil, err
		}
		a.tracer = t
	}

	return a, nil
}

// Config returns the validated configuration.
func (a *App) Config() config.Config { return a.cfg }

// Metrics returns the render metrics collected so far.
func (a *App) Metrics() *metrics.Render { return a.metrics }

// Units lists the unit types the loader can resolve.
func (a *App) Units() []string {
	if a.loader.Registry == nil {
		return nil
	}
	return a.loader.Registry.Names()
}

// Close writes the metrics file when configured and flushes the tracer.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteFile(a.cfg.MetricsFile); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
	}
	return errors.Join(errs...)
}

// job carries the per-run logger and id.
type job struct {
	id     string
	logger *slog.Logger
}

func (a *App) newJob(kind string) job {
	id := uuid.NewString()
	return job{id: id, logger: a.logger.With("job", id, "kind", kind)}
}

func (a *App) engine(j job, sampleRate float64) *render.Engine {
	return render.New(
		render.WithSampleRate(sampleRate),
		render.WithBlockSize(a.cfg.BlockSize),
		render.WithTailSeconds(a.cfg.TailSeconds),
		render.WithLogger(j.logger),
		render.WithObserver(a.metrics),
	)
}
