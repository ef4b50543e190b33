package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"bajadash/internal/config"
	apierrors "bajadash/internal/errors"
	"bajadash/internal/infrastructure"
	custommw "bajadash/internal/middleware"
	"bajadash/internal/services"
	handlers "bajadash/internal/transport/http"
)

// Version is the application version, overridable at build time.
var Version = "dev"

// Application is the dependency container: configuration, logger, metrics,
// the dataset service and the assembled HTTP server.
type Application struct {
	Config         *config.Config
	Logger         *slog.Logger
	Metrics        *infrastructure.Metrics
	DatasetService *services.DatasetService
	Router         *chi.Mux
	Server         *http.Server
}

// New loads configuration and wires every component together.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewWithConfig(cfg)
}

// NewWithConfig wires the application from an already-loaded
// configuration. Tests use this to inject their own settings.
func NewWithConfig(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port))

	metrics := infrastructure.NewMetrics()

	datasetService, err := services.NewDatasetService(cfg.Dashboard, logger, metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset service: %w", err)
	}

	app := &Application{
		Config:         cfg,
		Logger:         logger,
		Metrics:        metrics,
		DatasetService: datasetService,
	}
	app.Router = app.buildRouter()
	app.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        app.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return app, nil
}

// buildRouter assembles the middleware chain and route tree.
func (a *Application) buildRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))

	if a.Config.Security.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		)
		r.Use(limiter.Handler)
	}

	errorHandler := apierrors.NewErrorHandler(a.Logger)
	datasetHandler := handlers.NewDatasetHandler(
		a.DatasetService,
		a.Logger,
		errorHandler,
		a.Config.Dashboard.MaxUploadBytes,
	)

	r.Mount("/healthz", handlers.NewHealthHandler(Version).Routes())
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.Metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Mount("/datasets", datasetHandler.Routes())
	})

	return r
}

// Run serves HTTP until the context is cancelled, then shuts down
// gracefully within the configured timeout.
func (a *Application) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()

		a.Logger.Info("shutting down",
			slog.Duration("timeout", a.Config.Server.ShutdownTimeout))
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	infrastructure.CloseLogFile()
	return err
}
