package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/tollgate/internal/auth/http"
	"github.com/aussiebroadwan/tollgate/internal/auth/metrics"
	"github.com/aussiebroadwan/tollgate/internal/auth/service"
	"github.com/aussiebroadwan/tollgate/internal/auth/store"
	"github.com/aussiebroadwan/tollgate/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/tollgate/pkg/cryptox"
	"github.com/aussiebroadwan/tollgate/pkg/jwtx"
	"github.com/aussiebroadwan/tollgate/pkg/slogx"
)

// BuildVersion is overridden at build time with
// -ldflags "-X github.com/aussiebroadwan/tollgate/internal/auth/app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application encapsulates the authorization server with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	keyManager *jwtx.KeyManager
	hasher     *cryptox.SecretHasher
	metrics    *metrics.Metrics

	// Services
	registry            *service.Registry
	tokenService        *service.TokenService
	introspector        *service.Introspector
	keyRotationService  *service.KeyRotationService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tollgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	if app.hasher, err = cryptox.NewSecretHasher(pepper); err != nil {
		return nil, err
	}

	// Database first: persistent keys live there
	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	ctx := slogx.WithContext(context.Background(), app.logger)
	keyManager, err := InitKeyManager(ctx, app.cfg, app.db, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize signing keys: %w", err)
	}
	app.keyManager = keyManager

	app.initServices()

	created, err := SeedClients(ctx, cfg.SeedFile, app.registry)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to seed clients: %w", err)
	}
	if created > 0 {
		app.logger.Info("seed clients registered", "count", created)
	}
	app.keyRotationService.RefreshGauges()
	if _, err := app.registry.Count(ctx); err != nil {
		app.logger.Warn("failed to count clients", "error", err)
	}

	app.initHTTP()

	return app, nil
}

// Handler exposes the fully wired HTTP handler, mainly for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("tollgate starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"issuer", app.cfg.Issuer,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down tollgate...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("tollgate stopped")
	return nil
}

// initDatabase opens the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.metrics = metrics.New()

	app.registry = &service.Registry{
		Store:       app.db,
		Hasher:      app.hasher,
		Metrics:     app.metrics,
		MaxTokenTTL: app.cfg.MaxTokenTTL,
	}

	app.tokenService = &service.TokenService{
		Validator: &service.Validator{Store: app.db, Hasher: app.hasher},
		Issuer: &service.Issuer{
			Keys:       app.keyManager,
			IssuerURL:  app.cfg.Issuer,
			DefaultTTL: app.cfg.DefaultTokenTTL,
		},
		Store:   app.db,
		Metrics: app.metrics,
	}

	app.introspector = &service.Introspector{
		Verifier: app.verifier(),
		Metrics:  app.metrics,
	}

	app.keyRotationService = &service.KeyRotationService{
		Keys:    app.keyManager,
		Metrics: app.metrics,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.keyRotationService,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.KeyRotationInterval,
	)
}

func (app *Application) verifier() *jwtx.Verifier {
	return jwtx.NewVerifier(app.keyManager, jwtx.VerifyOptions{Issuer: app.cfg.Issuer})
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	cfg := httpapi.RouterConfig{
		Keys:         app.keyManager,
		Verifier:     app.introspector.Verifier,
		Issuer:       app.cfg.Issuer,
		PublicURL:    app.cfg.PublicURL,
		BuildVersion: BuildVersion,
		DefaultTTL:   app.cfg.DefaultTokenTTL,
		Store:        app.db,
		Logger:       app.logger,
		Metrics:      app.metrics,
		AdminToken:   app.cfg.AdminToken,
		RateLimits:   app.cfg.RateLimits,
	}
	if app.cfg.MetricsEnabled {
		cfg.MetricsHandler = app.metrics.Handler()
	}
	if app.cfg.AdminToken == "" {
		app.logger.Warn("AUTH_ADMIN_TOKEN is not set, client registration and key management are open")
	}

	router := httpapi.NewRouter(cfg)
	router.Registry = app.registry
	router.TokenService = app.tokenService
	router.Introspector = app.introspector
	router.KeyRotationService = app.keyRotationService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
