package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/carrerakart/kartapi/internal/api/http"
	"github.com/carrerakart/kartapi/internal/api/service"
	"github.com/carrerakart/kartapi/internal/api/store"
	"github.com/carrerakart/kartapi/internal/api/store/drivers/sqlite"
	"github.com/carrerakart/kartapi/pkg/jwtx"
	"github.com/carrerakart/kartapi/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the API server with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	tokens *jwtx.HS256

	userService           *service.UserService
	classificationService *service.ClassificationService
	operatingHourService  *service.OperatingHourService
	bootstrapService      *service.BootstrapService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized, migrations
// applied and the bootstrap admin ensured.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "kartapi",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	app.tokens = jwtx.NewHS256([]byte(cfg.JWTSecret), cfg.Issuer)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()

	if err := app.bootstrapAdmin(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("kart venue API starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
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

// Shutdown gracefully stops the HTTP server and closes the database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down kart venue API...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("kart venue API stopped")
	return nil
}

// initDatabase opens the sqlite store and applies migrations, seeding the
// operating-hours catalogue on first run.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() {
	app.userService = &service.UserService{
		Store:    app.db,
		Signer:   app.tokens,
		Issuer:   app.cfg.Issuer,
		TokenTTL: app.cfg.TokenTTL,
	}
	app.classificationService = &service.ClassificationService{Store: app.db}
	app.operatingHourService = &service.OperatingHourService{Store: app.db}
	app.bootstrapService = &service.BootstrapService{Store: app.db}
}

// bootstrapAdmin ensures an ADMIN account exists so the panel is reachable on
// a fresh database. Skipped when no password is configured and an admin is
// already present.
func (app *Application) bootstrapAdmin() error {
	ctx := slogx.WithContext(context.Background(), app.logger)

	hasAdmin, err := app.db.Users().HasAdmin(ctx)
	if err != nil {
		return fmt.Errorf("failed to check for admin account: %w", err)
	}
	if hasAdmin {
		return nil
	}

	if app.cfg.AdminPassword == "" {
		return fmt.Errorf("no admin account exists and ADMIN_PASSWORD is not set")
	}

	if _, err := app.bootstrapService.EnsureAdmin(ctx, app.cfg.AdminName, app.cfg.AdminEmail, app.cfg.AdminPassword); err != nil {
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}
	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.tokens,
		BuildVersion,
		app.cfg.Env,
		app.cfg.CORSOrigins,
		app.db,
		app.logger,
	)

	router.UserService = app.userService
	router.ClassificationService = app.classificationService
	router.OperatingHourService = app.operatingHourService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
