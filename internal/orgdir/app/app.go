package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/orgdir/internal/orgdir/domain"
	httpapi "github.com/aussiebroadwan/orgdir/internal/orgdir/http"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/service"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store"
	"github.com/aussiebroadwan/orgdir/internal/orgdir/store/drivers/sqlite"
	"github.com/aussiebroadwan/orgdir/pkg/cryptox"
	"github.com/aussiebroadwan/orgdir/pkg/slogx"
	"github.com/cenkalti/backoff/v5"
)

// Application encapsulates the directory service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	tokens *service.TokenService

	// Services
	directory *service.Directory
	documents *service.DocumentService
	totp      *service.TOTPService
	repair    *service.RepairService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
// Nothing is started until Run.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "orgdir",
			Version: cfg.Version,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := cryptox.LoadPepper(cfg.PepperFile); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	tokens, err := InitTokens(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.tokens = tokens

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until ctx is cancelled or the server
// fails.
func (app *Application) Run(ctx context.Context) error {
	app.repair.Start()

	app.logger.Info("orgdir service starting", "port", app.cfg.Port, "version", app.cfg.Version)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		app.repair.Stop()
		_ = app.db.Close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		app.logger.Info("shutdown requested", "cause", context.Cause(ctx))

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down orgdir service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// In-flight sagas have finished with the server; stop repair before the
	// database goes away.
	app.repair.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("orgdir service stopped")
	return nil
}

// RepairOnce runs a single repair pass and closes the database.
func (app *Application) RepairOnce(ctx context.Context) (service.RepairReport, error) {
	defer func() { _ = app.db.Close() }()
	return app.repair.RunOnce(ctx)
}

// Close releases the database without running anything.
func (app *Application) Close() error { return app.db.Close() }

// initDatabase opens the database and applies migrations. A database held
// by another process is retried for a short while.
func (app *Application) initDatabase() error {
	db, err := OpenStore(context.Background(), app.cfg.DatabaseFile, app.logger)
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

// OpenStore opens the SQLite database, retrying while it is busy.
func OpenStore(ctx context.Context, file string, logger *slog.Logger) (*sqlite.Store, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond

	return backoff.Retry(ctx, func() (*sqlite.Store, error) {
		st, err := sqlite.NewStore(file)
		if err != nil {
			if !errors.Is(err, domain.ErrStorageUnavailable) {
				return nil, backoff.Permanent(err)
			}
			logger.Warn("database unavailable, retrying", "error", err)
			return nil, err
		}
		return st, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(5))
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	strategy, err := service.ParseRenameStrategy(app.cfg.RenameStrategy)
	if err != nil {
		return err
	}

	locks := service.NewKeyedLocker()
	gate := &service.AccessGate{Tokens: app.tokens, Store: app.db}
	partitions := &service.PartitionManager{Store: app.db, Strategy: strategy}

	app.directory = &service.Directory{
		Store:       app.db,
		Credentials: &service.CredentialStore{Store: app.db},
		Partitions:  partitions,
		Tokens:      app.tokens,
		Gate:        gate,
		Locks:       locks,
		LockTimeout: app.cfg.LockTimeout,
	}
	app.documents = &service.DocumentService{
		Store:       app.db,
		Gate:        gate,
		Partitions:  partitions,
		Locks:       locks,
		LockTimeout: app.cfg.LockTimeout,
	}
	app.totp = &service.TOTPService{
		Store:  app.db,
		Gate:   gate,
		Issuer: app.cfg.TokenIssuer,
	}
	app.repair = service.NewRepairService(
		app.directory,
		app.logger,
		app.cfg.RepairInterval,
		app.cfg.RepairGracePeriod,
	)

	app.logger.Info("services initialized", "rename_strategy", strategy, "lock_timeout", app.cfg.LockTimeout)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.cfg.Version, app.db, app.cfg.RateLimits, app.logger)

	// Wire services to router
	router.Directory = app.directory
	router.Documents = app.documents
	router.TOTP = app.totp
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Migrate applies database migrations without starting the service.
func Migrate(ctx context.Context, cfg Config, logger *slog.Logger) error {
	db, err := OpenStore(ctx, cfg.DatabaseFile, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	logger.Info("database migrations applied successfully", "file", cfg.DatabaseFile)
	return nil
}
