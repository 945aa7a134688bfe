// Package app wires configuration, storage, services and the HTTP server
// into a runnable application.
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

	"github.com/courseloop/campus-auth/internal/auth/domain"
	httpapi "github.com/courseloop/campus-auth/internal/auth/http"
	"github.com/courseloop/campus-auth/internal/auth/notify"
	"github.com/courseloop/campus-auth/internal/auth/service"
	"github.com/courseloop/campus-auth/internal/auth/store"
	"github.com/courseloop/campus-auth/internal/auth/store/drivers/sqlite"
	"github.com/courseloop/campus-auth/pkg/cryptox"
	"github.com/courseloop/campus-auth/pkg/jwtx"
	"github.com/courseloop/campus-auth/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application holds the wired dependencies of the auth service.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db store.Store

	authService  *service.AuthService
	otpService   *service.OTPService
	tokenService *service.TokenService

	server *http.Server
}

// New builds an Application from configuration. Nothing starts running
// until Run is called.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "campus-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.seed(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("seed admin user: %w", err)
	}

	app.initHTTP()
	return app, nil
}

// Run starts the HTTP server and blocks until shutdown is requested or
// the server fails.
func (app *Application) Run() error {
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown drains in-flight requests and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

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

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
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

func (app *Application) initServices() error {
	signer, err := jwtx.NewHS256(app.cfg.SigningKey, app.cfg.Issuer)
	if err != nil {
		return err
	}

	app.tokenService = &service.TokenService{
		Signer:   signer,
		Verifier: signer,
		Issuer:   app.cfg.Issuer,
		TTL:      app.cfg.TokenTTL,
	}

	app.otpService = &service.OTPService{
		Store:         app.db,
		Channel:       app.deliveryChannel(),
		TTL:           app.cfg.OTPTTL,
		CodeDigits:    app.cfg.OTPDigits,
		NotifyTimeout: app.cfg.NotifyTimeout,
	}

	app.authService = &service.AuthService{
		Store:               app.db,
		OTP:                 app.otpService,
		Tokens:              app.tokenService,
		RequireSecondFactor: app.cfg.RequireSecondFactor,
	}
	return nil
}

// deliveryChannel picks SMTP when a relay is configured, otherwise the
// log channel so dev environments work out of the box.
func (app *Application) deliveryChannel() notify.Channel {
	if app.cfg.SMTPAddr != "" {
		return &notify.SMTPChannel{
			Addr:     app.cfg.SMTPAddr,
			From:     app.cfg.SMTPFrom,
			Username: app.cfg.SMTPUsername,
			Password: app.cfg.SMTPPassword,
		}
	}

	app.logger.Warn("SMTP_ADDR not set, one-time codes will be logged instead of emailed")
	return &notify.LogChannel{Logger: app.logger}
}

// seed creates the bootstrap admin on a completely empty store. A store
// with any users at all is left alone.
func (app *Application) seed(ctx context.Context) error {
	if app.cfg.SeedAdminUsername == "" || app.cfg.SeedAdminEmail == "" || app.cfg.SeedAdminPassword == "" {
		return nil
	}

	empty, err := app.db.Users().IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	hash, err := cryptox.HashPassword(app.cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	id, err := app.db.Users().Create(ctx, domain.User{
		Username:     app.cfg.SeedAdminUsername,
		Email:        app.cfg.SeedAdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Active:       true,
	})
	if err != nil {
		return err
	}

	app.logger.Info("seeded bootstrap admin", "user_id", id, "username", app.cfg.SeedAdminUsername)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.authService, app.db, app.logger, httpapi.DefaultRouterConfig())

	app.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.cfg.Port),
		Handler: router,
	}
}
