// Package app wires configuration, persistence and use cases for the binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/datasteward/steward/internal/adapter/persistence"
	"github.com/datasteward/steward/internal/adapter/session"
	"github.com/datasteward/steward/internal/config"
	"github.com/datasteward/steward/internal/infra/auth"
	"github.com/datasteward/steward/internal/infra/logger"
	"github.com/datasteward/steward/internal/ports"
	"github.com/datasteward/steward/internal/usecase"
)

// App holds the wired components
type App struct {
	Config     *config.Config
	Log        logger.Logger
	Provider   *persistence.PoolProvider
	Store      *persistence.SQLStore
	Sessions   ports.SessionStore
	Browse     *usecase.BrowseUseCase
	Reconciler *usecase.Reconciler
}

// NewLogger builds the application logger from configuration
func NewLogger(cfg *config.Config, service string) logger.Logger {
	return logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		ServiceName: service,
		Output:      os.Stdout,
	})
}

// New wires every component. The database is not contacted until first use.
func New(cfg *config.Config, log logger.Logger) (*App, error) {
	dialect, err := persistence.NewDialect(cfg.Database.Driver)
	if err != nil {
		return nil, err
	}

	provider := persistence.NewPoolProvider(dialect.DriverName(), cfg.DSN, credentialSource(cfg), poolOptions(cfg), log)
	store := persistence.NewSQLStore(provider, dialect)

	sessions, err := session.NewStore(session.Config{
		Enabled:  cfg.Redis.Enabled,
		RedisURL: cfg.GetRedisURL(),
		TTL:      cfg.Steward.SessionTTL,
	}, log)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	return &App{
		Config:     cfg,
		Log:        log,
		Provider:   provider,
		Store:      store,
		Sessions:   sessions,
		Browse:     usecase.NewBrowseUseCase(store, sessions, log),
		Reconciler: usecase.NewReconciler(store, sessions, log),
	}, nil
}

// Ping checks that a connection can be opened
func (a *App) Ping(ctx context.Context) error {
	db, err := a.Provider.DB(ctx)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// TokenService builds the JWT service from configuration
func (a *App) TokenService() (*auth.TokenService, error) {
	return auth.NewTokenService(a.Config.Security.JWTSecret, a.Config.Security.JWTExpiration, a.Config.Security.JWTIssuer)
}

// Close releases the session store and the connection pool
func (a *App) Close() error {
	if closer, ok := a.Sessions.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			a.Log.Warn(context.Background(), "Failed to close session store", map[string]interface{}{"error": err.Error()})
		}
	}
	return a.Provider.Close()
}

func credentialSource(cfg *config.Config) persistence.CredentialSource {
	switch {
	case cfg.Database.Driver == "sqlite":
		return nil
	case cfg.Database.PasswordFile != "":
		return persistence.FileCredential{Path: cfg.Database.PasswordFile}
	default:
		return persistence.StaticCredential(cfg.Database.Password)
	}
}

// poolOptions refreshes the pool only when the credential can rotate
func poolOptions(cfg *config.Config) persistence.PoolOptions {
	if cfg.Database.Driver == "sqlite" {
		return persistence.PoolOptions{MaxOpenConns: 1}
	}
	opts := persistence.PoolOptions{
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxConnections / 2,
		ConnMaxLifetime: cfg.Database.MaxLifetime,
	}
	if cfg.Database.PasswordFile != "" {
		opts.RefreshInterval = cfg.Database.RefreshInterval
	}
	return opts
}
