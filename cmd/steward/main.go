package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/datasteward/steward/internal/adapter/http"
	"github.com/datasteward/steward/internal/app"
	"github.com/datasteward/steward/internal/config"
	"github.com/datasteward/steward/internal/infra/auth"
	"github.com/datasteward/steward/internal/infra/logger"
)

// Version and build information
var (
	Version   = "development"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	var (
		version = flag.Bool("version", false, "Show version information")
		migrate = flag.Bool("migrate", false, "Create the audit table in the default schema and exit")
	)
	flag.Parse()

	if *version {
		fmt.Printf("Data Steward\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := app.NewLogger(cfg, "steward")
	ctx := context.Background()

	if err := run(ctx, cfg, log, *migrate); err != nil {
		log.Error(ctx, "Data Steward stopped with error", err, nil)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger, migrate bool) error {
	log.Info(ctx, "Starting Data Steward", map[string]interface{}{
		"version":     Version,
		"environment": cfg.Server.Environment,
		"driver":      cfg.Database.Driver,
	})

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if migrate {
		if err := a.Store.EnsureAuditTable(ctx, cfg.Steward.DefaultSchema); err != nil {
			return fmt.Errorf("failed to create audit table: %w", err)
		}
		log.Info(ctx, "Audit table ready", map[string]interface{}{"schema": cfg.Steward.DefaultSchema})
		return nil
	}

	authn, err := initAuthenticator(cfg, a)
	if err != nil {
		return err
	}

	server := httpadapter.NewServer(httpadapter.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		CORSOrigins:  cfg.Security.CORSOrigins,
	}, a.Browse, a.Reconciler, authn, a.Ping, log)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info(ctx, "Shutdown signal received", map[string]interface{}{"signal": sig.String()})
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during server shutdown: %w", err)
	}

	log.Info(ctx, "Server stopped successfully", nil)
	return nil
}

// initAuthenticator builds request authentication from the security config
func initAuthenticator(cfg *config.Config, a *app.App) (*httpadapter.Authenticator, error) {
	if !cfg.Security.AuthEnabled {
		a.Log.Warn(context.Background(), "Authentication disabled, requests act as the default actor", map[string]interface{}{
			"actor": cfg.Steward.DefaultActor,
		})
		return httpadapter.NewAuthenticator(false, nil, nil, cfg.Steward.DefaultActor), nil
	}

	tokens, err := a.TokenService()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	keys, err := auth.NewAPIKeyAuthenticator(cfg.Security.APIKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to load api keys: %w", err)
	}
	return httpadapter.NewAuthenticator(true, tokens, keys, cfg.Steward.DefaultActor), nil
}
