package main

import (
	"fmt"

	"github.com/datasteward/steward/internal/app"
	"github.com/datasteward/steward/internal/config"
	"github.com/datasteward/steward/internal/infra/logger"
)

// withApp loads configuration, wires the application and closes it after fn
func withApp(fn func(a *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(cfg, logger.Discard())
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer a.Close()

	return fn(a)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// schemaOf returns the --schema flag or the configured default
func schemaOf(a *app.App) string {
	if globalSchema != "" {
		return globalSchema
	}
	return a.Config.Steward.DefaultSchema
}
