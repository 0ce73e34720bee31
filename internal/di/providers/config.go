// Package providers contains dependency injection providers for the
// AnonVerse client core.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/ManakRaj-7/AnonVerse/internal/config"
	"github.com/ManakRaj-7/AnonVerse/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	log.Info("Starting AnonVerse",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_dir", cfg.Data.Dir,
	)

	return log, nil
}
