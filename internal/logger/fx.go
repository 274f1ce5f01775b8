package logger

import (
	"context"
	"os"

	"github.com/invosync/invosync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewFromConfig creates a zap logger for the application and replaces globals.
func NewFromConfig(appCfg config.Config) (*zap.Logger, error) {
	level := os.Getenv("LOG_LEVEL")
	if level == "" && appCfg.Environment == "development" {
		level = "debug"
	}
	return New(Options{Level: level, Service: appCfg.AppName})
}

func registerHooks(lc fx.Lifecycle, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			_ = log.Sync()
			return nil
		},
	})
}

// Module wires the global zap logger for the application.
var Module = fx.Module("logger",
	fx.Provide(
		NewFromConfig,
	),
	fx.Invoke(registerHooks),
)
