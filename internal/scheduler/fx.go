package scheduler

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/invosync/invosync/internal/clock"
	appconfig "github.com/invosync/invosync/internal/config"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/pkg/telemetry"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	InvoiceSvc invoicedomain.Service
	Config     Config             `optional:"true"`
	Locker     *Locker            `optional:"true"`
	Metrics    *telemetry.Metrics `optional:"true"`
}

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(provideRedis),
	fx.Provide(NewLocker),
	fx.Provide(New),
	fx.Invoke(Start),
)

func provideRedis(cfg appconfig.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	log.Info("redis leader locking enabled", zap.String("addr", cfg.RedisAddr))
	return redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
}

// Start runs the loop for the lifetime of the process.
func Start(lc fx.Lifecycle, sched *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go sched.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
