package payment

import (
	"go.uber.org/fx"

	"github.com/invosync/invosync/internal/config"
	"github.com/invosync/invosync/internal/payment/adapters"
	"github.com/invosync/invosync/internal/payment/adapters/mock"
	"github.com/invosync/invosync/internal/payment/adapters/razorpay"
	"github.com/invosync/invosync/internal/payment/repository"
	"github.com/invosync/invosync/internal/payment/service"
)

var Module = fx.Module("payment.service",
	fx.Provide(newRegistry),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

func newRegistry(cfg config.Config) *adapters.Registry {
	return adapters.NewRegistry(
		razorpay.New(cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
		mock.New(cfg.PublicBaseURL),
	)
}
