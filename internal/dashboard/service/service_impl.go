package service

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/invosync/invosync/internal/clock"
	"github.com/invosync/invosync/internal/dashboard/domain"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/pkg/repository"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	log   *zap.Logger
	clock clock.Clock
	store repository.Repository[invoicedomain.Invoice]
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("dashboard.service"),
		clock: p.Clock,
		store: repository.New[invoicedomain.Invoice](p.DB),
	}
}

func (s *Service) Summary(ctx context.Context) (domain.Stats, error) {
	invoices, err := s.store.Find(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.Summarize(invoices), nil
}

func (s *Service) MonthlyRevenue(ctx context.Context, monthsBack int) ([]domain.MonthRevenue, error) {
	invoices, err := s.store.Find(ctx,
		repository.Where("status = ?", invoicedomain.InvoiceStatusPaid),
	)
	if err != nil {
		return nil, err
	}
	return domain.MonthlyRevenueSeries(invoices, monthsBack, s.clock.Now()), nil
}
