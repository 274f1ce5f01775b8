package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/invosync/invosync/internal/clock"
	"github.com/invosync/invosync/internal/config"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/internal/invoice/engine"
	"github.com/invosync/invosync/internal/money"
	"github.com/invosync/invosync/internal/payment/adapters"
	"github.com/invosync/invosync/internal/payment/domain"
	"github.com/invosync/invosync/internal/payment/repository"
	"github.com/invosync/invosync/pkg/telemetry"
)

// issueTimeout bounds the gateway call; beyond it the service falls
// back to a placeholder link.
const issueTimeout = 5 * time.Second

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Config   config.Config
	Policy   *config.InvoicingHolder
	Engine   *engine.Engine
	Repo     repository.Repository
	Invoices invoicedomain.Repository
	Registry *adapters.Registry
	Metrics  *telemetry.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	cfg      config.Config
	policy   *config.InvoicingHolder
	engine   *engine.Engine
	repo     repository.Repository
	invoices invoicedomain.Repository
	registry *adapters.Registry
	metrics  *telemetry.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		clock:    p.Clock,
		cfg:      p.Config,
		policy:   p.Policy,
		engine:   p.Engine,
		repo:     p.Repo,
		invoices: p.Invoices,
		registry: p.Registry,
		metrics:  p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordPaymentRequest) (domain.ApplyResult, error) {
	mode := strings.TrimSpace(req.Mode)
	if !domain.ManualModeAllowed(mode) {
		return domain.ApplyResult{}, domain.ErrInvalidMode
	}

	var paidAt time.Time
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}

	return s.apply(ctx, req.InvoiceID, func(inv *invoicedomain.Invoice) (domain.Payment, bool, error) {
		entry, err := s.engine.ApplyPayment(inv, money.FromMajor(req.Amount), mode,
			strings.TrimSpace(req.Reference), strings.TrimSpace(req.Notes), paidAt)
		return entry, err == nil, err
	})
}

func (s *Service) Simulate(ctx context.Context, invoiceID string) (domain.SimulateResult, error) {
	var applied bool
	result, err := s.apply(ctx, invoiceID, func(inv *invoicedomain.Invoice) (domain.Payment, bool, error) {
		entry, ok, err := s.engine.SimulatePayment(inv)
		applied = ok
		return entry, ok, err
	})
	if err != nil {
		return domain.SimulateResult{}, err
	}
	return domain.SimulateResult{ApplyResult: result, Applied: applied}, nil
}

// apply loads the invoice, runs the ledger mutation and persists both
// records in one transaction. The entry write and status update either
// both land or neither does.
func (s *Service) apply(ctx context.Context, rawID string, mutate func(*invoicedomain.Invoice) (domain.Payment, bool, error)) (domain.ApplyResult, error) {
	id, err := parseInvoiceID(rawID)
	if err != nil {
		return domain.ApplyResult{}, err
	}

	var result domain.ApplyResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoices.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrNotFound
		}

		entry, persisted, err := mutate(invoice)
		if err != nil {
			return err
		}
		if persisted {
			if err := s.repo.Insert(ctx, tx, &entry); err != nil {
				return err
			}
			if err := s.invoices.Update(ctx, tx, invoice); err != nil {
				return err
			}
		}

		result = domain.ApplyResult{
			Payment:       entry,
			InvoiceStatus: string(invoice.Status),
			BalanceDue:    invoice.BalanceDue,
			TotalAmount:   invoice.TotalAmount,
		}
		return nil
	})
	if err != nil {
		return domain.ApplyResult{}, err
	}

	if result.Payment.ID != 0 {
		s.metrics.ObservePayment(result.Payment.Mode)
		s.log.Info("payment applied",
			zap.String("invoice_id", rawID),
			zap.Int64("amount", result.Payment.Amount),
			zap.String("mode", result.Payment.Mode),
		)
	}
	return result, nil
}

func (s *Service) IssueLink(ctx context.Context, rawID string) (string, error) {
	id, err := parseInvoiceID(rawID)
	if err != nil {
		return "", err
	}

	invoice, err := s.invoices.FindByID(ctx, s.db, id)
	if err != nil {
		return "", err
	}
	if invoice == nil {
		return "", invoicedomain.ErrNotFound
	}
	if invoice.Status == invoicedomain.InvoiceStatusCancelled {
		return "", invoicedomain.ErrTerminalStatus
	}

	amount := invoice.BalanceDue
	if amount <= 0 {
		amount = invoice.TotalAmount
	}
	policy := s.policy.Current()

	link := s.issueWithFallback(ctx, *invoice, amount, policy)

	invoice.PaymentLink = link.ShortURL
	invoice.PaymentLinkID = link.ID
	invoice.UpdatedAt = s.clock.Now()
	if err := s.invoices.Update(ctx, s.db, invoice); err != nil {
		return "", err
	}
	return link.ShortURL, nil
}

// issueWithFallback asks the configured gateway for a hosted link and
// degrades to a placeholder URL on any failure. Callers always get a
// usable link.
func (s *Service) issueWithFallback(ctx context.Context, invoice invoicedomain.Invoice, amount int64, policy config.InvoicingPolicy) domain.Link {
	req := domain.LinkRequest{
		InvoiceID:     invoice.ID.String(),
		InvoiceNumber: invoice.InvoiceNumber,
		Amount:        amount,
		Currency:      policy.Currency,
		CustomerName:  invoice.ClientName,
		Description:   fmt.Sprintf("Payment for %s", invoice.InvoiceNumber),
		ExpireAt:      s.clock.Now().AddDate(0, 0, policy.PaymentLinkExpiry),
		CallbackURL:   fmt.Sprintf("%s/public/invoices/%s", s.cfg.PublicBaseURL, invoice.ShareToken),
	}

	issuerName := s.cfg.PaymentGateway
	if issuer, ok := s.registry.Resolve(issuerName); ok {
		issueCtx, cancel := context.WithTimeout(ctx, issueTimeout)
		defer cancel()

		link, err := issuer.IssueLink(issueCtx, req)
		if err == nil {
			return link
		}
		s.log.Warn("payment link issuer failed, using placeholder",
			zap.String("issuer", issuerName),
			zap.Error(err),
		)
	}

	return s.placeholderLink(invoice.ID)
}

func (s *Service) placeholderLink(id snowflake.ID) domain.Link {
	ref := ulid.MustNew(ulid.Timestamp(s.clock.Now()), rand.Reader)
	return domain.Link{
		ID:       "local_" + ref.String(),
		ShortURL: fmt.Sprintf("%s/pay/%s?ref=%s", s.cfg.PublicBaseURL, id, ref),
	}
}

func (s *Service) ListByInvoice(ctx context.Context, rawID string) ([]domain.Payment, error) {
	id, err := parseInvoiceID(rawID)
	if err != nil {
		return nil, err
	}

	invoice, err := s.invoices.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrNotFound
	}
	return s.repo.ListByInvoice(ctx, s.db, id)
}

func parseInvoiceID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}
