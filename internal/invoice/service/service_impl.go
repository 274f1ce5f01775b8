package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	clientdomain "github.com/invosync/invosync/internal/client/domain"
	"github.com/invosync/invosync/internal/clock"
	"github.com/invosync/invosync/internal/config"
	"github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/internal/invoice/engine"
	"github.com/invosync/invosync/pkg/db"
	"github.com/invosync/invosync/pkg/db/pagination"
	"github.com/invosync/invosync/pkg/telemetry"
)

// numberRetries bounds regeneration attempts when the random invoice
// number suffix collides.
const numberRetries = 5

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Engine  *engine.Engine
	Repo    domain.Repository
	Clients clientdomain.Service
	Policy  *config.InvoicingHolder
	Metrics *telemetry.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	engine  *engine.Engine
	repo    domain.Repository
	clients clientdomain.Service
	policy  *config.InvoicingHolder
	metrics *telemetry.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("invoice.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		engine:  p.Engine,
		repo:    p.Repo,
		clients: p.Clients,
		policy:  p.Policy,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateInvoiceRequest) (domain.Invoice, error) {
	if err := domain.ValidateCreate(req); err != nil {
		return domain.Invoice{}, err
	}

	client, err := s.lookupClient(ctx, req.ClientID)
	if err != nil {
		return domain.Invoice{}, err
	}

	now := s.clock.Now()
	invoice := domain.Invoice{
		ID:         s.genID.Generate(),
		ClientID:   client.ID,
		ClientName: client.Name,
		InterState: req.InterState,
		Status:     domain.InvoiceStatusDraft,
		IssueDate:  req.IssueDate.UTC(),
		DueDate:    req.DueDate.UTC(),
		Notes:      strings.TrimSpace(req.Notes),
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	invoice.Items = s.engine.BuildItems(invoice.ID, req.Items)
	s.engine.Recompute(&invoice)

	if err := s.insertWithNumberRetry(ctx, &invoice); err != nil {
		return domain.Invoice{}, err
	}

	s.metrics.ObserveInvoiceCreated(string(invoice.Status))
	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
	)
	return invoice, nil
}

// insertWithNumberRetry regenerates the number when the random suffix
// collides with an existing invoice in the same month.
func (s *Service) insertWithNumberRetry(ctx context.Context, invoice *domain.Invoice) error {
	for attempt := 0; attempt < numberRetries; attempt++ {
		if err := s.engine.AssignIdentity(invoice); err != nil {
			return err
		}
		err := s.repo.Insert(ctx, s.db, invoice)
		if err == nil {
			return nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		s.log.Warn("invoice number collision, regenerating",
			zap.String("invoice_number", invoice.InvoiceNumber),
		)
	}
	return domain.ErrDuplicateNumber
}

func (s *Service) Update(ctx context.Context, req domain.UpdateInvoiceRequest) (domain.Invoice, error) {
	invoice, err := s.load(ctx, req.ID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice.Status == domain.InvoiceStatusCancelled {
		return domain.Invoice{}, domain.ErrTerminalStatus
	}
	if err := domain.ValidateUpdate(*invoice, req); err != nil {
		return domain.Invoice{}, err
	}

	if req.ClientID != nil {
		client, err := s.lookupClient(ctx, *req.ClientID)
		if err != nil {
			return domain.Invoice{}, err
		}
		invoice.ClientID = client.ID
		invoice.ClientName = client.Name
	}
	if req.InterState != nil {
		invoice.InterState = *req.InterState
	}
	if req.IssueDate != nil {
		invoice.IssueDate = req.IssueDate.UTC()
	}
	if req.DueDate != nil {
		invoice.DueDate = req.DueDate.UTC()
	}
	if req.Notes != nil {
		invoice.Notes = strings.TrimSpace(*req.Notes)
	}

	itemsPatched := req.Items != nil
	if itemsPatched {
		invoice.Items = s.engine.BuildItems(invoice.ID, *req.Items)
	}
	s.engine.Recompute(invoice)

	// Legacy rows created before public sharing get their token here.
	if _, err := s.engine.EnsureShareToken(invoice); err != nil {
		return domain.Invoice{}, err
	}
	invoice.UpdatedAt = s.clock.Now()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if itemsPatched {
			if err := s.repo.ReplaceItems(ctx, tx, invoice.ID, invoice.Items); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, tx, invoice)
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return *invoice, nil
}

func (s *Service) List(ctx context.Context, req domain.ListInvoiceRequest) (domain.ListInvoiceResponse, error) {
	filter := domain.ListInvoiceFilter{}
	if status := strings.TrimSpace(req.Status); status != "" {
		st := domain.InvoiceStatus(status)
		if !st.Valid() {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidStatus
		}
		filter.Status = st
	}
	if raw := strings.TrimSpace(req.ClientID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListInvoiceResponse{}, domain.ErrInvalidID
		}
		filter.ClientID = id
	}

	invoices, total, err := s.repo.List(ctx, s.db, filter, req.Params)
	if err != nil {
		return domain.ListInvoiceResponse{}, err
	}
	return pagination.NewPage(invoices, total, req.Params), nil
}

func (s *Service) GetByID(ctx context.Context, rawID string) (domain.Invoice, error) {
	invoice, err := s.load(ctx, rawID)
	if err != nil {
		return domain.Invoice{}, err
	}
	return *invoice, nil
}

func (s *Service) GetByShareToken(ctx context.Context, token string) (domain.Invoice, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Invoice{}, domain.ErrShareTokenUnknown
	}
	invoice, err := s.repo.FindByShareToken(ctx, s.db, token)
	if err != nil {
		return domain.Invoice{}, err
	}
	if invoice == nil {
		return domain.Invoice{}, domain.ErrShareTokenUnknown
	}
	return *invoice, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	invoice, err := s.load(ctx, rawID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, s.db, invoice.ID)
}

func (s *Service) MarkSent(ctx context.Context, rawID string) (domain.Invoice, error) {
	return s.transition(ctx, rawID, s.engine.MarkSent)
}

func (s *Service) MarkCancelled(ctx context.Context, rawID string) (domain.Invoice, error) {
	return s.transition(ctx, rawID, s.engine.MarkCancelled)
}

func (s *Service) AdminSetStatus(ctx context.Context, rawID string, status domain.InvoiceStatus) (domain.Invoice, error) {
	invoice, err := s.load(ctx, rawID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if err := s.engine.AdminSetStatus(invoice, status); err != nil {
		return domain.Invoice{}, err
	}
	if err := s.repo.Update(ctx, s.db, invoice); err != nil {
		return domain.Invoice{}, err
	}
	s.log.Warn("administrative status override",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("status", string(status)),
	)
	return *invoice, nil
}

func (s *Service) transition(ctx context.Context, rawID string, apply func(*domain.Invoice) error) (domain.Invoice, error) {
	invoice, err := s.load(ctx, rawID)
	if err != nil {
		return domain.Invoice{}, err
	}
	if err := apply(invoice); err != nil {
		return domain.Invoice{}, err
	}
	if err := s.repo.Update(ctx, s.db, invoice); err != nil {
		return domain.Invoice{}, err
	}
	return *invoice, nil
}

// RunOverdueSweep processes every due-relevant invoice once.
// Per-invoice persistence failures are collected, not fatal: one bad
// row must not stall the rest of the batch.
func (s *Service) RunOverdueSweep(ctx context.Context) (domain.SweepResult, error) {
	policy := s.policy.Current()
	today := domain.DateOnly(s.clock.Now())
	// Window covers past-due rows plus those inside the reminder lead.
	cutoff := today.AddDate(0, 0, policy.ReminderLeadDays+1)

	candidates, err := s.repo.ListSweepCandidates(ctx, s.db, cutoff, 0)
	if err != nil {
		return domain.SweepResult{}, err
	}

	var result domain.SweepResult
	feesAdded := 0
	for i := range candidates {
		invoice := &candidates[i]
		outcome := s.engine.SweepInvoice(invoice)
		if outcome.Remind {
			result.NotificationCount++
		}
		if !outcome.Mutated {
			continue
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if outcome.FeeAdded {
				if err := s.repo.ReplaceItems(ctx, tx, invoice.ID, invoice.Items); err != nil {
					return err
				}
			}
			return s.repo.Update(ctx, tx, invoice)
		})
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("invoice %s: %v", invoice.ID, err))
			continue
		}
		result.UpdatedCount++
		if outcome.FeeAdded {
			feesAdded++
		}
	}

	s.metrics.ObserveSweep(result.UpdatedCount, feesAdded, result.NotificationCount)
	s.log.Info("overdue sweep finished",
		zap.Int("updated", result.UpdatedCount),
		zap.Int("notifications", result.NotificationCount),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *Service) load(ctx context.Context, rawID string) (*domain.Invoice, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidID
	}
	invoice, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, domain.ErrNotFound
	}
	return invoice, nil
}

func (s *Service) lookupClient(ctx context.Context, rawID string) (clientdomain.Client, error) {
	client, err := s.clients.GetByID(ctx, rawID)
	if err != nil {
		if errors.Is(err, clientdomain.ErrNotFound) || errors.Is(err, clientdomain.ErrInvalidID) {
			return clientdomain.Client{}, domain.ErrClientNotFound
		}
		return clientdomain.Client{}, err
	}
	return client, nil
}
