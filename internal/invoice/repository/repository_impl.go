package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/invosync/invosync/internal/invoice/domain"
	paymentdomain "github.com/invosync/invosync/internal/payment/domain"
	"github.com/invosync/invosync/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(invoice).Error; err != nil {
			return err
		}
		if len(invoice.Items) == 0 {
			return nil
		}
		return tx.Create(&invoice.Items).Error
	})
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Save(invoice).Error
}

func (r *repo) ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []domain.InvoiceItem) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.InvoiceItem{}, "invoice_id = ?", invoiceID).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).First(&invoice, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadAssociations(ctx, db, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) FindByShareToken(ctx context.Context, db *gorm.DB, token string) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).First(&invoice, "share_token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadAssociations(ctx, db, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListInvoiceFilter, page pagination.Params) ([]domain.Invoice, int64, error) {
	stmt := db.WithContext(ctx).Model(&domain.Invoice{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.ClientID != 0 {
		stmt = stmt.Where("client_id = ?", filter.ClientID)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var invoices []domain.Invoice
	err := page.Scope(stmt).
		Order("issue_date desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}
	if err := r.loadAssociationsBatch(ctx, db, invoices); err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

func (r *repo) ListSweepCandidates(ctx context.Context, db *gorm.DB, cutoff time.Time, batchSize int) ([]domain.Invoice, error) {
	stmt := db.WithContext(ctx).
		Where("status NOT IN ?", []domain.InvoiceStatus{
			domain.InvoiceStatusPaid,
			domain.InvoiceStatusCancelled,
		}).
		Where("due_date < ?", cutoff).
		Order("due_date asc, id asc")
	if batchSize > 0 {
		stmt = stmt.Limit(batchSize)
	}

	var invoices []domain.Invoice
	if err := stmt.Find(&invoices).Error; err != nil {
		return nil, err
	}
	if err := r.loadAssociationsBatch(ctx, db, invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.InvoiceItem{}, "invoice_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&paymentdomain.Payment{}, "invoice_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Invoice{}, "id = ?", id).Error
	})
}

func (r *repo) loadAssociations(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	if err := db.WithContext(ctx).
		Where("invoice_id = ?", invoice.ID).
		Order("created_at asc, id asc").
		Find(&invoice.Items).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).
		Where("invoice_id = ?", invoice.ID).
		Order("paid_at asc, id asc").
		Find(&invoice.Payments).Error
}

func (r *repo) loadAssociationsBatch(ctx context.Context, db *gorm.DB, invoices []domain.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}

	ids := make([]snowflake.ID, 0, len(invoices))
	for i := range invoices {
		ids = append(ids, invoices[i].ID)
	}

	var items []domain.InvoiceItem
	if err := db.WithContext(ctx).
		Where("invoice_id IN ?", ids).
		Order("created_at asc, id asc").
		Find(&items).Error; err != nil {
		return err
	}

	var payments []paymentdomain.Payment
	if err := db.WithContext(ctx).
		Where("invoice_id IN ?", ids).
		Order("paid_at asc, id asc").
		Find(&payments).Error; err != nil {
		return err
	}

	byInvoice := make(map[snowflake.ID]*domain.Invoice, len(invoices))
	for i := range invoices {
		byInvoice[invoices[i].ID] = &invoices[i]
	}
	for _, item := range items {
		if inv, ok := byInvoice[item.InvoiceID]; ok {
			inv.Items = append(inv.Items, item)
		}
	}
	for _, p := range payments {
		if inv, ok := byInvoice[p.InvoiceID]; ok {
			inv.Payments = append(inv.Payments, p)
		}
	}
	return nil
}
