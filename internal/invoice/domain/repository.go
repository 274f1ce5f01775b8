package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/invosync/invosync/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListInvoiceFilter struct {
	Status   InvoiceStatus
	ClientID snowflake.ID
}

// Repository persists the invoice aggregate. Save methods replace the
// item set wholesale; payments are append-only and written by the
// payment feature.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	Update(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	ReplaceItems(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID, items []InvoiceItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByShareToken(ctx context.Context, db *gorm.DB, token string) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListInvoiceFilter, page pagination.Params) ([]Invoice, int64, error)
	// ListSweepCandidates returns non-terminal invoices whose due date
	// falls before the cutoff, with items and payments loaded. The
	// engine applies the exact date-only rules.
	ListSweepCandidates(ctx context.Context, db *gorm.DB, cutoff time.Time, batchSize int) ([]Invoice, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
