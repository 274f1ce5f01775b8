package domain

import (
	"context"
	"time"

	"github.com/invosync/invosync/pkg/db/pagination"
)

// ItemInput is one line supplied by the caller. UnitPrice is in major
// units as received on the wire; the service converts to minor units
// and always recomputes the line amount.
type ItemInput struct {
	Description string  `json:"description"`
	HSNCode     string  `json:"hsn_code"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	GSTRate     int     `json:"gst_rate"`
}

type CreateInvoiceRequest struct {
	ClientID   string      `json:"client_id"`
	InterState bool        `json:"inter_state"`
	Items      []ItemInput `json:"items"`
	IssueDate  time.Time   `json:"issue_date"`
	DueDate    time.Time   `json:"due_date"`
	Notes      string      `json:"notes"`
}

// UpdateInvoiceRequest is a partial patch. Nil fields are untouched.
type UpdateInvoiceRequest struct {
	ID         string       `json:"-"`
	ClientID   *string      `json:"client_id"`
	InterState *bool        `json:"inter_state"`
	Items      *[]ItemInput `json:"items"`
	IssueDate  *time.Time   `json:"issue_date"`
	DueDate    *time.Time   `json:"due_date"`
	Notes      *string      `json:"notes"`
}

type ListInvoiceRequest struct {
	pagination.Params
	Status   string `form:"status"`
	ClientID string `form:"client_id"`
}

type ListInvoiceResponse = pagination.Page[Invoice]

// SweepResult reports one overdue sweep run.
type SweepResult struct {
	UpdatedCount      int      `json:"updated_count"`
	NotificationCount int      `json:"notification_count"`
	Errors            []string `json:"errors,omitempty"`
}

type Service interface {
	Create(context.Context, CreateInvoiceRequest) (Invoice, error)
	Update(context.Context, UpdateInvoiceRequest) (Invoice, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	GetByShareToken(ctx context.Context, token string) (Invoice, error)
	Delete(ctx context.Context, id string) error

	MarkSent(ctx context.Context, id string) (Invoice, error)
	MarkCancelled(ctx context.Context, id string) (Invoice, error)
	// AdminSetStatus is the gated override for migration tooling. It
	// recomputes the balance so the record cannot desync from the
	// ledger.
	AdminSetStatus(ctx context.Context, id string, status InvoiceStatus) (Invoice, error)

	RunOverdueSweep(ctx context.Context) (SweepResult, error)
}
