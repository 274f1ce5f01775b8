package domain

import (
	"context"
	"time"
)

// RecordPaymentRequest captures a manual payment entry. Amount is in
// major units as received on the wire.
type RecordPaymentRequest struct {
	InvoiceID string     `json:"-"`
	Amount    float64    `json:"amount"`
	Mode      string     `json:"mode"`
	Reference string     `json:"reference"`
	Notes     string     `json:"notes"`
	PaidAt    *time.Time `json:"paid_at"`
}

// ApplyResult reports the ledger entry together with the invoice
// fields it changed. The full invoice stays with the invoice feature;
// returning a slim result avoids a dependency cycle between the two
// domains.
type ApplyResult struct {
	Payment       Payment `json:"payment"`
	InvoiceStatus string  `json:"invoice_status"`
	BalanceDue    int64   `json:"balance_due"`
	TotalAmount   int64   `json:"total_amount"`
}

// SimulateResult additionally reports whether a payment was applied;
// simulating an already-paid invoice is a no-op.
type SimulateResult struct {
	ApplyResult
	Applied bool `json:"applied"`
}

type Service interface {
	Record(context.Context, RecordPaymentRequest) (ApplyResult, error)
	Simulate(ctx context.Context, invoiceID string) (SimulateResult, error)
	// IssueLink obtains a hosted checkout URL for the outstanding
	// balance. Gateway failures degrade to a locally generated
	// placeholder link, never to an error.
	IssueLink(ctx context.Context, invoiceID string) (string, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]Payment, error)
}
