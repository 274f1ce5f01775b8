// Package render produces the read-only HTML view served on the
// public share link.
package render

import (
	"github.com/invosync/invosync/internal/config"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
)

// RenderInput is the view model handed to the template. All amounts
// are minor units; the template formats them via formatMoney.
type RenderInput struct {
	Invoice  invoicedomain.Invoice
	Currency string
	Payable  bool
}

type Renderer interface {
	RenderHTML(input RenderInput) (string, error)
}

// NewRenderInput prepares the view model for one invoice.
func NewRenderInput(inv invoicedomain.Invoice, policy config.InvoicingPolicy) RenderInput {
	return RenderInput{
		Invoice:  inv,
		Currency: policy.Currency,
		Payable:  inv.PaymentLink != "" && !inv.Status.Terminal(),
	}
}
