// Package engine holds the financial core of invoicing: it recomputes
// amounts, drives status transitions and applies ledger entries. It
// never touches storage; the service layer loads and persists the
// aggregates it transforms.
package engine

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/invosync/invosync/internal/clock"
	"github.com/invosync/invosync/internal/config"
	"github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/internal/invoice/format"
	"github.com/invosync/invosync/internal/money"
	paymentdomain "github.com/invosync/invosync/internal/payment/domain"
	"github.com/invosync/invosync/internal/tax"
)

type Params struct {
	fx.In

	Calc   *tax.Calculator
	GenID  *snowflake.Node
	Clock  clock.Clock
	Policy *config.InvoicingHolder
}

// Engine applies the invoicing rules to in-memory aggregates.
type Engine struct {
	calc   *tax.Calculator
	genID  *snowflake.Node
	clock  clock.Clock
	policy *config.InvoicingHolder
}

func New(p Params) *Engine {
	return &Engine{
		calc:   p.Calc,
		genID:  p.GenID,
		clock:  p.Clock,
		policy: p.Policy,
	}
}

// Module wires the engine.
var Module = fx.Module("invoice.engine",
	fx.Provide(New),
)

// BuildItems converts caller input into persisted lines. Unit prices
// arrive in major units; amounts are always recomputed.
func (e *Engine) BuildItems(invoiceID snowflake.ID, inputs []domain.ItemInput) []domain.InvoiceItem {
	now := e.clock.Now()
	items := make([]domain.InvoiceItem, 0, len(inputs))
	for _, in := range inputs {
		unitPrice := money.FromMajor(in.UnitPrice)
		items = append(items, domain.InvoiceItem{
			ID:          e.genID.Generate(),
			InvoiceID:   invoiceID,
			Description: in.Description,
			HSNCode:     strings.TrimSpace(in.HSNCode),
			Quantity:    in.Quantity,
			UnitPrice:   unitPrice,
			GSTRate:     in.GSTRate,
			Amount:      e.calc.ItemAmount(in.Quantity, unitPrice),
			CreatedAt:   now,
		})
	}
	return items
}

// Recompute rederives every financial field from the item set and the
// payment ledger. Safe to call after any mutation.
func (e *Engine) Recompute(inv *domain.Invoice) {
	lines := make([]tax.Line, 0, len(inv.Items))
	for i := range inv.Items {
		item := &inv.Items[i]
		item.Amount = e.calc.ItemAmount(item.Quantity, item.UnitPrice)
		lines = append(lines, tax.Line{
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Rate:      item.GSTRate,
		})
	}

	inv.SubtotalAmount = e.calc.Subtotal(lines)
	bd := e.calc.ComputeBreakdown(lines, inv.InterState)
	inv.GST = domain.GSTBreakdown{CGST: bd.CGST, SGST: bd.SGST, IGST: bd.IGST, Total: bd.Total}
	inv.TotalAmount = e.calc.Total(inv.SubtotalAmount, bd.Total)
	inv.BalanceDue = inv.TotalAmount - inv.AmountPaid()
}

// AssignIdentity stamps a new draft with its generated number and
// share token.
func (e *Engine) AssignIdentity(inv *domain.Invoice) error {
	number, err := format.FormatInvoiceNumber(e.policy.Current().InvoiceNumPrefix, inv.IssueDate)
	if err != nil {
		return err
	}
	token, err := format.GenerateShareToken()
	if err != nil {
		return err
	}
	inv.InvoiceNumber = number
	inv.ShareToken = token
	return nil
}

// EnsureShareToken back-fills a missing token on legacy rows. An
// existing token is never replaced.
func (e *Engine) EnsureShareToken(inv *domain.Invoice) (changed bool, err error) {
	if inv.ShareToken != "" {
		return false, nil
	}
	token, err := format.GenerateShareToken()
	if err != nil {
		return false, err
	}
	inv.ShareToken = token
	return true, nil
}

// MarkSent moves the invoice to sent. Allowed from any non-cancelled
// state.
func (e *Engine) MarkSent(inv *domain.Invoice) error {
	if inv.Status == domain.InvoiceStatusCancelled {
		return domain.ErrTerminalStatus
	}
	inv.Status = domain.InvoiceStatusSent
	inv.UpdatedAt = e.clock.Now()
	return nil
}

// MarkCancelled moves the invoice to cancelled. Cancelling twice is
// rejected.
func (e *Engine) MarkCancelled(inv *domain.Invoice) error {
	if inv.Status == domain.InvoiceStatusCancelled {
		return domain.ErrTerminalStatus
	}
	inv.Status = domain.InvoiceStatusCancelled
	inv.UpdatedAt = e.clock.Now()
	return nil
}

// AdminSetStatus is the administrative override. It accepts any valid
// status but recomputes the balance so the record stays consistent
// with the ledger.
func (e *Engine) AdminSetStatus(inv *domain.Invoice, status domain.InvoiceStatus) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}
	inv.Status = status
	e.Recompute(inv)
	inv.UpdatedAt = e.clock.Now()
	return nil
}

// ApplyPayment appends a completed ledger entry and rederives balance
// and status. A zero paidAt defaults to the current time. Past entries
// are never edited or removed.
func (e *Engine) ApplyPayment(inv *domain.Invoice, amount int64, mode, reference, notes string, paidAt time.Time) (paymentdomain.Payment, error) {
	if inv.Status == domain.InvoiceStatusCancelled {
		return paymentdomain.Payment{}, domain.ErrTerminalStatus
	}
	if amount <= 0 {
		return paymentdomain.Payment{}, domain.ValidationErrors{
			{Field: "amount", Message: "payment amount must be positive"},
		}
	}

	now := e.clock.Now()
	if paidAt.IsZero() {
		paidAt = now
	}
	entry := paymentdomain.Payment{
		ID:        e.genID.Generate(),
		InvoiceID: inv.ID,
		Amount:    amount,
		Mode:      mode,
		Status:    paymentdomain.PaymentStatusCompleted,
		Reference: reference,
		Notes:     notes,
		PaidAt:    paidAt.UTC(),
		CreatedAt: now,
	}
	inv.Payments = append(inv.Payments, entry)

	inv.BalanceDue = inv.TotalAmount - inv.AmountPaid()
	switch {
	case inv.BalanceDue <= 0:
		inv.Status = domain.InvoiceStatusPaid
	case inv.AmountPaid() > 0:
		inv.Status = domain.InvoiceStatusPartiallyPaid
	}
	inv.UpdatedAt = now

	return entry, nil
}

// SimulatePayment settles the outstanding balance with the synthetic
// gateway mode. Paid invoices are left untouched.
func (e *Engine) SimulatePayment(inv *domain.Invoice) (paymentdomain.Payment, bool, error) {
	if inv.Status == domain.InvoiceStatusPaid {
		return paymentdomain.Payment{}, false, nil
	}
	amount := inv.BalanceDue
	if amount <= 0 {
		amount = inv.TotalAmount
	}
	entry, err := e.ApplyPayment(inv, amount, paymentdomain.ModeSimulated, "", "", time.Time{})
	if err != nil {
		return paymentdomain.Payment{}, false, err
	}
	return entry, true, nil
}
