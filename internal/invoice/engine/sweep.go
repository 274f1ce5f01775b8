package engine

import (
	"github.com/invosync/invosync/internal/invoice/domain"
)

// SweepOutcome describes what the sweep decided for one invoice.
type SweepOutcome struct {
	// Mutated is set when the invoice record changed and must be
	// persisted: the status flipped to overdue or a late fee was
	// appended.
	Mutated bool
	// FeeAdded is set when a late-fee line was appended this run.
	FeeAdded bool
	// Remind is set when the invoice is due exactly at the reminder
	// lead and a notification should be queued. Reminders never
	// mutate the invoice.
	Remind bool
}

// SweepInvoice applies the overdue rules to one invoice. Comparisons
// are date-only; the invoice is mutated in place when overdue. The
// operation is idempotent: a second run over an already-overdue
// invoice with its late fee in place reports no mutation.
func (e *Engine) SweepInvoice(inv *domain.Invoice) SweepOutcome {
	var out SweepOutcome
	if inv.Status.Terminal() {
		return out
	}

	today := domain.DateOnly(e.clock.Now())
	due := domain.DateOnly(inv.DueDate)
	policy := e.policy.Current()

	reminderDate := today.AddDate(0, 0, policy.ReminderLeadDays)
	if due.Equal(reminderDate) {
		out.Remind = true
	}

	if !due.Before(today) {
		return out
	}

	if inv.Status != domain.InvoiceStatusOverdue {
		inv.Status = domain.InvoiceStatusOverdue
		out.Mutated = true
	}

	if policy.LateFeeAmount > 0 && !inv.HasLateFee(policy.LateFeeLabel) {
		inv.Items = append(inv.Items, domain.InvoiceItem{
			ID:          e.genID.Generate(),
			InvoiceID:   inv.ID,
			Description: policy.LateFeeLabel,
			Quantity:    1,
			UnitPrice:   policy.LateFeeAmount,
			GSTRate:     0,
			Amount:      policy.LateFeeAmount,
			CreatedAt:   e.clock.Now(),
		})
		e.Recompute(inv)
		out.Mutated = true
		out.FeeAdded = true
	}

	if out.Mutated {
		inv.UpdatedAt = e.clock.Now()
	}
	return out
}
