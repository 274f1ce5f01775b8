package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/invosync/invosync/internal/tax"
)

// ValidateItem checks one caller-supplied line. The index is only used
// to label the offending field.
func ValidateItem(idx int, item ItemInput) ValidationErrors {
	var errs ValidationErrors
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", idx, name) }

	if strings.TrimSpace(item.Description) == "" {
		errs = errs.Append(field("description"), "description is required")
	}
	if item.Quantity <= 0 {
		errs = errs.Append(field("quantity"), "quantity must be positive")
	}
	if item.UnitPrice < 0 {
		errs = errs.Append(field("unit_price"), "unit price must not be negative")
	}
	if !tax.RateAllowed(item.GSTRate) {
		errs = errs.Append(field("gst_rate"), fmt.Sprintf("gst rate must be one of %v", tax.AllowedRates))
	}
	return errs
}

func validateItems(items []ItemInput) ValidationErrors {
	var errs ValidationErrors
	if len(items) == 0 {
		return errs.Append("items", "at least one item is required")
	}
	for i, item := range items {
		errs = append(errs, ValidateItem(i, item)...)
	}
	return errs
}

// ValidateCreate checks a full draft before any computation runs.
func ValidateCreate(req CreateInvoiceRequest) error {
	var errs ValidationErrors

	if strings.TrimSpace(req.ClientID) == "" {
		errs = errs.Append("client_id", "client is required")
	}
	errs = append(errs, validateItems(req.Items)...)

	if req.IssueDate.IsZero() {
		errs = errs.Append("issue_date", "issue date is required")
	}
	if req.DueDate.IsZero() {
		errs = errs.Append("due_date", "due date is required")
	}
	if !req.IssueDate.IsZero() && !req.DueDate.IsZero() {
		errs = append(errs, validateDateOrder(req.IssueDate, req.DueDate)...)
	}
	return errs.OrNil()
}

// ValidateUpdate checks only the fields present in the patch. The
// current invoice supplies the counterpart date when only one of the
// two is patched.
func ValidateUpdate(current Invoice, req UpdateInvoiceRequest) error {
	var errs ValidationErrors

	if req.ClientID != nil && strings.TrimSpace(*req.ClientID) == "" {
		errs = errs.Append("client_id", "client is required")
	}
	if req.Items != nil {
		errs = append(errs, validateItems(*req.Items)...)
	}

	issue := current.IssueDate
	if req.IssueDate != nil {
		issue = *req.IssueDate
	}
	due := current.DueDate
	if req.DueDate != nil {
		due = *req.DueDate
	}
	if req.IssueDate != nil || req.DueDate != nil {
		errs = append(errs, validateDateOrder(issue, due)...)
	}
	return errs.OrNil()
}

func validateDateOrder(issue, due time.Time) ValidationErrors {
	var errs ValidationErrors
	if DateOnly(due).Before(DateOnly(issue)) {
		errs = errs.Append("due_date", "due date must not be before issue date")
	}
	return errs
}

// DateOnly truncates t to midnight UTC. Due-date comparisons ignore
// the time of day everywhere.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
