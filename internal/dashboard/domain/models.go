// Package domain contains the reporting reducers. Both reducers are
// pure: the same invoice snapshot always yields the same output.
package domain

import (
	"context"
	"time"

	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
)

// Stats summarizes an invoice snapshot. Amounts are minor units.
type Stats struct {
	CountsByStatus map[invoicedomain.InvoiceStatus]int `json:"counts_by_status"`
	TotalAmount    int64                               `json:"total_amount"`
	PaidAmount     int64                               `json:"paid_amount"`
	PendingAmount  int64                               `json:"pending_amount"`
}

// MonthRevenue is one bucket of the revenue series.
type MonthRevenue struct {
	Month   string `json:"month"` // YYYY-MM
	Revenue int64  `json:"revenue"`
}

type Service interface {
	Summary(ctx context.Context) (Stats, error)
	MonthlyRevenue(ctx context.Context, monthsBack int) ([]MonthRevenue, error)
}

// Summarize reduces an invoice snapshot to per-status counts and
// aggregate amounts. Pending excludes paid and cancelled invoices.
func Summarize(invoices []invoicedomain.Invoice) Stats {
	stats := Stats{CountsByStatus: make(map[invoicedomain.InvoiceStatus]int)}
	for _, inv := range invoices {
		stats.CountsByStatus[inv.Status]++
		stats.TotalAmount += inv.TotalAmount
		switch inv.Status {
		case invoicedomain.InvoiceStatusPaid:
			stats.PaidAmount += inv.TotalAmount
		case invoicedomain.InvoiceStatusCancelled:
			// Excluded from pending.
		default:
			stats.PendingAmount += inv.TotalAmount
		}
	}
	return stats
}

// MonthlyRevenueSeries buckets paid invoices by issue month into a
// fixed window of monthsBack entries ending at the month of now.
// Months without paid activity are zero-filled.
func MonthlyRevenueSeries(invoices []invoicedomain.Invoice, monthsBack int, now time.Time) []MonthRevenue {
	if monthsBack <= 0 {
		monthsBack = 12
	}

	now = now.UTC()
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	series := make([]MonthRevenue, monthsBack)
	index := make(map[string]int, monthsBack)
	for i := 0; i < monthsBack; i++ {
		month := end.AddDate(0, i-monthsBack+1, 0)
		key := month.Format("2006-01")
		series[i] = MonthRevenue{Month: key}
		index[key] = i
	}

	for _, inv := range invoices {
		if inv.Status != invoicedomain.InvoiceStatusPaid {
			continue
		}
		key := inv.IssueDate.UTC().Format("2006-01")
		if i, ok := index[key]; ok {
			series[i].Revenue += inv.TotalAmount
		}
	}
	return series
}
