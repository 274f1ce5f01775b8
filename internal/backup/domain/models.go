// Package domain describes the data-export snapshots and the local
// backup files they are stored in.
package domain

import (
	"time"

	clientdomain "github.com/invosync/invosync/internal/client/domain"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
)

// SnapshotVersion tags the export format written to backup files.
const SnapshotVersion = "1.0.0"

// Snapshot is the full data export: every client and every invoice
// with its items and payments, in raw minor-unit form so a restore is
// lossless.
type Snapshot struct {
	Clients    []clientdomain.Client   `json:"clients"`
	Invoices   []invoicedomain.Invoice `json:"invoices"`
	ExportedAt time.Time               `json:"exported_at"`
	Version    string                  `json:"version"`
}

// RecordCount summarises how many rows a snapshot carries.
type RecordCount struct {
	Clients  int `json:"clients"`
	Invoices int `json:"invoices"`
}

// Metadata describes one backup file on disk.
type Metadata struct {
	Filename    string      `json:"filename"`
	Timestamp   time.Time   `json:"timestamp"`
	RecordCount RecordCount `json:"record_count"`
}

// RestoreResult reports how many records a restore wrote back.
type RestoreResult struct {
	Clients  int `json:"clients"`
	Invoices int `json:"invoices"`
}
