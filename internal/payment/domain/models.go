// Package domain contains the payment ledger entries recorded against
// invoices, and the payment-link contract implemented by gateway
// adapters.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Modes accepted for manual payment entry. The simulated mode is
// reserved for gateway simulation and rejected on manual input.
const (
	ModeUPI          = "UPI"
	ModeBankTransfer = "Bank Transfer"
	ModeCash         = "Cash"
	ModeCard         = "Card"
	ModeOnline       = "Online"
	ModeSimulated    = "Razorpay (Simulated)"
)

// ManualModes lists the modes a caller may record by hand.
var ManualModes = []string{ModeUPI, ModeBankTransfer, ModeCash, ModeCard, ModeOnline}

// ManualModeAllowed reports whether mode is accepted for manual entry.
func ManualModeAllowed(mode string) bool {
	for _, m := range ManualModes {
		if m == mode {
			return true
		}
	}
	return false
}

// PaymentStatus marks whether a ledger entry has settled.
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
)

// Payment is one ledger entry against an invoice. Amounts are stored
// in minor units (paise). Entries are immutable once created.
type Payment struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID      `gorm:"not null;index" json:"invoice_id"`
	Amount    int64             `gorm:"not null" json:"amount"`
	Mode      string            `gorm:"type:text;not null" json:"mode"`
	Status    PaymentStatus     `gorm:"type:text;not null;default:'completed'" json:"status"`
	Reference string            `gorm:"type:text" json:"reference,omitempty"`
	Notes     string            `gorm:"type:text" json:"notes,omitempty"`
	PaidAt    time.Time         `gorm:"not null" json:"paid_at"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
