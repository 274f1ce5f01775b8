// Package domain contains the invoice aggregate: persistence models,
// lifecycle statuses and the GST breakdown carried on every invoice.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	paymentdomain "github.com/invosync/invosync/internal/payment/domain"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusSent          InvoiceStatus = "sent"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"
)

// AllStatuses lists every valid lifecycle state.
var AllStatuses = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusSent,
	InvoiceStatusPaid,
	InvoiceStatusPartiallyPaid,
	InvoiceStatusOverdue,
	InvoiceStatusCancelled,
}

// Valid reports whether s is a known lifecycle state.
func (s InvoiceStatus) Valid() bool {
	for _, st := range AllStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Terminal reports whether the sweep and payment paths must leave the
// invoice alone.
func (s InvoiceStatus) Terminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// GSTBreakdown carries the tax split stored alongside each invoice.
// Intra-state invoices populate CGST and SGST, inter-state ones IGST.
type GSTBreakdown struct {
	CGST  int64 `gorm:"column:gst_cgst;not null;default:0" json:"cgst"`
	SGST  int64 `gorm:"column:gst_sgst;not null;default:0" json:"sgst"`
	IGST  int64 `gorm:"column:gst_igst;not null;default:0" json:"igst"`
	Total int64 `gorm:"column:gst_total;not null;default:0" json:"total"`
}

// Invoice is the aggregate root. All monetary fields are in minor
// units (paise). Items and Payments are loaded explicitly by the
// repository, not through gorm associations.
type Invoice struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	InvoiceNumber string        `gorm:"not null;uniqueIndex" json:"invoice_number"`
	ClientID      snowflake.ID  `gorm:"not null;index" json:"client_id"`
	ClientName    string        `gorm:"not null" json:"client_name"`
	InterState    bool          `gorm:"not null;default:false" json:"inter_state"`
	Status        InvoiceStatus `gorm:"type:text;not null;default:'draft';index" json:"status"`

	SubtotalAmount int64        `gorm:"not null;default:0" json:"subtotal_amount"`
	GST            GSTBreakdown `gorm:"embedded" json:"gst"`
	TotalAmount    int64        `gorm:"not null;default:0" json:"total_amount"`
	BalanceDue     int64        `gorm:"not null;default:0" json:"balance_due"`

	IssueDate time.Time `gorm:"not null;index" json:"issue_date"`
	DueDate   time.Time `gorm:"not null;index" json:"due_date"`
	Notes     string    `gorm:"type:text" json:"notes,omitempty"`

	ShareToken    string `gorm:"not null;uniqueIndex" json:"share_token"`
	PaymentLink   string `gorm:"type:text" json:"payment_link,omitempty"`
	PaymentLinkID string `gorm:"type:text" json:"payment_link_id,omitempty"`

	Items    []InvoiceItem            `gorm:"-" json:"items"`
	Payments []paymentdomain.Payment  `gorm:"-" json:"payments"`
	Metadata datatypes.JSONMap        `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// AmountPaid sums the loaded payment entries.
func (inv Invoice) AmountPaid() int64 {
	var paid int64
	for _, p := range inv.Payments {
		paid += p.Amount
	}
	return paid
}

// HasLateFee reports whether a late fee line is already present.
func (inv Invoice) HasLateFee(label string) bool {
	for _, item := range inv.Items {
		if item.Description == label {
			return true
		}
	}
	return false
}

// InvoiceItem is a line on an invoice. UnitPrice and Amount are minor
// units; GSTRate is a whole percentage.
type InvoiceItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceID   snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	Description string       `gorm:"type:text;not null" json:"description"`
	HSNCode     string       `gorm:"column:hsn_code;type:text" json:"hsn_code,omitempty"`
	Quantity    float64      `gorm:"not null" json:"quantity"`
	UnitPrice   int64        `gorm:"not null" json:"unit_price"`
	GSTRate     int          `gorm:"not null;default:0" json:"gst_rate"`
	Amount      int64        `gorm:"not null" json:"amount"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }
