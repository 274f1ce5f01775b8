package domain

import (
	"context"
	"errors"
	"time"
)

// LinkRequest describes the payment link to create for an invoice.
type LinkRequest struct {
	InvoiceID     string
	InvoiceNumber string
	Amount        int64
	Currency      string
	CustomerName  string
	CustomerEmail string
	Description   string
	ExpireAt      time.Time
	CallbackURL   string
}

// Link is the issued payment link.
type Link struct {
	ID       string
	ShortURL string
}

// LinkIssuer creates hosted payment links. Implementations live in the
// adapters package.
type LinkIssuer interface {
	Name() string
	IssueLink(ctx context.Context, req LinkRequest) (Link, error)
}

var (
	ErrInvalidMode       = errors.New("invalid_payment_mode")
	ErrIssuerUnavailable = errors.New("payment_link_unavailable")
)
