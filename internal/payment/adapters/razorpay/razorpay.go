// Package razorpay issues hosted payment links through the Razorpay
// Payment Links REST API.
package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/invosync/invosync/internal/payment/domain"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

type Issuer struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

func New(keyID, keySecret string) *Issuer {
	return &Issuer{
		baseURL:   defaultBaseURL,
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWithBaseURL is used by tests to point at a stub server.
func NewWithBaseURL(baseURL, keyID, keySecret string) *Issuer {
	issuer := New(keyID, keySecret)
	issuer.baseURL = baseURL
	return issuer
}

func (i *Issuer) Name() string { return "razorpay" }

// Configured reports whether API credentials are present.
func (i *Issuer) Configured() bool {
	return i.keyID != "" && i.keySecret != ""
}

type linkRequest struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Customer    linkCustomer      `json:"customer"`
	ExpireBy    int64             `json:"expire_by,omitempty"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Notes       map[string]string `json:"notes,omitempty"`
}

type linkCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type linkResponse struct {
	ID       string `json:"id"`
	ShortURL string `json:"short_url"`
}

func (i *Issuer) IssueLink(ctx context.Context, req domain.LinkRequest) (domain.Link, error) {
	if !i.Configured() {
		return domain.Link{}, domain.ErrIssuerUnavailable
	}

	body := linkRequest{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
		Customer: linkCustomer{
			Name:  req.CustomerName,
			Email: req.CustomerEmail,
		},
		CallbackURL: req.CallbackURL,
		Notes: map[string]string{
			"invoice_id":     req.InvoiceID,
			"invoice_number": req.InvoiceNumber,
		},
	}
	if !req.ExpireAt.IsZero() {
		body.ExpireBy = req.ExpireAt.Unix()
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return domain.Link{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/payment_links", bytes.NewReader(payload))
	if err != nil {
		return domain.Link{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(i.keyID, i.keySecret)

	resp, err := i.client.Do(httpReq)
	if err != nil {
		return domain.Link{}, fmt.Errorf("razorpay request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Link{}, fmt.Errorf("razorpay status %d: %w", resp.StatusCode, domain.ErrIssuerUnavailable)
	}

	var decoded linkResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Link{}, fmt.Errorf("razorpay response: %w", err)
	}
	if decoded.ShortURL == "" {
		return domain.Link{}, domain.ErrIssuerUnavailable
	}

	return domain.Link{ID: decoded.ID, ShortURL: decoded.ShortURL}, nil
}
