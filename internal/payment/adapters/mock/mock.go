// Package mock provides a deterministic link issuer for development
// and tests.
package mock

import (
	"context"
	"fmt"

	"github.com/invosync/invosync/internal/payment/domain"
)

type Issuer struct {
	baseURL string
}

func New(baseURL string) *Issuer {
	return &Issuer{baseURL: baseURL}
}

func (i *Issuer) Name() string { return "mock" }

func (i *Issuer) IssueLink(_ context.Context, req domain.LinkRequest) (domain.Link, error) {
	return domain.Link{
		ID:       "mock_" + req.InvoiceID,
		ShortURL: fmt.Sprintf("%s/pay/mock/%s", i.baseURL, req.InvoiceID),
	}, nil
}
