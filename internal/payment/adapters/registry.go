// Package adapters holds the payment-link gateway implementations and
// the registry the service resolves them from.
package adapters

import (
	"strings"

	"github.com/invosync/invosync/internal/payment/domain"
)

// Registry maps gateway names to their link issuers.
type Registry struct {
	issuers map[string]domain.LinkIssuer
}

func NewRegistry(issuers ...domain.LinkIssuer) *Registry {
	registry := &Registry{issuers: map[string]domain.LinkIssuer{}}
	for _, issuer := range issuers {
		if issuer == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(issuer.Name()))
		if name == "" {
			continue
		}
		registry.issuers[name] = issuer
	}
	return registry
}

// Resolve returns the issuer registered under name.
func (r *Registry) Resolve(name string) (domain.LinkIssuer, bool) {
	if r == nil {
		return nil, false
	}
	issuer, ok := r.issuers[strings.ToLower(strings.TrimSpace(name))]
	return issuer, ok
}
