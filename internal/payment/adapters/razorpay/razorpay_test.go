package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invosync/invosync/internal/payment/domain"
)

func TestIssueLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment_links", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 23600, body["amount"])
		assert.Equal(t, "INR", body["currency"])

		json.NewEncoder(w).Encode(map[string]string{
			"id":        "plink_123",
			"short_url": "https://rzp.io/l/abc",
		})
	}))
	defer srv.Close()

	issuer := NewWithBaseURL(srv.URL, "key", "secret")
	link, err := issuer.IssueLink(context.Background(), domain.LinkRequest{
		InvoiceID:     "42",
		InvoiceNumber: "INV-202608-0001",
		Amount:        23600,
		Currency:      "INR",
		CustomerName:  "Acme",
		ExpireAt:      time.Now().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "plink_123", link.ID)
	assert.Equal(t, "https://rzp.io/l/abc", link.ShortURL)
}

func TestIssueLink_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	issuer := NewWithBaseURL(srv.URL, "key", "secret")
	_, err := issuer.IssueLink(context.Background(), domain.LinkRequest{Amount: 100, Currency: "INR"})
	assert.ErrorIs(t, err, domain.ErrIssuerUnavailable)
}

func TestIssueLink_Unconfigured(t *testing.T) {
	issuer := New("", "")
	_, err := issuer.IssueLink(context.Background(), domain.LinkRequest{Amount: 100})
	assert.ErrorIs(t, err, domain.ErrIssuerUnavailable)
}
