package server

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientdomain "github.com/invosync/invosync/internal/client/domain"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
)

func createTestClient(t *testing.T, ts *testServer) clientdomain.Client {
	t.Helper()
	client, err := ts.clients.Create(context.Background(), clientdomain.CreateClientRequest{
		Name:  "Acme Traders",
		Email: "billing@acme.example",
	})
	require.NoError(t, err)
	return client
}

func createTestInvoice(t *testing.T, ts *testServer, clientID string) invoiceResponse {
	t.Helper()

	rec := ts.do(t, http.MethodPost, "/v1/invoices", payload{
		"client_id": clientID,
		"items": []payload{
			{"description": "Consulting", "quantity": 10, "unit_price": 2000, "gst_rate": 18},
		},
		"issue_date": "2026-08-01T00:00:00Z",
		"due_date":   "2026-08-15T00:00:00Z",
	})
	mustStatus(t, rec, http.StatusCreated)

	var inv invoiceResponse
	decodeData(t, rec, &inv)
	return inv
}

type payload = map[string]any

func TestCreateInvoiceComputesGST(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)

	inv := createTestInvoice(t, ts, client.ID.String())

	assert.Equal(t, "draft", inv.Status)
	assert.True(t, strings.HasPrefix(inv.InvoiceNumber, "INV-202608-"))
	assert.Equal(t, 20000.0, inv.Subtotal)
	assert.Equal(t, 1800.0, inv.GST.CGST)
	assert.Equal(t, 1800.0, inv.GST.SGST)
	assert.Equal(t, 0.0, inv.GST.IGST)
	assert.Equal(t, 23600.0, inv.TotalAmount)
	assert.Equal(t, 23600.0, inv.BalanceDue)
	assert.Contains(t, inv.ShareURL, "/public/invoices/")
}

func TestCreateInvoiceInterState(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)

	rec := ts.do(t, http.MethodPost, "/v1/invoices", payload{
		"client_id":   client.ID.String(),
		"inter_state": true,
		"items": []payload{
			{"description": "Consulting", "quantity": 10, "unit_price": 2000, "gst_rate": 18},
		},
		"issue_date": "2026-08-01T00:00:00Z",
		"due_date":   "2026-08-15T00:00:00Z",
	})
	mustStatus(t, rec, http.StatusCreated)

	var inv invoiceResponse
	decodeData(t, rec, &inv)
	assert.Equal(t, 3600.0, inv.GST.IGST)
	assert.Equal(t, 0.0, inv.GST.CGST)
}

func TestCreateInvoiceValidation(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)

	rec := ts.do(t, http.MethodPost, "/v1/invoices", payload{
		"client_id":  client.ID.String(),
		"items":      []payload{},
		"issue_date": "2026-08-01T00:00:00Z",
		"due_date":   "2026-08-15T00:00:00Z",
	})

	mustStatus(t, rec, http.StatusBadRequest)
	assert.Contains(t, rec.Body.String(), "validation_error")
	assert.Contains(t, rec.Body.String(), "items")
}

func TestCreateInvoiceUnknownClient(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/invoices", payload{
		"client_id": "123456789",
		"items": []payload{
			{"description": "Consulting", "quantity": 1, "unit_price": 100, "gst_rate": 18},
		},
		"issue_date": "2026-08-01T00:00:00Z",
		"due_date":   "2026-08-15T00:00:00Z",
	})

	mustStatus(t, rec, http.StatusNotFound)
}

func TestInvoiceLifecycleWithPayments(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)
	inv := createTestInvoice(t, ts, client.ID.String())

	rec := ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/send", nil)
	mustStatus(t, rec, http.StatusOK)
	var sent invoiceResponse
	decodeData(t, rec, &sent)
	assert.Equal(t, "sent", sent.Status)

	rec = ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/payments", payload{
		"amount": 10000,
		"mode":   "UPI",
	})
	mustStatus(t, rec, http.StatusCreated)
	var partial applyResultResponse
	decodeData(t, rec, &partial)
	assert.Equal(t, "partially_paid", partial.InvoiceStatus)
	assert.Equal(t, 13600.0, partial.BalanceDue)

	rec = ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/payments", payload{
		"amount": 13600,
		"mode":   "Bank Transfer",
	})
	mustStatus(t, rec, http.StatusCreated)
	var paid applyResultResponse
	decodeData(t, rec, &paid)
	assert.Equal(t, "paid", paid.InvoiceStatus)
	assert.Equal(t, 0.0, paid.BalanceDue)

	rec = ts.do(t, http.MethodGet, "/v1/invoices/"+inv.ID, nil)
	mustStatus(t, rec, http.StatusOK)
	var fetched invoiceResponse
	decodeData(t, rec, &fetched)
	assert.Equal(t, 23600.0, fetched.AmountPaid)
	assert.Len(t, fetched.Payments, 2)

	rec = ts.do(t, http.MethodGet, "/v1/invoices/"+inv.ID+"/payments", nil)
	mustStatus(t, rec, http.StatusOK)
}

func TestRecordPaymentRejectsUnknownMode(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)
	inv := createTestInvoice(t, ts, client.ID.String())

	rec := ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/payments", payload{
		"amount": 100,
		"mode":   "Razorpay (Simulated)",
	})

	mustStatus(t, rec, http.StatusBadRequest)
}

func TestPaymentOnCancelledInvoiceConflicts(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)
	inv := createTestInvoice(t, ts, client.ID.String())

	rec := ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/cancel", nil)
	mustStatus(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/payments", payload{
		"amount": 100,
		"mode":   "Cash",
	})
	mustStatus(t, rec, http.StatusConflict)
}

func TestSimulatePayment(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)
	inv := createTestInvoice(t, ts, client.ID.String())

	rec := ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/simulate-payment", nil)
	mustStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), `"applied":true`)
	assert.Contains(t, rec.Body.String(), "paid")

	rec = ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/simulate-payment", nil)
	mustStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), `"applied":false`)
}

func TestCreatePaymentLink(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)
	inv := createTestInvoice(t, ts, client.ID.String())

	rec := ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/payment-link", nil)
	mustStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "/pay/mock/")
}

func TestSetInvoiceStatus(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)
	inv := createTestInvoice(t, ts, client.ID.String())

	rec := ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/status", payload{"status": "overdue"})
	mustStatus(t, rec, http.StatusOK)
	var updated invoiceResponse
	decodeData(t, rec, &updated)
	assert.Equal(t, "overdue", updated.Status)

	rec = ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/status", payload{"status": "bogus"})
	mustStatus(t, rec, http.StatusBadRequest)
}

func TestListInvoicesFiltersByStatus(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)
	createTestInvoice(t, ts, client.ID.String())
	inv := createTestInvoice(t, ts, client.ID.String())

	rec := ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/send", nil)
	mustStatus(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodGet, "/v1/invoices?status=sent", nil)
	mustStatus(t, rec, http.StatusOK)

	var page struct {
		Items []invoiceResponse `json:"items"`
		Total int64             `json:"total"`
	}
	decodeData(t, rec, &page)
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "sent", page.Items[0].Status)
}

func TestDeleteInvoice(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)
	inv := createTestInvoice(t, ts, client.ID.String())

	rec := ts.do(t, http.MethodDelete, "/v1/invoices/"+inv.ID, nil)
	mustStatus(t, rec, http.StatusNoContent)

	rec = ts.do(t, http.MethodGet, "/v1/invoices/"+inv.ID, nil)
	mustStatus(t, rec, http.StatusNotFound)
}

func TestPublicInvoice(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)
	inv := createTestInvoice(t, ts, client.ID.String())

	token := inv.ShareURL[strings.LastIndex(inv.ShareURL, "/")+1:]

	rec := ts.do(t, http.MethodGet, "/public/invoices/"+token, nil)
	mustStatus(t, rec, http.StatusOK)
	var public invoiceResponse
	decodeData(t, rec, &public)
	assert.Empty(t, public.ID)
	assert.Empty(t, public.ClientID)
	assert.Equal(t, inv.InvoiceNumber, public.InvoiceNumber)

	rec = ts.do(t, http.MethodGet, "/public/invoices/deadbeef", nil)
	mustStatus(t, rec, http.StatusNotFound)
}

func TestPublicInvoiceView(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)
	inv := createTestInvoice(t, ts, client.ID.String())

	token := inv.ShareURL[strings.LastIndex(inv.ShareURL, "/")+1:]

	rec := ts.do(t, http.MethodGet, "/public/invoices/"+token+"/view", nil)
	mustStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), inv.InvoiceNumber)
	assert.Contains(t, rec.Body.String(), "CGST")
}

func TestDashboardSummary(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)
	inv := createTestInvoice(t, ts, client.ID.String())

	rec := ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/simulate-payment", nil)
	mustStatus(t, rec, http.StatusOK)
	createTestInvoice(t, ts, client.ID.String())

	rec = ts.do(t, http.MethodGet, "/v1/stats/summary", nil)
	mustStatus(t, rec, http.StatusOK)

	var stats statsResponse
	decodeData(t, rec, &stats)
	assert.Equal(t, 1, stats.CountsByStatus[invoicedomain.InvoiceStatusPaid])
	assert.Equal(t, 1, stats.CountsByStatus[invoicedomain.InvoiceStatusDraft])
	assert.Equal(t, 47200.0, stats.TotalAmount)
	assert.Equal(t, 23600.0, stats.PaidAmount)
	assert.Equal(t, 23600.0, stats.PendingAmount)
}

func TestMonthlyRevenue(t *testing.T) {
	ts := newTestServer(t)
	client := createTestClient(t, ts)
	inv := createTestInvoice(t, ts, client.ID.String())

	rec := ts.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/simulate-payment", nil)
	mustStatus(t, rec, http.StatusOK)

	rec = ts.do(t, http.MethodGet, "/v1/stats/monthly-revenue?months=3", nil)
	mustStatus(t, rec, http.StatusOK)

	var series []monthRevenueResponse
	decodeData(t, rec, &series)
	require.Len(t, series, 3)
	assert.Equal(t, "2026-08", series[2].Month)
	assert.Equal(t, 23600.0, series[2].Revenue)

	rec = ts.do(t, http.MethodGet, "/v1/stats/monthly-revenue?months=0", nil)
	mustStatus(t, rec, http.StatusBadRequest)
}

