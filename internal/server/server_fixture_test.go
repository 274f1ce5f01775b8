package server

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	backupservice "github.com/invosync/invosync/internal/backup/service"
	clientdomain "github.com/invosync/invosync/internal/client/domain"
	clientrepo "github.com/invosync/invosync/internal/client/repository"
	clientservice "github.com/invosync/invosync/internal/client/service"
	"github.com/invosync/invosync/internal/clock"
	"github.com/invosync/invosync/internal/config"
	dashboardservice "github.com/invosync/invosync/internal/dashboard/service"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/internal/invoice/engine"
	invoicerepo "github.com/invosync/invosync/internal/invoice/repository"
	"github.com/invosync/invosync/internal/invoice/render"
	invoiceservice "github.com/invosync/invosync/internal/invoice/service"
	"github.com/invosync/invosync/internal/payment/adapters"
	"github.com/invosync/invosync/internal/payment/adapters/mock"
	paymentdomain "github.com/invosync/invosync/internal/payment/domain"
	paymentrepo "github.com/invosync/invosync/internal/payment/repository"
	paymentservice "github.com/invosync/invosync/internal/payment/service"
	"github.com/invosync/invosync/internal/tax"
)

type testServer struct {
	srv     *Server
	clock   *clock.FakeClock
	clients clientdomain.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&clientdomain.Client{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&paymentdomain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	policy := config.NewStaticInvoicingHolder(config.DefaultInvoicingPolicy())
	cfg := config.Config{
		PublicBaseURL:  "https://app.invosync.test",
		PaymentGateway: "mock",
		BackupDir:      t.TempDir(),
	}

	clients := clientservice.New(clientservice.Params{
		DB:    gdb,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  clientrepo.Provide(),
	})

	eng := engine.New(engine.Params{
		Calc:   tax.NewCalculator(),
		GenID:  node,
		Clock:  fake,
		Policy: policy,
	})

	invoiceRepo := invoicerepo.Provide()

	invoices := invoiceservice.New(invoiceservice.Params{
		DB:      gdb,
		Log:     log,
		GenID:   node,
		Clock:   fake,
		Engine:  eng,
		Repo:    invoiceRepo,
		Clients: clients,
		Policy:  policy,
	})

	payments := paymentservice.New(paymentservice.Params{
		DB:       gdb,
		Log:      log,
		Clock:    fake,
		Config:   cfg,
		Policy:   policy,
		Engine:   eng,
		Repo:     paymentrepo.Provide(),
		Invoices: invoiceRepo,
		Registry: adapters.NewRegistry(mock.New(cfg.PublicBaseURL)),
	})

	dashboard := dashboardservice.New(dashboardservice.Params{
		DB:    gdb,
		Log:   log,
		Clock: fake,
	})

	backups := backupservice.New(backupservice.Params{
		DB:     gdb,
		Log:    log,
		Clock:  fake,
		Config: cfg,
	})

	srv := NewServer(ServerParams{
		Gin:          NewEngine(log, nil),
		Cfg:          cfg,
		Policy:       policy,
		ClientSvc:    clients,
		InvoiceSvc:   invoices,
		PaymentSvc:   payments,
		DashboardSvc: dashboard,
		BackupSvc:    backups,
		Renderer:     render.NewRenderer(),
	})

	return &testServer{srv: srv, clock: fake, clients: clients}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}
