package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	clientdomain "github.com/invosync/invosync/internal/client/domain"
	"github.com/invosync/invosync/internal/clock"
	"github.com/invosync/invosync/internal/config"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/internal/invoice/engine"
	invoicerepo "github.com/invosync/invosync/internal/invoice/repository"
	"github.com/invosync/invosync/internal/payment/adapters"
	"github.com/invosync/invosync/internal/payment/domain"
	"github.com/invosync/invosync/internal/payment/repository"
	"github.com/invosync/invosync/internal/tax"
)

type mockIssuer struct {
	mock.Mock
}

func (m *mockIssuer) Name() string { return "razorpay" }

func (m *mockIssuer) IssueLink(ctx context.Context, req domain.LinkRequest) (domain.Link, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.Link), args.Error(1)
}

type fixture struct {
	db       *gorm.DB
	clock    *clock.FakeClock
	engine   *engine.Engine
	invoices invoicedomain.Repository
	payments domain.Service
	issuer   *mockIssuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&clientdomain.Client{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
		&domain.Payment{},
	))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	policy := config.NewStaticInvoicingHolder(config.DefaultInvoicingPolicy())
	eng := engine.New(engine.Params{
		Calc:   tax.NewCalculator(),
		GenID:  node,
		Clock:  fake,
		Policy: policy,
	})

	issuer := &mockIssuer{}
	invoices := invoicerepo.Provide()

	payments := New(Params{
		DB:    gdb,
		Log:   zap.NewNop(),
		Clock: fake,
		Config: config.Config{
			PublicBaseURL:  "https://app.invosync.local",
			PaymentGateway: "razorpay",
		},
		Policy:   policy,
		Engine:   eng,
		Repo:     repository.Provide(),
		Invoices: invoices,
		Registry: adapters.NewRegistry(issuer),
	})

	return &fixture{
		db:       gdb,
		clock:    fake,
		engine:   eng,
		invoices: invoices,
		payments: payments,
		issuer:   issuer,
	}
}

func (f *fixture) seedInvoice(t *testing.T) invoicedomain.Invoice {
	t.Helper()

	inv := invoicedomain.Invoice{
		ID:         f.nextID(t),
		ClientID:   1,
		ClientName: "Acme Traders",
		Status:     invoicedomain.InvoiceStatusSent,
		IssueDate:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		DueDate:    time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
	}
	inv.Items = f.engine.BuildItems(inv.ID, []invoicedomain.ItemInput{
		{Description: "Consulting", Quantity: 2, UnitPrice: 100, GSTRate: 18},
	})
	f.engine.Recompute(&inv)
	require.NoError(t, f.engine.AssignIdentity(&inv))
	require.NoError(t, f.invoices.Insert(context.Background(), f.db, &inv))
	return inv
}

var testNode, _ = snowflake.NewNode(3)

func (f *fixture) nextID(t *testing.T) snowflake.ID {
	t.Helper()
	return testNode.Generate()
}

func TestRecordPayment(t *testing.T) {
	f := newFixture(t)
	inv := f.seedInvoice(t)

	result, err := f.payments.Record(context.Background(), domain.RecordPaymentRequest{
		InvoiceID: inv.ID.String(),
		Amount:    100,
		Mode:      domain.ModeUPI,
		Reference: "utr-001",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10000), result.Payment.Amount)
	assert.Equal(t, string(invoicedomain.InvoiceStatusPartiallyPaid), result.InvoiceStatus)
	assert.Equal(t, int64(13600), result.BalanceDue)

	result, err = f.payments.Record(context.Background(), domain.RecordPaymentRequest{
		InvoiceID: inv.ID.String(),
		Amount:    136,
		Mode:      domain.ModeCash,
	})
	require.NoError(t, err)
	assert.Equal(t, string(invoicedomain.InvoiceStatusPaid), result.InvoiceStatus)
	assert.Equal(t, int64(0), result.BalanceDue)

	entries, err := f.payments.ListByInvoice(context.Background(), inv.ID.String())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRecordPayment_InvalidMode(t *testing.T) {
	f := newFixture(t)
	inv := f.seedInvoice(t)

	_, err := f.payments.Record(context.Background(), domain.RecordPaymentRequest{
		InvoiceID: inv.ID.String(),
		Amount:    100,
		Mode:      domain.ModeSimulated,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestRecordPayment_NonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	inv := f.seedInvoice(t)

	_, err := f.payments.Record(context.Background(), domain.RecordPaymentRequest{
		InvoiceID: inv.ID.String(),
		Amount:    0,
		Mode:      domain.ModeCash,
	})
	var verrs invoicedomain.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	// Nothing was persisted.
	entries, err := f.payments.ListByInvoice(context.Background(), inv.ID.String())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordPayment_CancelledInvoice(t *testing.T) {
	f := newFixture(t)
	inv := f.seedInvoice(t)
	require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).
		Where("id = ?", inv.ID).
		Update("status", invoicedomain.InvoiceStatusCancelled).Error)

	_, err := f.payments.Record(context.Background(), domain.RecordPaymentRequest{
		InvoiceID: inv.ID.String(),
		Amount:    100,
		Mode:      domain.ModeCash,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrTerminalStatus)
}

func TestSimulatePayment(t *testing.T) {
	f := newFixture(t)
	inv := f.seedInvoice(t)

	result, err := f.payments.Simulate(context.Background(), inv.ID.String())
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, domain.ModeSimulated, result.Payment.Mode)
	assert.Equal(t, int64(23600), result.Payment.Amount)
	assert.Equal(t, string(invoicedomain.InvoiceStatusPaid), result.InvoiceStatus)

	// Second simulation is a no-op.
	result, err = f.payments.Simulate(context.Background(), inv.ID.String())
	require.NoError(t, err)
	assert.False(t, result.Applied)

	entries, err := f.payments.ListByInvoice(context.Background(), inv.ID.String())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIssueLink_Gateway(t *testing.T) {
	f := newFixture(t)
	inv := f.seedInvoice(t)

	f.issuer.On("IssueLink", mock.Anything, mock.MatchedBy(func(req domain.LinkRequest) bool {
		return req.Amount == 23600 && req.Currency == "INR" && req.InvoiceNumber == inv.InvoiceNumber
	})).Return(domain.Link{ID: "plink_1", ShortURL: "https://rzp.io/l/xyz"}, nil)

	url, err := f.payments.IssueLink(context.Background(), inv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "https://rzp.io/l/xyz", url)

	stored, err := f.invoices.FindByID(context.Background(), f.db, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://rzp.io/l/xyz", stored.PaymentLink)
	assert.Equal(t, "plink_1", stored.PaymentLinkID)
	f.issuer.AssertExpectations(t)
}

func TestIssueLink_FallbackOnGatewayFailure(t *testing.T) {
	f := newFixture(t)
	inv := f.seedInvoice(t)

	f.issuer.On("IssueLink", mock.Anything, mock.Anything).
		Return(domain.Link{}, errors.New("gateway down"))

	url, err := f.payments.IssueLink(context.Background(), inv.ID.String())
	require.NoError(t, err)
	assert.Contains(t, url, "https://app.invosync.local/pay/"+inv.ID.String())
}

func TestIssueLink_UnknownInvoice(t *testing.T) {
	f := newFixture(t)

	_, err := f.payments.IssueLink(context.Background(), testNode.Generate().String())
	assert.ErrorIs(t, err, invoicedomain.ErrNotFound)
}
