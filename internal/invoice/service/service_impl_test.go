package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	clientdomain "github.com/invosync/invosync/internal/client/domain"
	clientrepo "github.com/invosync/invosync/internal/client/repository"
	clientservice "github.com/invosync/invosync/internal/client/service"
	"github.com/invosync/invosync/internal/clock"
	"github.com/invosync/invosync/internal/config"
	"github.com/invosync/invosync/internal/invoice/domain"
	"github.com/invosync/invosync/internal/invoice/engine"
	invoicerepo "github.com/invosync/invosync/internal/invoice/repository"
	paymentdomain "github.com/invosync/invosync/internal/payment/domain"
	"github.com/invosync/invosync/internal/tax"
)

type fixture struct {
	db       *gorm.DB
	clock    *clock.FakeClock
	invoices domain.Service
	clients  clientdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&clientdomain.Client{},
		&domain.Invoice{},
		&domain.InvoiceItem{},
		&paymentdomain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	policy := config.NewStaticInvoicingHolder(config.DefaultInvoicingPolicy())

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

	invoices := New(Params{
		DB:      gdb,
		Log:     log,
		GenID:   node,
		Clock:   fake,
		Engine:  eng,
		Repo:    invoicerepo.Provide(),
		Clients: clients,
		Policy:  policy,
	})

	return &fixture{db: gdb, clock: fake, invoices: invoices, clients: clients}
}

func (f *fixture) createClient(t *testing.T) clientdomain.Client {
	t.Helper()
	client, err := f.clients.Create(context.Background(), clientdomain.CreateClientRequest{
		Name:  "Acme Traders",
		Email: "billing@acme.example",
	})
	require.NoError(t, err)
	return client
}

func (f *fixture) createInvoice(t *testing.T, clientID string) domain.Invoice {
	t.Helper()
	inv, err := f.invoices.Create(context.Background(), domain.CreateInvoiceRequest{
		ClientID:  clientID,
		IssueDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		Items: []domain.ItemInput{
			{Description: "Consulting", Quantity: 2, UnitPrice: 100, GSTRate: 18},
		},
	})
	require.NoError(t, err)
	return inv
}

func TestCreateInvoice(t *testing.T) {
	f := newFixture(t)
	client := f.createClient(t)

	inv := f.createInvoice(t, client.ID.String())

	assert.Equal(t, domain.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, client.ID, inv.ClientID)
	assert.Equal(t, "Acme Traders", inv.ClientName)
	assert.Regexp(t, `^INV-202608-\d{4}$`, inv.InvoiceNumber)
	assert.Len(t, inv.ShareToken, 32)
	assert.Equal(t, int64(23600), inv.TotalAmount)
	assert.Equal(t, int64(23600), inv.BalanceDue)

	// Round-trips with items loaded.
	loaded, err := f.invoices.GetByID(context.Background(), inv.ID.String())
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, int64(20000), loaded.Items[0].Amount)
}

func TestCreateInvoice_UnknownClient(t *testing.T) {
	f := newFixture(t)

	_, err := f.invoices.Create(context.Background(), domain.CreateInvoiceRequest{
		ClientID:  "99999999999",
		IssueDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		Items: []domain.ItemInput{
			{Description: "Consulting", Quantity: 1, UnitPrice: 100, GSTRate: 18},
		},
	})
	assert.ErrorIs(t, err, domain.ErrClientNotFound)
}

func TestCreateInvoice_ValidationFailure(t *testing.T) {
	f := newFixture(t)

	_, err := f.invoices.Create(context.Background(), domain.CreateInvoiceRequest{})
	var verrs domain.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestUpdateInvoice_ItemsAndDates(t *testing.T) {
	f := newFixture(t)
	client := f.createClient(t)
	inv := f.createInvoice(t, client.ID.String())

	newItems := []domain.ItemInput{
		{Description: "Consulting", Quantity: 2, UnitPrice: 100, GSTRate: 18},
		{Description: "Hosting", Quantity: 1, UnitPrice: 50, GSTRate: 18},
	}
	due := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

	updated, err := f.invoices.Update(context.Background(), domain.UpdateInvoiceRequest{
		ID:      inv.ID.String(),
		Items:   &newItems,
		DueDate: &due,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(25000), updated.SubtotalAmount)
	assert.Equal(t, int64(4500), updated.GST.Total)
	assert.Equal(t, int64(29500), updated.TotalAmount)
	assert.Equal(t, due, updated.DueDate)
	// The share token survives edits.
	assert.Equal(t, inv.ShareToken, updated.ShareToken)

	loaded, err := f.invoices.GetByID(context.Background(), inv.ID.String())
	require.NoError(t, err)
	assert.Len(t, loaded.Items, 2)
}

func TestUpdateInvoice_CancelledRejected(t *testing.T) {
	f := newFixture(t)
	client := f.createClient(t)
	inv := f.createInvoice(t, client.ID.String())

	_, err := f.invoices.MarkCancelled(context.Background(), inv.ID.String())
	require.NoError(t, err)

	notes := "late notes"
	_, err = f.invoices.Update(context.Background(), domain.UpdateInvoiceRequest{
		ID:    inv.ID.String(),
		Notes: &notes,
	})
	assert.ErrorIs(t, err, domain.ErrTerminalStatus)
}

func TestUpdateInvoice_BackfillsShareToken(t *testing.T) {
	f := newFixture(t)
	client := f.createClient(t)
	inv := f.createInvoice(t, client.ID.String())

	// Simulate a legacy row without a token.
	require.NoError(t, f.db.Model(&domain.Invoice{}).
		Where("id = ?", inv.ID).
		Update("share_token", "legacy-"+inv.ID.String()).Error)
	require.NoError(t, f.db.Model(&domain.Invoice{}).
		Where("id = ?", inv.ID).
		Update("share_token", "").Error)

	notes := "touched"
	updated, err := f.invoices.Update(context.Background(), domain.UpdateInvoiceRequest{
		ID:    inv.ID.String(),
		Notes: &notes,
	})
	require.NoError(t, err)
	assert.Len(t, updated.ShareToken, 32)
}

func TestGetByShareToken(t *testing.T) {
	f := newFixture(t)
	client := f.createClient(t)
	inv := f.createInvoice(t, client.ID.String())

	found, err := f.invoices.GetByShareToken(context.Background(), inv.ShareToken)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, found.ID)

	_, err = f.invoices.GetByShareToken(context.Background(), "deadbeef")
	assert.ErrorIs(t, err, domain.ErrShareTokenUnknown)
}

func TestListInvoices_StatusFilter(t *testing.T) {
	f := newFixture(t)
	client := f.createClient(t)
	first := f.createInvoice(t, client.ID.String())
	f.createInvoice(t, client.ID.String())

	_, err := f.invoices.MarkSent(context.Background(), first.ID.String())
	require.NoError(t, err)

	page, err := f.invoices.List(context.Background(), domain.ListInvoiceRequest{Status: "sent"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, first.ID, page.Items[0].ID)

	_, err = f.invoices.List(context.Background(), domain.ListInvoiceRequest{Status: "bogus"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestAdminSetStatus_Persisted(t *testing.T) {
	f := newFixture(t)
	client := f.createClient(t)
	inv := f.createInvoice(t, client.ID.String())

	updated, err := f.invoices.AdminSetStatus(context.Background(), inv.ID.String(), domain.InvoiceStatusSent)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusSent, updated.Status)
	assert.Equal(t, inv.TotalAmount, updated.BalanceDue)
}

func TestDeleteInvoice(t *testing.T) {
	f := newFixture(t)
	client := f.createClient(t)
	inv := f.createInvoice(t, client.ID.String())

	require.NoError(t, f.invoices.Delete(context.Background(), inv.ID.String()))

	_, err := f.invoices.GetByID(context.Background(), inv.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var itemCount int64
	require.NoError(t, f.db.Model(&domain.InvoiceItem{}).
		Where("invoice_id = ?", inv.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)
}

func TestRunOverdueSweep(t *testing.T) {
	f := newFixture(t)
	client := f.createClient(t)

	overdueInv := f.createInvoice(t, client.ID.String())
	_, err := f.invoices.MarkSent(context.Background(), overdueInv.ID.String())
	require.NoError(t, err)

	// Due tomorrow relative to the advanced clock below.
	reminderDue := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)
	reminderInv, err := f.invoices.Create(context.Background(), domain.CreateInvoiceRequest{
		ClientID:  client.ID.String(),
		IssueDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   reminderDue,
		Items: []domain.ItemInput{
			{Description: "Retainer", Quantity: 1, UnitPrice: 500, GSTRate: 18},
		},
	})
	require.NoError(t, err)

	f.clock.SetNow(time.Date(2026, 8, 16, 6, 0, 0, 0, time.UTC))

	result, err := f.invoices.RunOverdueSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.UpdatedCount)
	assert.Equal(t, 1, result.NotificationCount)
	assert.Empty(t, result.Errors)

	swept, err := f.invoices.GetByID(context.Background(), overdueInv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusOverdue, swept.Status)
	require.Len(t, swept.Items, 2)
	assert.Equal(t, "Late Fee", swept.Items[1].Description)
	assert.Equal(t, int64(73600), swept.TotalAmount)

	untouched, err := f.invoices.GetByID(context.Background(), reminderInv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusDraft, untouched.Status)

	// Second run adds nothing.
	again, err := f.invoices.RunOverdueSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, again.UpdatedCount)
	assert.Equal(t, 1, again.NotificationCount)

	swept2, err := f.invoices.GetByID(context.Background(), overdueInv.ID.String())
	require.NoError(t, err)
	assert.Equal(t, swept.TotalAmount, swept2.TotalAmount)
	assert.Len(t, swept2.Items, 2)
}
