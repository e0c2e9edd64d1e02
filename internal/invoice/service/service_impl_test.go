package service_test

import (
	"context"
	"testing"
	"time"

	auditdomain "github.com/brightfold/portal/internal/audit/domain"
	auditrepo "github.com/brightfold/portal/internal/audit/repository"
	auditservice "github.com/brightfold/portal/internal/audit/service"
	catalogdomain "github.com/brightfold/portal/internal/catalog/domain"
	catalogrepo "github.com/brightfold/portal/internal/catalog/repository"
	clientdomain "github.com/brightfold/portal/internal/client/domain"
	clientrepo "github.com/brightfold/portal/internal/client/repository"
	invoicedomain "github.com/brightfold/portal/internal/invoice/domain"
	invoicerepo "github.com/brightfold/portal/internal/invoice/repository"
	invoiceservice "github.com/brightfold/portal/internal/invoice/service"
	paymentdomain "github.com/brightfold/portal/internal/payment/domain"
	paymentrepo "github.com/brightfold/portal/internal/payment/repository"
	"github.com/brightfold/portal/internal/sequence"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&clientdomain.Client{},
		&catalogdomain.Service{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
		&paymentdomain.Payment{},
		&auditdomain.AuditLog{},
	))

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS number_sequences (
		scope TEXT NOT NULL,
		year INT NOT NULL,
		last_value BIGINT NOT NULL DEFAULT 0,
		PRIMARY KEY (scope, year)
	)`).Error)

	return db
}

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	svc      invoicedomain.Service
	auditSvc auditdomain.Service
	client   *clientdomain.Client
	catalog  *catalogdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})

	svc := invoiceservice.NewService(invoiceservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Seq:         sequence.NewGenerator(sequence.Params{Log: zap.NewNop()}),
		AuditSvc:    auditSvc,
		Repo:        invoicerepo.Provide(),
		ClientRepo:  clientrepo.Provide(),
		CatalogRepo: catalogrepo.Provide(),
		PaymentRepo: paymentrepo.Provide(),
	})

	now := time.Now().UTC()
	client := &clientdomain.Client{
		ID:        node.Generate(),
		ClientID:  "CL-2026-00001",
		Name:      "Acme Studios",
		Currency:  "INR",
		Status:    clientdomain.ClientStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(client).Error)

	entry := &catalogdomain.Service{
		ID:        node.Generate(),
		SKU:       "design-retainer",
		Name:      "Design Retainer",
		Price:     decimal.RequireFromString("1000"),
		TaxRate:   decimal.RequireFromString("18"),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, db.Create(entry).Error)

	return &fixture{db: db, node: node, svc: svc, auditSvc: auditSvc, client: client, catalog: entry}
}

func dec(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func TestCreateInvoiceComputesTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice, err := f.svc.Create(ctx, "staff-1", invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Lines: []invoicedomain.CreateLineRequest{
			{Description: "Design work", Quantity: 2, UnitPrice: dec("500"), TaxRate: dec("18")},
			{Description: "Hosting", Quantity: 1, UnitPrice: dec("1000"), TaxRate: dec("0")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-"+time.Now().UTC().Format("2006")+"-00001", invoice.InvoiceNumber)
	assert.Equal(t, invoicedomain.InvoiceStatusPending, invoice.Status)
	assert.Equal(t, "INR", invoice.Currency)
	assert.True(t, invoice.Subtotal.Equal(decimal.RequireFromString("2000")))
	assert.True(t, invoice.TaxAmount.Equal(decimal.RequireFromString("180")))
	assert.True(t, invoice.TotalAmount.Equal(decimal.RequireFromString("2180")))
	assert.Len(t, invoice.Lines, 2)

	var count int64
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).Where("action = ?", "invoice.created").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateInvoiceNumbersAreSequential(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lines := []invoicedomain.CreateLineRequest{
		{Description: "Work", Quantity: 1, UnitPrice: dec("100")},
	}

	first, err := f.svc.Create(ctx, "staff-1", invoicedomain.CreateInvoiceRequest{ClientID: f.client.ID, Lines: lines})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, "staff-1", invoicedomain.CreateInvoiceRequest{ClientID: f.client.ID, Lines: lines})
	require.NoError(t, err)

	year := time.Now().UTC().Format("2006")
	assert.Equal(t, "INV-"+year+"-00001", first.InvoiceNumber)
	assert.Equal(t, "INV-"+year+"-00002", second.InvoiceNumber)
}

func TestCreateInvoiceCopiesCatalogPricing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice, err := f.svc.Create(ctx, "staff-1", invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Lines: []invoicedomain.CreateLineRequest{
			{ServiceID: &f.catalog.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	require.Len(t, invoice.Lines, 1)
	line := invoice.Lines[0]
	assert.Equal(t, "Design Retainer", line.Description)
	assert.True(t, line.UnitPrice.Equal(decimal.RequireFromString("1000")))
	assert.True(t, line.TaxRate.Equal(decimal.RequireFromString("18")))
	assert.True(t, line.LineTotal.Equal(decimal.RequireFromString("3000")))

	// Later catalog edits must not leak into the issued invoice.
	require.NoError(t, f.db.Model(&catalogdomain.Service{}).
		Where("id = ?", f.catalog.ID).
		Update("price", decimal.RequireFromString("9999")).Error)

	detail, err := f.svc.GetByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.True(t, detail.Lines[0].UnitPrice.Equal(decimal.RequireFromString("1000")))
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "staff-1", invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrEmptyLines)

	_, err = f.svc.Create(ctx, "staff-1", invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Lines: []invoicedomain.CreateLineRequest{
			{Description: "Work", Quantity: 0, UnitPrice: dec("100")},
		},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidQuantity)

	_, err = f.svc.Create(ctx, "staff-1", invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Lines: []invoicedomain.CreateLineRequest{
			{Description: "", Quantity: 1, UnitPrice: dec("100")},
		},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrDescriptionRequired)

	_, err = f.svc.Create(ctx, "staff-1", invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Lines: []invoicedomain.CreateLineRequest{
			{Description: "Work", Quantity: 1, UnitPrice: dec("-1")},
		},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidUnitPrice)

	_, err = f.svc.Create(ctx, "staff-1", invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Lines: []invoicedomain.CreateLineRequest{
			{Description: "Work", Quantity: 1, UnitPrice: dec("100"), TaxRate: dec("101")},
		},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTaxRate)

	_, err = f.svc.Create(ctx, "staff-1", invoicedomain.CreateInvoiceRequest{
		ClientID: f.node.Generate(),
		Lines: []invoicedomain.CreateLineRequest{
			{Description: "Work", Quantity: 1, UnitPrice: dec("100")},
		},
	})
	assert.ErrorIs(t, err, clientdomain.ErrNotFound)
}

func TestUpdateInvoiceGuardsSettlementStates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice, err := f.svc.Create(ctx, "staff-1", invoicedomain.CreateInvoiceRequest{
		ClientID: f.client.ID,
		Lines: []invoicedomain.CreateLineRequest{
			{Description: "Work", Quantity: 1, UnitPrice: dec("100")},
		},
	})
	require.NoError(t, err)

	paid := invoicedomain.InvoiceStatusPaid
	_, err = f.svc.Update(ctx, "staff-1", invoicedomain.UpdateInvoiceRequest{ID: invoice.ID, Status: &paid})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidStatus)

	overdue := invoicedomain.InvoiceStatusOverdue
	updated, err := f.svc.Update(ctx, "staff-1", invoicedomain.UpdateInvoiceRequest{ID: invoice.ID, Status: &overdue})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, updated.Status)

	// Once the reconciler settles the invoice, staff edits are locked out.
	require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).
		Where("id = ?", invoice.ID).
		Update("status", invoicedomain.InvoiceStatusPaid).Error)

	pending := invoicedomain.InvoiceStatusPending
	_, err = f.svc.Update(ctx, "staff-1", invoicedomain.UpdateInvoiceRequest{ID: invoice.ID, Status: &pending})
	assert.ErrorIs(t, err, invoicedomain.ErrImmutableStatus)
}

func TestListInvoicesFiltersAndPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lines := []invoicedomain.CreateLineRequest{
		{Description: "Work", Quantity: 1, UnitPrice: dec("100")},
	}
	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, "staff-1", invoicedomain.CreateInvoiceRequest{ClientID: f.client.ID, Lines: lines})
		require.NoError(t, err)
	}

	resp, err := f.svc.List(ctx, invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 3)

	page := invoicedomain.ListInvoiceRequest{}
	page.PageSize = 2
	resp, err = f.svc.List(ctx, page)
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 2)
	assert.True(t, resp.HasMore)

	next := invoicedomain.ListInvoiceRequest{}
	next.PageSize = 2
	next.PageToken = resp.NextPageToken
	resp, err = f.svc.List(ctx, next)
	require.NoError(t, err)
	assert.Len(t, resp.Invoices, 1)
	assert.False(t, resp.HasMore)

	status := invoicedomain.InvoiceStatusPaid
	resp, err = f.svc.List(ctx, invoicedomain.ListInvoiceRequest{Status: &status})
	require.NoError(t, err)
	assert.Empty(t, resp.Invoices)
}
