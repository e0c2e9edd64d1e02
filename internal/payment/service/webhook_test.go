package service_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	auditdomain "github.com/brightfold/portal/internal/audit/domain"
	auditrepo "github.com/brightfold/portal/internal/audit/repository"
	auditservice "github.com/brightfold/portal/internal/audit/service"
	clientdomain "github.com/brightfold/portal/internal/client/domain"
	"github.com/brightfold/portal/internal/config"
	invoicedomain "github.com/brightfold/portal/internal/invoice/domain"
	invoicerepo "github.com/brightfold/portal/internal/invoice/repository"
	paymentdomain "github.com/brightfold/portal/internal/payment/domain"
	paymentrepo "github.com/brightfold/portal/internal/payment/repository"
	paymentservice "github.com/brightfold/portal/internal/payment/service"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const webhookSecret = "whsec_test_secret"

type webhookFixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	svc     paymentdomain.WebhookService
	invoice *invoicedomain.Invoice
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&clientdomain.Client{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLine{},
		&paymentdomain.Payment{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(9)
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})

	svc := paymentservice.NewWebhookService(paymentservice.WebhookParams{
		DB:          db,
		Log:         zap.NewNop(),
		Cfg:         config.Config{RazorpayWebhookSecret: webhookSecret},
		GenID:       node,
		AuditSvc:    auditSvc,
		InvoiceRepo: invoicerepo.Provide(),
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

	orderID := "order_test123"
	invoice := &invoicedomain.Invoice{
		ID:             node.Generate(),
		InvoiceNumber:  "INV-2026-00001",
		ClientID:       client.ID,
		Status:         invoicedomain.InvoiceStatusPending,
		Currency:       "INR",
		Subtotal:       decimal.RequireFromString("2000"),
		TaxAmount:      decimal.RequireFromString("180"),
		TotalAmount:    decimal.RequireFromString("2180"),
		GatewayOrderID: &orderID,
		IssuedAt:       now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, db.Create(invoice).Error)

	return &webhookFixture{db: db, node: node, svc: svc, invoice: invoice}
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func capturedPayload(orderID, paymentID string, amountMinor int64) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":%q,"order_id":%q,"amount":%d,"currency":"INR"}}}}`,
		paymentID, orderID, amountMinor,
	))
}

func (f *webhookFixture) invoiceStatus(t *testing.T) invoicedomain.InvoiceStatus {
	t.Helper()
	var invoice invoicedomain.Invoice
	require.NoError(t, f.db.First(&invoice, "id = ?", f.invoice.ID).Error)
	return invoice.Status
}

func (f *webhookFixture) paymentCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&paymentdomain.Payment{}).Count(&count).Error)
	return count
}

func TestCapturedMarksInvoicePaid(t *testing.T) {
	f := newWebhookFixture(t)
	body := capturedPayload("order_test123", "pay_abc", 218000)

	require.NoError(t, f.svc.Process(context.Background(), body, sign(body)))

	assert.Equal(t, invoicedomain.InvoiceStatusPaid, f.invoiceStatus(t))
	assert.Equal(t, int64(1), f.paymentCount(t))

	var payment paymentdomain.Payment
	require.NoError(t, f.db.First(&payment, "gateway_payment_id = ?", "pay_abc").Error)
	assert.True(t, payment.Amount.Equal(decimal.RequireFromString("2180")))
	assert.Equal(t, paymentdomain.PaymentStatusSucceeded, payment.Status)

	var entry auditdomain.AuditLog
	require.NoError(t, f.db.First(&entry, "action = ?", "invoice.paid").Error)
	assert.Equal(t, "gateway-webhook", entry.ActorID)
}

func TestCapturedRedeliveryIsIdempotent(t *testing.T) {
	f := newWebhookFixture(t)
	body := capturedPayload("order_test123", "pay_abc", 218000)
	ctx := context.Background()

	require.NoError(t, f.svc.Process(ctx, body, sign(body)))
	require.NoError(t, f.svc.Process(ctx, body, sign(body)))

	assert.Equal(t, int64(1), f.paymentCount(t))
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, f.invoiceStatus(t))

	var auditCount int64
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).Where("action = ?", "invoice.paid").Count(&auditCount).Error)
	assert.Equal(t, int64(1), auditCount)
}

func TestTamperedPayloadIsRejected(t *testing.T) {
	f := newWebhookFixture(t)
	body := capturedPayload("order_test123", "pay_abc", 218000)
	signature := sign(body)

	tampered := capturedPayload("order_test123", "pay_abc", 1)
	err := f.svc.Process(context.Background(), tampered, signature)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)

	assert.Equal(t, invoicedomain.InvoiceStatusPending, f.invoiceStatus(t))
	assert.Equal(t, int64(0), f.paymentCount(t))
}

func TestMissingSignatureIsRejected(t *testing.T) {
	f := newWebhookFixture(t)
	body := capturedPayload("order_test123", "pay_abc", 218000)

	err := f.svc.Process(context.Background(), body, "")
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)
}

func TestFailedReturnsInvoiceToPending(t *testing.T) {
	f := newWebhookFixture(t)
	require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).
		Where("id = ?", f.invoice.ID).
		Update("status", invoicedomain.InvoiceStatusOverdue).Error)

	body := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_fail","order_id":"order_test123"}}}}`)
	require.NoError(t, f.svc.Process(context.Background(), body, sign(body)))

	assert.Equal(t, invoicedomain.InvoiceStatusPending, f.invoiceStatus(t))
	assert.Equal(t, int64(0), f.paymentCount(t))
}

func TestStaleFailureDoesNotRegressPaidInvoice(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	captured := capturedPayload("order_test123", "pay_abc", 218000)
	require.NoError(t, f.svc.Process(ctx, captured, sign(captured)))
	require.Equal(t, invoicedomain.InvoiceStatusPaid, f.invoiceStatus(t))

	failed := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"id":"pay_late","order_id":"order_test123"}}}}`)
	require.NoError(t, f.svc.Process(ctx, failed, sign(failed)))

	assert.Equal(t, invoicedomain.InvoiceStatusPaid, f.invoiceStatus(t))
}

func TestRefundMarksInvoiceRefunded(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	captured := capturedPayload("order_test123", "pay_abc", 218000)
	require.NoError(t, f.svc.Process(ctx, captured, sign(captured)))

	refund := []byte(`{"event":"refund.created","payload":{"refund":{"entity":{"id":"rfnd_1","payment_id":"pay_abc"}}}}`)
	require.NoError(t, f.svc.Process(ctx, refund, sign(refund)))

	assert.Equal(t, invoicedomain.InvoiceStatusRefunded, f.invoiceStatus(t))
}

func TestUnknownOrderIsAcknowledged(t *testing.T) {
	f := newWebhookFixture(t)
	body := capturedPayload("order_unknown", "pay_xyz", 50000)

	require.NoError(t, f.svc.Process(context.Background(), body, sign(body)))

	assert.Equal(t, int64(0), f.paymentCount(t))
	assert.Equal(t, invoicedomain.InvoiceStatusPending, f.invoiceStatus(t))
}

func TestUntrackedEventIsIgnored(t *testing.T) {
	f := newWebhookFixture(t)
	body := []byte(`{"event":"order.paid","payload":{}}`)

	require.NoError(t, f.svc.Process(context.Background(), body, sign(body)))

	assert.Equal(t, int64(0), f.paymentCount(t))
}

func TestMalformedPayloadIsRejected(t *testing.T) {
	f := newWebhookFixture(t)
	body := []byte(`{"event":`)

	err := f.svc.Process(context.Background(), body, sign(body))
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidPayload)
}

type failingStatusInvoiceRepo struct {
	invoicedomain.Repository
	err error
}

func (r failingStatusInvoiceRepo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status invoicedomain.InvoiceStatus) error {
	return r.err
}

func TestCapturedStoreFailureRollsBackPayment(t *testing.T) {
	f := newWebhookFixture(t)
	storeErr := errors.New("status write failed")

	svc := paymentservice.NewWebhookService(paymentservice.WebhookParams{
		DB:       f.db,
		Log:      zap.NewNop(),
		Cfg:      config.Config{RazorpayWebhookSecret: webhookSecret},
		GenID:    f.node,
		AuditSvc: auditservice.NewService(auditservice.Params{DB: f.db, Log: zap.NewNop(), GenID: f.node, Repo: auditrepo.Provide()}),
		InvoiceRepo: failingStatusInvoiceRepo{
			Repository: invoicerepo.Provide(),
			err:        storeErr,
		},
		PaymentRepo: paymentrepo.Provide(),
	})

	body := capturedPayload("order_test123", "pay_abc", 218000)
	err := svc.Process(context.Background(), body, sign(body))
	require.ErrorIs(t, err, storeErr)

	assert.Equal(t, invoicedomain.InvoiceStatusPending, f.invoiceStatus(t))
	assert.Equal(t, int64(0), f.paymentCount(t))

	var auditCount int64
	require.NoError(t, f.db.Model(&auditdomain.AuditLog{}).Where("action = ?", "invoice.paid").Count(&auditCount).Error)
	assert.Equal(t, int64(0), auditCount)
}
