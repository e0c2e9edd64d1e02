// Package domain contains payment records, the gateway contract, and the
// webhook event model.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentStatus is the state of a recorded payment. Only succeeded payments
// are persisted; failed attempts leave no payment row.
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
)

// Payment is one settled gateway payment against an invoice. The gateway
// payment id is unique, which is what makes webhook replay a no-op.
type Payment struct {
	ID               snowflake.ID    `json:"id" gorm:"primaryKey"`
	InvoiceID        snowflake.ID    `json:"invoice_id" gorm:"not null;index"`
	GatewayOrderID   string          `json:"gateway_order_id" gorm:"type:text;not null;index"`
	GatewayPaymentID string          `json:"gateway_payment_id" gorm:"type:text;not null;uniqueIndex"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Currency         string          `json:"currency" gorm:"type:text;not null"`
	Status           PaymentStatus   `json:"status" gorm:"type:text;not null"`
	PaidAt           time.Time       `json:"paid_at" gorm:"not null"`
	CreatedAt        time.Time       `json:"created_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }

// CheckoutDetails is everything the browser needs to open the gateway's
// checkout for an invoice.
type CheckoutDetails struct {
	OrderID       string `json:"order_id"`
	AmountMinor   int64  `json:"amount"`
	Currency      string `json:"currency"`
	KeyID         string `json:"key_id"`
	InvoiceNumber string `json:"invoice_number"`
	ClientName    string `json:"client_name"`
}

// CreateOrderRequest is the gateway-side order to open before checkout.
// Amount is in minor units (paise for INR).
type CreateOrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

// Order is the gateway's handle for a checkout session.
type Order struct {
	ID string
}

// Gateway creates orders on the payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
}

// CheckoutService initiates gateway checkout for invoices.
type CheckoutService interface {
	Initiate(ctx context.Context, invoiceID snowflake.ID) (*CheckoutDetails, error)
}

// WebhookService verifies and applies gateway webhook deliveries. The raw
// request body must be passed untouched; the signature covers its exact bytes.
type WebhookService interface {
	Process(ctx context.Context, body []byte, signature string) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByGatewayPaymentID(ctx context.Context, db *gorm.DB, gatewayPaymentID string) (*Payment, error)
	FindSucceededByOrderID(ctx context.Context, db *gorm.DB, gatewayOrderID string) (*Payment, error)
	ListByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) ([]*Payment, error)
}

var (
	ErrAlreadyPaid      = errors.New("invoice_already_paid")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
)

// GatewayError wraps a failed gateway call so handlers can answer 502
// without leaking provider internals to the caller.
type GatewayError struct {
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return "payment gateway: " + e.Err.Error()
	}
	return "payment gateway error"
}

func (e *GatewayError) Unwrap() error { return e.Err }
