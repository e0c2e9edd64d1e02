// Package domain contains the invoice aggregate: the invoice, its lines, and
// the lifecycle contract around them.
package domain

import (
	"context"
	"errors"
	"time"

	clientdomain "github.com/brightfold/portal/internal/client/domain"
	paymentdomain "github.com/brightfold/portal/internal/payment/domain"
	"github.com/brightfold/portal/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusPending       InvoiceStatus = "pending"
	InvoiceStatusPartiallyPaid InvoiceStatus = "partially_paid"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusOverdue       InvoiceStatus = "overdue"
	InvoiceStatusCancelled     InvoiceStatus = "cancelled"
	InvoiceStatusRefunded      InvoiceStatus = "refunded"
)

// ValidStatus reports whether raw names a known lifecycle state.
func ValidStatus(raw InvoiceStatus) bool {
	switch raw {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled, InvoiceStatusRefunded:
		return true
	default:
		return false
	}
}

// Invoice is the billing aggregate. Totals are always recomputed from lines,
// never hand-edited; `paid` and `refunded` are reachable only through
// verified gateway webhooks.
type Invoice struct {
	ID             snowflake.ID         `json:"id" gorm:"primaryKey"`
	InvoiceNumber  string               `json:"invoice_number" gorm:"type:text;not null;uniqueIndex"`
	ClientID       snowflake.ID         `json:"client_id" gorm:"not null;index"`
	Status         InvoiceStatus        `json:"status" gorm:"type:text;not null;default:'pending'"`
	Currency       string               `json:"currency" gorm:"type:text;not null"`
	Subtotal       decimal.Decimal      `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	TaxAmount      decimal.Decimal      `json:"tax_amount" gorm:"type:numeric(12,2);not null"`
	TotalAmount    decimal.Decimal      `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	Notes          string               `json:"notes,omitempty" gorm:"type:text"`
	GatewayOrderID *string              `json:"gateway_order_id,omitempty" gorm:"type:text;index"`
	IssuedAt       time.Time            `json:"issued_at" gorm:"not null"`
	DueDate        *time.Time           `json:"due_date,omitempty"`
	CreatedAt      time.Time            `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time            `json:"updated_at" gorm:"not null"`
	Lines          []InvoiceLine        `json:"lines,omitempty" gorm:"foreignKey:InvoiceID"`
	Client         *clientdomain.Client `json:"client,omitempty" gorm:"foreignKey:ClientID"`
}

func (Invoice) TableName() string { return "invoices" }

// InvoiceLine is one billed line. Price and tax rate are copied from the
// catalog at creation time when a service reference is given.
type InvoiceLine struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	InvoiceID   snowflake.ID    `json:"invoice_id" gorm:"not null;index"`
	ServiceID   *snowflake.ID   `json:"service_id,omitempty" gorm:"index"`
	Description string          `json:"description" gorm:"type:text;not null"`
	Quantity    int64           `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	TaxRate     decimal.Decimal `json:"tax_rate" gorm:"type:numeric(5,2);not null"`
	LineTotal   decimal.Decimal `json:"line_total" gorm:"type:numeric(12,2);not null"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null"`
}

func (InvoiceLine) TableName() string { return "invoice_lines" }

type CreateLineRequest struct {
	ServiceID   *snowflake.ID
	Description string
	Quantity    int64
	UnitPrice   *decimal.Decimal
	TaxRate     *decimal.Decimal
}

type CreateInvoiceRequest struct {
	ClientID snowflake.ID
	Currency string
	Notes    string
	DueDate  *time.Time
	Lines    []CreateLineRequest
}

type UpdateInvoiceRequest struct {
	ID      snowflake.ID
	Status  *InvoiceStatus
	DueDate *time.Time
	Notes   *string
}

type ListInvoiceRequest struct {
	pagination.Pagination
	Status *InvoiceStatus
	// ClientScope restricts results to one client; set for client-role actors.
	ClientScope *snowflake.ID
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []*Invoice `json:"invoices"`
}

// InvoiceDetail is the full read model for a single invoice.
type InvoiceDetail struct {
	Invoice
	Payments []*paymentdomain.Payment `json:"payments"`
}

type Service interface {
	Create(ctx context.Context, actorID string, req CreateInvoiceRequest) (*Invoice, error)
	GetByID(ctx context.Context, id snowflake.ID) (*InvoiceDetail, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	Update(ctx context.Context, actorID string, req UpdateInvoiceRequest) (*Invoice, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByGatewayOrderID(ctx context.Context, db *gorm.DB, orderID string) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Invoice, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status InvoiceStatus) error
	UpdateGatewayOrderID(ctx context.Context, db *gorm.DB, id snowflake.ID, orderID string) error
	UpdateStatusAndDueDate(ctx context.Context, db *gorm.DB, invoice *Invoice) error
}

type ListFilter struct {
	Status      *InvoiceStatus
	ClientScope *snowflake.ID
	Cursor      *Cursor
	Limit       int
}

type Cursor struct {
	CreatedAt time.Time
	ID        snowflake.ID
}

var (
	ErrNotFound            = errors.New("invoice_not_found")
	ErrEmptyLines          = errors.New("empty_lines")
	ErrDescriptionRequired = errors.New("line_description_required")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidUnitPrice    = errors.New("invalid_unit_price")
	ErrInvalidTaxRate      = errors.New("invalid_tax_rate")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrImmutableStatus     = errors.New("immutable_status")
	ErrNumberConflict      = errors.New("invoice_number_conflict")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
)
