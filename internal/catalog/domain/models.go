// Package domain contains the service catalog models and contracts.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is a catalog entry staff can bill from. Invoice lines copy its
// price and tax rate at line-creation time and do not track later edits.
type Service struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	SKU         string          `json:"sku" gorm:"column:sku;type:text;not null;uniqueIndex"`
	Name        string          `json:"name" gorm:"type:text;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null"`
	TaxRate     decimal.Decimal `json:"tax_rate" gorm:"type:numeric(5,2);not null"`
	IsActive    bool            `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null"`
}

func (Service) TableName() string { return "services" }

type CreateServiceRequest struct {
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	TaxRate     decimal.Decimal
}

type UpdateServiceRequest struct {
	ID          snowflake.ID
	Name        *string
	Description *string
	Price       *decimal.Decimal
	TaxRate     *decimal.Decimal
	IsActive    *bool
}

type CatalogService interface {
	Create(ctx context.Context, actorID string, req CreateServiceRequest) (*Service, error)
	ListActive(ctx context.Context) ([]*Service, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Service, error)
	Update(ctx context.Context, actorID string, req UpdateServiceRequest) (*Service, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, svc *Service) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Service, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]*Service, error)
	Update(ctx context.Context, db *gorm.DB, svc *Service) error
}

var (
	ErrNotFound       = errors.New("service_not_found")
	ErrInvalidName    = errors.New("invalid_name")
	ErrInvalidSKU     = errors.New("invalid_sku")
	ErrInvalidPrice   = errors.New("invalid_price")
	ErrInvalidTaxRate = errors.New("invalid_tax_rate")
)
