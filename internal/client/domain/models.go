// Package domain contains persistence models and contracts for portal clients.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// ClientStatus represents client account states.
type ClientStatus string

const (
	ClientStatusActive    ClientStatus = "active"
	ClientStatusSuspended ClientStatus = "suspended"
)

// Client is a billed tenant of the portal. Suspension is enforced at
// authentication; a suspended client's invoices remain readable here.
type Client struct {
	ID             snowflake.ID `json:"id" gorm:"primaryKey"`
	ClientID       string       `json:"client_id" gorm:"type:text;not null;uniqueIndex"`
	Name           string       `json:"name" gorm:"type:text;not null"`
	BillingAddress string       `json:"billing_address" gorm:"type:text"`
	Timezone       string       `json:"timezone" gorm:"type:text"`
	Currency       string       `json:"currency" gorm:"type:text;not null;default:'INR'"`
	Status         ClientStatus `json:"status" gorm:"type:text;not null;default:'active'"`
	CreatedAt      time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time    `json:"updated_at" gorm:"not null"`
}

func (Client) TableName() string { return "clients" }

type CreateClientRequest struct {
	Name           string
	BillingAddress string
	Timezone       string
	Currency       string
}

type UpdateClientRequest struct {
	ID             snowflake.ID
	Name           *string
	BillingAddress *string
	Currency       *string
	Status         *ClientStatus
}

// ClientWithCounts decorates a client with its invoice count for listings.
type ClientWithCounts struct {
	Client
	InvoiceCount int64 `json:"invoice_count"`
}

type Service interface {
	Create(ctx context.Context, actorID string, req CreateClientRequest) (*Client, error)
	List(ctx context.Context) ([]*ClientWithCounts, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Client, error)
	Update(ctx context.Context, actorID string, req UpdateClientRequest) (*Client, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Client, error)
	List(ctx context.Context, db *gorm.DB) ([]*ClientWithCounts, error)
	Update(ctx context.Context, db *gorm.DB, client *Client) error
}

var (
	ErrNotFound      = errors.New("client_not_found")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrDuplicateID   = errors.New("duplicate_client_id")
)
