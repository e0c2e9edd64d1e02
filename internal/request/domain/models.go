// Package domain contains work request models and contracts.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RequestStatus represents the work request pipeline.
type RequestStatus string

const (
	RequestStatusOpen       RequestStatus = "open"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
)

func ValidStatus(raw RequestStatus) bool {
	switch raw {
	case RequestStatusOpen, RequestStatusInProgress, RequestStatusCompleted, RequestStatusCancelled:
		return true
	default:
		return false
	}
}

// WorkRequest is a client-submitted piece of work. Fields holds the free-form
// intake form payload as submitted.
type WorkRequest struct {
	ID        snowflake.ID      `json:"id" gorm:"primaryKey"`
	ClientID  snowflake.ID      `json:"client_id" gorm:"not null;index"`
	Title     string            `json:"title" gorm:"type:text;not null"`
	Status    RequestStatus     `json:"status" gorm:"type:text;not null;default:'open'"`
	Fields    datatypes.JSONMap `json:"fields,omitempty" gorm:"type:jsonb"`
	DueDate   *time.Time        `json:"due_date,omitempty"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"not null"`
}

func (WorkRequest) TableName() string { return "work_requests" }

type CreateRequestRequest struct {
	ClientID snowflake.ID
	Title    string
	Fields   map[string]any
	DueDate  *time.Time
}

type UpdateRequestRequest struct {
	ID      snowflake.ID
	Status  *RequestStatus
	DueDate *time.Time
}

type ListRequestRequest struct {
	Status *RequestStatus
	// ClientScope restricts results to one client; set for client-role actors.
	ClientScope *snowflake.ID
}

type Service interface {
	Create(ctx context.Context, actorID string, req CreateRequestRequest) (*WorkRequest, error)
	List(ctx context.Context, req ListRequestRequest) ([]*WorkRequest, error)
	GetByID(ctx context.Context, id snowflake.ID) (*WorkRequest, error)
	Update(ctx context.Context, actorID string, req UpdateRequestRequest) (*WorkRequest, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, request *WorkRequest) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*WorkRequest, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequestRequest) ([]*WorkRequest, error)
	Update(ctx context.Context, db *gorm.DB, request *WorkRequest) error
}

var (
	ErrNotFound      = errors.New("request_not_found")
	ErrInvalidTitle  = errors.New("invalid_title")
	ErrInvalidStatus = errors.New("invalid_status")
)
