// Package domain contains thread message models and contracts. Each client
// has one conversation thread with staff, keyed by the client id.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Message struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	ThreadID  string       `json:"thread_id" gorm:"type:text;not null;index"`
	AuthorID  string       `json:"author_id" gorm:"type:text;not null"`
	Body      string       `json:"body" gorm:"type:text;not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (Message) TableName() string { return "messages" }

type PostMessageRequest struct {
	ThreadID string
	Body     string
}

type Service interface {
	Post(ctx context.Context, actorID string, req PostMessageRequest) (*Message, error)
	ListThread(ctx context.Context, threadID string) ([]*Message, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, message *Message) error
	ListByThreadID(ctx context.Context, db *gorm.DB, threadID string) ([]*Message, error)
}

var (
	ErrEmptyBody     = errors.New("empty_body")
	ErrInvalidThread = errors.New("invalid_thread")
)
