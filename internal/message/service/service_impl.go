package service

import (
	"context"
	"strings"
	"time"

	messagedomain "github.com/brightfold/portal/internal/message/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  messagedomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  messagedomain.Repository
}

func NewService(p Params) messagedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("message.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Post(ctx context.Context, actorID string, req messagedomain.PostMessageRequest) (*messagedomain.Message, error) {
	threadID := strings.TrimSpace(req.ThreadID)
	if threadID == "" {
		return nil, messagedomain.ErrInvalidThread
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, messagedomain.ErrEmptyBody
	}

	message := &messagedomain.Message{
		ID:        s.genID.Generate(),
		ThreadID:  threadID,
		AuthorID:  actorID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, message); err != nil {
		return nil, err
	}

	return message, nil
}

func (s *Service) ListThread(ctx context.Context, threadID string) ([]*messagedomain.Message, error) {
	return s.repo.ListByThreadID(ctx, s.db, threadID)
}
