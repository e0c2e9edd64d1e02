package service

import (
	"context"
	"strings"
	"time"

	auditdomain "github.com/brightfold/portal/internal/audit/domain"
	clientdomain "github.com/brightfold/portal/internal/client/domain"
	requestdomain "github.com/brightfold/portal/internal/request/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	AuditSvc   auditdomain.Service
	Repo       requestdomain.Repository
	ClientRepo clientdomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	auditSvc   auditdomain.Service
	repo       requestdomain.Repository
	clientRepo clientdomain.Repository
}

func NewService(p Params) requestdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("request.service"),
		genID:      p.GenID,
		auditSvc:   p.AuditSvc,
		repo:       p.Repo,
		clientRepo: p.ClientRepo,
	}
}

func (s *Service) Create(ctx context.Context, actorID string, req requestdomain.CreateRequestRequest) (*requestdomain.WorkRequest, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, requestdomain.ErrInvalidTitle
	}

	client, err := s.clientRepo.FindByID(ctx, s.db, req.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, clientdomain.ErrNotFound
	}

	now := time.Now().UTC()
	request := &requestdomain.WorkRequest{
		ID:        s.genID.Generate(),
		ClientID:  client.ID,
		Title:     title,
		Status:    requestdomain.RequestStatusOpen,
		Fields:    req.Fields,
		DueDate:   req.DueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, request); err != nil {
		return nil, err
	}

	_ = s.auditSvc.Record(ctx, actorID, "request.created", "WorkRequest", request.ID.String(), map[string]any{
		"title":     request.Title,
		"client_id": request.ClientID.String(),
	})

	return request, nil
}

func (s *Service) List(ctx context.Context, req requestdomain.ListRequestRequest) ([]*requestdomain.WorkRequest, error) {
	return s.repo.List(ctx, s.db, req)
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*requestdomain.WorkRequest, error) {
	request, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, requestdomain.ErrNotFound
	}
	return request, nil
}

func (s *Service) Update(ctx context.Context, actorID string, req requestdomain.UpdateRequestRequest) (*requestdomain.WorkRequest, error) {
	request, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if req.Status != nil {
		if !requestdomain.ValidStatus(*req.Status) {
			return nil, requestdomain.ErrInvalidStatus
		}
		request.Status = *req.Status
		changes["status"] = string(*req.Status)
	}
	if req.DueDate != nil {
		request.DueDate = req.DueDate
		changes["due_date"] = req.DueDate.Format(time.RFC3339)
	}

	if len(changes) == 0 {
		return request, nil
	}

	request.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, request); err != nil {
		return nil, err
	}

	_ = s.auditSvc.Record(ctx, actorID, "request.updated", "WorkRequest", request.ID.String(), changes)

	return request, nil
}
