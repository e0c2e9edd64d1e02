package service

import (
	"context"
	"strings"
	"time"

	auditdomain "github.com/brightfold/portal/internal/audit/domain"
	clientdomain "github.com/brightfold/portal/internal/client/domain"
	"github.com/brightfold/portal/internal/sequence"
	pkgdb "github.com/brightfold/portal/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Seq      *sequence.Generator
	AuditSvc auditdomain.Service
	Repo     clientdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	seq      *sequence.Generator
	auditSvc auditdomain.Service
	repo     clientdomain.Repository
}

func NewService(p Params) clientdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("client.service"),
		genID:    p.GenID,
		seq:      p.Seq,
		auditSvc: p.AuditSvc,
		repo:     p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, actorID string, req clientdomain.CreateClientRequest) (*clientdomain.Client, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, clientdomain.ErrInvalidName
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "INR"
	}

	now := time.Now().UTC()
	client := &clientdomain.Client{
		ID:             s.genID.Generate(),
		Name:           name,
		BillingAddress: strings.TrimSpace(req.BillingAddress),
		Timezone:       strings.TrimSpace(req.Timezone),
		Currency:       currency,
		Status:         clientdomain.ClientStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		clientID, err := s.seq.NextClientID(ctx, tx, now)
		if err != nil {
			return err
		}
		client.ClientID = clientID
		return s.repo.Insert(ctx, tx, client)
	})
	if err != nil {
		if pkgdb.IsDuplicateKeyErr(err) {
			return nil, clientdomain.ErrDuplicateID
		}
		return nil, err
	}

	_ = s.auditSvc.Record(ctx, actorID, "client.created", "Client", client.ID.String(), map[string]any{
		"client_id": client.ClientID,
		"name":      client.Name,
	})

	return client, nil
}

func (s *Service) List(ctx context.Context) ([]*clientdomain.ClientWithCounts, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*clientdomain.Client, error) {
	client, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, clientdomain.ErrNotFound
	}
	return client, nil
}

func (s *Service) Update(ctx context.Context, actorID string, req clientdomain.UpdateClientRequest) (*clientdomain.Client, error) {
	client, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, clientdomain.ErrInvalidName
		}
		client.Name = name
		changes["name"] = name
	}
	if req.BillingAddress != nil {
		client.BillingAddress = strings.TrimSpace(*req.BillingAddress)
		changes["billing_address"] = client.BillingAddress
	}
	if req.Currency != nil {
		client.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
		changes["currency"] = client.Currency
	}
	if req.Status != nil {
		switch *req.Status {
		case clientdomain.ClientStatusActive, clientdomain.ClientStatusSuspended:
			client.Status = *req.Status
			changes["status"] = string(*req.Status)
		default:
			return nil, clientdomain.ErrInvalidStatus
		}
	}

	if len(changes) == 0 {
		return client, nil
	}

	client.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, client); err != nil {
		return nil, err
	}

	_ = s.auditSvc.Record(ctx, actorID, "client.updated", "Client", client.ID.String(), changes)

	return client, nil
}
