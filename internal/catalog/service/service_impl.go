package service

import (
	"context"
	"strings"
	"time"

	auditdomain "github.com/brightfold/portal/internal/audit/domain"
	catalogdomain "github.com/brightfold/portal/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	AuditSvc auditdomain.Service
	Repo     catalogdomain.Repository
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	auditSvc auditdomain.Service
	repo     catalogdomain.Repository
}

func NewService(p Params) catalogdomain.CatalogService {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("catalog.service"),
		genID:    p.GenID,
		auditSvc: p.AuditSvc,
		repo:     p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, actorID string, req catalogdomain.CreateServiceRequest) (*catalogdomain.Service, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, catalogdomain.ErrInvalidName
	}
	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		return nil, catalogdomain.ErrInvalidSKU
	}
	if req.Price.IsNegative() {
		return nil, catalogdomain.ErrInvalidPrice
	}
	if err := validateTaxRate(req.TaxRate); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	svc := &catalogdomain.Service{
		ID:          s.genID.Generate(),
		SKU:         sku,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price.Round(2),
		TaxRate:     req.TaxRate,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, svc); err != nil {
		return nil, err
	}

	_ = s.auditSvc.Record(ctx, actorID, "service.created", "Service", svc.ID.String(), map[string]any{
		"sku":  svc.SKU,
		"name": svc.Name,
	})

	return svc, nil
}

func (s *Service) ListActive(ctx context.Context) ([]*catalogdomain.Service, error) {
	return s.repo.ListActive(ctx, s.db)
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*catalogdomain.Service, error) {
	svc, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if svc == nil {
		return nil, catalogdomain.ErrNotFound
	}
	return svc, nil
}

func (s *Service) Update(ctx context.Context, actorID string, req catalogdomain.UpdateServiceRequest) (*catalogdomain.Service, error) {
	svc, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, catalogdomain.ErrInvalidName
		}
		svc.Name = name
		changes["name"] = name
	}
	if req.Description != nil {
		svc.Description = strings.TrimSpace(*req.Description)
		changes["description"] = svc.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, catalogdomain.ErrInvalidPrice
		}
		svc.Price = req.Price.Round(2)
		changes["price"] = svc.Price.String()
	}
	if req.TaxRate != nil {
		if err := validateTaxRate(*req.TaxRate); err != nil {
			return nil, err
		}
		svc.TaxRate = *req.TaxRate
		changes["tax_rate"] = svc.TaxRate.String()
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
		changes["is_active"] = *req.IsActive
	}

	if len(changes) == 0 {
		return svc, nil
	}

	svc.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, svc); err != nil {
		return nil, err
	}

	_ = s.auditSvc.Record(ctx, actorID, "service.updated", "Service", svc.ID.String(), changes)

	return svc, nil
}

func validateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return catalogdomain.ErrInvalidTaxRate
	}
	return nil
}
