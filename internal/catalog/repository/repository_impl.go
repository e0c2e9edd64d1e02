package repository

import (
	"context"
	"errors"

	"github.com/brightfold/portal/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, svc *domain.Service) error {
	return db.WithContext(ctx).Create(svc).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Service, error) {
	var svc domain.Service
	err := db.WithContext(ctx).First(&svc, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &svc, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]*domain.Service, error) {
	var services []*domain.Service
	err := db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name asc").
		Find(&services).Error
	if err != nil {
		return nil, err
	}
	return services, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, svc *domain.Service) error {
	return db.WithContext(ctx).Save(svc).Error
}
