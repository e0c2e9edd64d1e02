package repository

import (
	"context"
	"errors"

	"github.com/brightfold/portal/internal/request/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, request *domain.WorkRequest) error {
	return db.WithContext(ctx).Create(request).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.WorkRequest, error) {
	var request domain.WorkRequest
	err := db.WithContext(ctx).First(&request, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequestRequest) ([]*domain.WorkRequest, error) {
	query := db.WithContext(ctx).Model(&domain.WorkRequest{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ClientScope != nil {
		query = query.Where("client_id = ?", *filter.ClientScope)
	}

	var requests []*domain.WorkRequest
	if err := query.Order("created_at desc").Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, request *domain.WorkRequest) error {
	return db.WithContext(ctx).Save(request).Error
}
