package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"online-shopping/internal/model"
)

type SoldOutEventRepository struct {
	db *gorm.DB
}

func NewSoldOutEventRepository(db *gorm.DB) *SoldOutEventRepository {
	return &SoldOutEventRepository{db: db}
}

func (r *SoldOutEventRepository) Create(ctx context.Context, event *model.SoldOutEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create sold out event failed: %w", err)
	}
	return nil
}

func (r *SoldOutEventRepository) ListByPostID(ctx context.Context, postID uint) ([]model.SoldOutEvent, error) {
	var events []model.SoldOutEvent
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("marked_at ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list sold out events failed: %w", err)
	}
	return events, nil
}
