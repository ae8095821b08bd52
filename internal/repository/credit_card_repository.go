package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"online-shopping/internal/model"
)

type CreditCardRepository struct {
	db *gorm.DB
}

func NewCreditCardRepository(db *gorm.DB) *CreditCardRepository {
	return &CreditCardRepository{db: db}
}

// Save stores card as the user's only card, replacing any earlier one.
func (r *CreditCardRepository) Save(ctx context.Context, card *model.CreditCard) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"card_number", "expiration_date", "security_code", "updated_at"}),
	}).Create(card).Error
	if err != nil {
		return fmt.Errorf("save credit card failed: %w", err)
	}
	return nil
}

func (r *CreditCardRepository) GetByUserID(ctx context.Context, userID uint) (*model.CreditCard, error) {
	var card model.CreditCard
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query credit card failed: %w", err)
	}
	return &card, nil
}

func (r *CreditCardRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.CreditCard{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count credit cards failed: %w", err)
	}
	return n, nil
}
