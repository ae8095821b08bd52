package app

import (
	"context"
	"strings"

	"online-shopping/internal/model"
	"online-shopping/internal/repository"
)

type PaymentService struct {
	cardRepo *repository.CreditCardRepository
}

type SaveCardInput struct {
	UserID         uint
	CardNumber     string
	ExpirationDate string
	SecurityCode   string
}

func NewPaymentService(cardRepo *repository.CreditCardRepository) *PaymentService {
	return &PaymentService{cardRepo: cardRepo}
}

func (s *PaymentService) SaveCard(ctx context.Context, input SaveCardInput) (*model.CreditCard, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	card := &model.CreditCard{
		UserID:         input.UserID,
		CardNumber:     strings.TrimSpace(input.CardNumber),
		ExpirationDate: strings.TrimSpace(input.ExpirationDate),
		SecurityCode:   strings.TrimSpace(input.SecurityCode),
	}
	if card.CardNumber == "" || card.ExpirationDate == "" || card.SecurityCode == "" {
		return nil, ErrCardRequired
	}
	if err := s.cardRepo.Save(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *PaymentService) GetCard(ctx context.Context, userID uint) (*model.CreditCard, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	card, err := s.cardRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, ErrCardNotFound
	}
	return card, nil
}
