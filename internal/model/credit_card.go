package model

import (
	"strings"
	"time"
)

// CreditCard is the single payment card kept for a user.
type CreditCard struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	CardNumber     string    `gorm:"size:32;not null" json:"-"`
	ExpirationDate string    `gorm:"size:16;not null" json:"expiration_date"`
	SecurityCode   string    `gorm:"size:8;not null" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MaskedNumber hides everything but the last four digits of the card number.
func (c *CreditCard) MaskedNumber() string {
	digits := strings.ReplaceAll(strings.TrimSpace(c.CardNumber), " ", "")
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
