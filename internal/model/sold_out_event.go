package model

import "time"

// SoldOutEvent records one post being marked sold out by a user.
type SoldOutEvent struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	PostID   uint      `gorm:"not null;index" json:"post_id"`
	UserID   uint      `gorm:"not null;index" json:"user_id"`
	MarkedAt time.Time `gorm:"not null" json:"marked_at"`
}
