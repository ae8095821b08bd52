package model

import (
	"strings"
	"time"
)

const (
	SoldOutMarker = "<< sold out >>"
	soldOutSuffix = "\n " + SoldOutMarker
)

type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Title     string    `gorm:"size:256;not null" json:"title"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// PostView is a post joined with its author's username.
type PostView struct {
	ID        uint      `json:"id"`
	AuthorID  uint      `json:"author_id"`
	Username  string    `json:"username"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (p PostView) SoldOut() bool {
	return IsSoldOut(p.Body)
}

func IsSoldOut(body string) bool {
	return strings.Contains(body, SoldOutMarker)
}

// MarkSoldOut appends the sold-out marker unless the body already carries it.
// The second return value reports whether the body changed.
func MarkSoldOut(body string) (string, bool) {
	if IsSoldOut(body) {
		return body, false
	}
	return body + soldOutSuffix, true
}
