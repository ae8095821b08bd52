package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameRequired  = errors.New("username is required")
	ErrPasswordRequired  = errors.New("password is required")
	ErrTitleRequired     = errors.New("title is required")
	ErrCardRequired      = errors.New("credit card is required")
	ErrUsernameExists    = errors.New("username already exists")
	ErrInvalidCredential = errors.New("invalid username or password")
	ErrPostNotFound      = errors.New("post not found")
	ErrForbidden         = errors.New("post belongs to another user")
	ErrCardNotFound      = errors.New("credit card not found")
	ErrSessionRejected   = errors.New("session rejected")
)
