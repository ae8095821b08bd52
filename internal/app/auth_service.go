package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"online-shopping/internal/model"
	"online-shopping/internal/pkg/jwtutil"
	"online-shopping/internal/repository"
)

type AuthService struct {
	userRepo          *repository.UserRepository
	revocations       SessionRevocations
	sessionSecret     string
	sessionExpiration time.Duration
	bcryptCost        int
}

// SessionRevocations is optional; without it logout only clears the cookie.
type SessionRevocations interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
}

type RegisterInput struct {
	Username string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

func NewAuthService(
	userRepo *repository.UserRepository,
	revocations SessionRevocations,
	sessionSecret string,
	sessionExpiration time.Duration,
	bcryptCost int,
) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if sessionExpiration <= 0 {
		sessionExpiration = 24 * time.Hour
	}
	return &AuthService{
		userRepo:          userRepo,
		revocations:       revocations,
		sessionSecret:     sessionSecret,
		sessionExpiration: sessionExpiration,
		bcryptCost:        bcryptCost,
	}
}

func (s *AuthService) SessionExpiration() time.Duration {
	return s.sessionExpiration
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, ErrUsernameRequired
	}
	if input.Password == "" {
		return nil, ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameExists
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, ErrInvalidCredential
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredential
	}

	token, claims, err := jwtutil.GenerateToken(s.sessionSecret, s.sessionExpiration, user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// ResolveSession maps a session token to its user. Any token that is
// malformed, expired, revoked or names a deleted user yields ErrSessionRejected.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*model.User, *jwtutil.Claims, error) {
	claims, err := jwtutil.ParseToken(s.sessionSecret, token)
	if err != nil {
		return nil, nil, ErrSessionRejected
	}

	if s.revocations != nil {
		revoked, err := s.revocations.IsRevoked(ctx, claims.SessionID())
		if err != nil {
			return nil, nil, err
		}
		if revoked {
			return nil, nil, ErrSessionRejected
		}
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrSessionRejected
	}
	return user, claims, nil
}

// EndSession revokes the session named by claims. A nil claims is a no-op.
func (s *AuthService) EndSession(ctx context.Context, claims *jwtutil.Claims) error {
	if claims == nil || s.revocations == nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.SessionID(), claims.ExpiresAt.Time)
}

func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	return s.userRepo.GetByID(ctx, id)
}
