package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"online-shopping/internal/app"
	"online-shopping/internal/model"
	"online-shopping/internal/pkg/jwtutil"
	"online-shopping/internal/transport/http/response"
)

const (
	ContextIdentityKey = "identity"
	LoginPath          = "/auth/login"
)

// Identity is the caller resolved from the session cookie. The zero value is anonymous.
type Identity struct {
	User   *model.User
	Claims *jwtutil.Claims
}

func (i Identity) Authenticated() bool {
	return i.User != nil
}

type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*model.User, *jwtutil.Claims, error)
}

// SessionCookie writes and expires the cookie holding the session token.
type SessionCookie struct {
	Name   string
	Secure bool
}

func (s SessionCookie) Set(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, token, maxAge, "/", "", s.Secure, true)
}

func (s SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Name, "", -1, "/", "", s.Secure, true)
}

// LoadIdentity resolves the session cookie once per request and stores the
// result under ContextIdentityKey. It never aborts the request.
func LoadIdentity(resolver SessionResolver, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := Identity{}

		token, err := c.Cookie(cookie.Name)
		if err == nil && token != "" {
			user, claims, resolveErr := resolver.ResolveSession(c.Request.Context(), token)
			switch {
			case resolveErr == nil:
				identity = Identity{User: user, Claims: claims}
			case errors.Is(resolveErr, app.ErrSessionRejected):
				cookie.Clear(c)
			default:
				log.Printf("resolve session failed: %v", resolveErr)
			}
		}

		c.Set(ContextIdentityKey, identity)
		c.Set(response.ContextPageDataKey, gin.H{"User": identity.User})
		c.Next()
	}
}

func CurrentIdentity(c *gin.Context) Identity {
	value, exists := c.Get(ContextIdentityKey)
	if !exists {
		return Identity{}
	}
	identity, _ := value.(Identity)
	return identity
}

// UserHandler is a handler that only runs for an authenticated caller.
type UserHandler func(c *gin.Context, user *model.User)

// RequireUser passes the current user to next, or redirects anonymous
// callers to the login page.
func RequireUser(next UserHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := CurrentIdentity(c)
		if !identity.Authenticated() {
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
			return
		}
		next(c, identity.User)
	}
}
