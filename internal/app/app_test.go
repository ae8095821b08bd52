package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"online-shopping/internal/model"
	"online-shopping/internal/platform/database/dbtest"
	"online-shopping/internal/repository"
)

type fixture struct {
	users   *repository.UserRepository
	posts   *repository.PostRepository
	cards   *repository.CreditCardRepository
	auth    *AuthService
	blog    *BlogService
	payment *PaymentService
	revoked *memoryRevocations
	cache   *memoryPostCache
	events  *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	f := &fixture{
		users:   repository.NewUserRepository(db),
		posts:   repository.NewPostRepository(db),
		cards:   repository.NewCreditCardRepository(db),
		revoked: newMemoryRevocations(),
		cache:   &memoryPostCache{},
		events:  &recordingPublisher{},
	}
	f.auth = NewAuthService(f.users, f.revoked, "test-secret", time.Hour, bcrypt.MinCost)
	f.blog = NewBlogService(f.posts, f.cache, f.events)
	f.payment = NewPaymentService(f.cards)
	return f
}

func (f *fixture) register(t *testing.T, username string) *model.User {
	t.Helper()
	user, err := f.auth.Register(context.Background(), RegisterInput{Username: username, Password: "pw-" + username})
	require.NoError(t, err)
	return user
}

type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newMemoryRevocations() *memoryRevocations {
	return &memoryRevocations{revoked: make(map[string]time.Time)}
}

func (m *memoryRevocations) Revoke(_ context.Context, sessionID string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[sessionID] = until
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.revoked[sessionID]
	return ok && time.Now().Before(until), nil
}

type memoryPostCache struct {
	generation  int64
	lists       map[int64][]model.PostView
	sets        int
	invalidates int
	err         error

	// beforeSet runs once, just before the next listing is stored.
	beforeSet func()
}

func (c *memoryPostCache) Generation(context.Context) (int64, error) {
	return c.generation, c.err
}

func (c *memoryPostCache) GetPosts(_ context.Context, generation int64) ([]model.PostView, bool, error) {
	if c.err != nil {
		return nil, false, c.err
	}
	posts, ok := c.lists[generation]
	return posts, ok, nil
}

func (c *memoryPostCache) SetPosts(_ context.Context, generation int64, posts []model.PostView) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	if c.lists == nil {
		c.lists = make(map[int64][]model.PostView)
	}
	c.lists[generation] = posts
	c.sets++
	return nil
}

func (c *memoryPostCache) Invalidate(context.Context) error {
	c.generation++
	c.invalidates++
	return nil
}

type recordingPublisher struct {
	events []model.SoldOutEvent
	err    error
}

func (p *recordingPublisher) PublishSoldOut(_ context.Context, event model.SoldOutEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

var errBroker = errors.New("broker unavailable")
