package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"online-shopping/internal/bootstrap"
	"online-shopping/internal/config"
	"online-shopping/internal/model"
	"online-shopping/internal/platform/database/dbtest"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "online-shopping", Env: "test", GinMode: "test"},
		Auth: config.AuthConfig{
			SessionSecret:       "test-secret",
			SessionExpireMinute: 60,
			CookieName:          "session",
			BcryptCost:          bcrypt.MinCost,
		},
		Database: config.DatabaseConfig{Driver: "sqlite"},
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *bootstrap.App {
	t.Helper()
	return &bootstrap.App{Config: cfg, DB: dbtest.New(t), StartedAt: time.Now()}
}

// browser keeps the session cookie between requests like a real client would.
type browser struct {
	t       *testing.T
	router  http.Handler
	session string
}

func newBrowser(t *testing.T, router http.Handler) *browser {
	return &browser{t: t, router: router}
}

func (b *browser) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if b.session != "" {
		req.AddCookie(&http.Cookie{Name: "session", Value: b.session})
	}

	rec := httptest.NewRecorder()
	b.router.ServeHTTP(rec, req)
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "session" {
			b.session = cookie.Value
		}
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(http.MethodGet, path, nil)
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	return b.do(http.MethodPost, path, form)
}

func (b *browser) signUp(username, password string) {
	b.t.Helper()
	rec := b.post("/auth/register", url.Values{"username": {username}, "password": {password}})
	require.Equal(b.t, http.StatusFound, rec.Code)
	rec = b.post("/auth/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(b.t, http.StatusFound, rec.Code)
	require.NotEmpty(b.t, b.session)
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, location, rec.Header().Get("Location"))
}

func countRows(t *testing.T, db *gorm.DB, value any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(value).Count(&n).Error)
	return n
}

func TestRegisterThenLogin(t *testing.T) {
	app := newTestApp(t, testConfig())
	b := newBrowser(t, NewRouter(app))

	rec := b.post("/auth/register", url.Values{"username": {"alice"}, "password": {"pw"}})
	assertRedirect(t, rec, "/auth/login")
	assert.Empty(t, b.session)

	rec = b.post("/auth/login", url.Values{"username": {"alice"}, "password": {"pw"}})
	assertRedirect(t, rec, "/")
	require.NotEmpty(t, b.session)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "HttpOnly")

	rec = b.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice")
	assert.Contains(t, rec.Body.String(), "Log Out")
}

func TestRegisterValidationAndDuplicate(t *testing.T) {
	app := newTestApp(t, testConfig())
	b := newBrowser(t, NewRouter(app))

	rec := b.post("/auth/register", url.Values{"username": {""}, "password": {"pw"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Username is required.")

	rec = b.post("/auth/register", url.Values{"username": {"alice"}, "password": {""}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password is required.")

	assertRedirect(t, b.post("/auth/register", url.Values{"username": {"alice"}, "password": {"pw"}}), "/auth/login")

	rec = b.post("/auth/register", url.Values{"username": {"alice"}, "password": {"other"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User alice is already registered.")

	rec = b.post("/auth/register", url.Values{"username": {"  alice "}, "password": {"other"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User alice is already registered.")
	assert.Equal(t, int64(1), countRows(t, app.DB, &model.User{}))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t, testConfig())
	router := NewRouter(app)
	newBrowser(t, router).post("/auth/register", url.Values{"username": {"alice"}, "password": {"pw"}})

	cases := map[string]url.Values{
		"wrong password": {"username": {"alice"}, "password": {"nope"}},
		"unknown user":   {"username": {"bob"}, "password": {"pw"}},
	}
	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			b := newBrowser(t, router)
			rec := b.post("/auth/login", form)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), "Incorrect username or password.")
			assert.Empty(t, rec.Header().Get("Set-Cookie"))
			assert.Empty(t, b.session)
		})
	}
}

func TestProtectedRoutesRedirectAnonymous(t *testing.T) {
	b := newBrowser(t, NewRouter(newTestApp(t, testConfig())))

	for _, path := range []string{"/create", "/auth/credit_card", "/auth/payment", "/1/update"} {
		assertRedirect(t, b.get(path), "/auth/login")
	}
	assertRedirect(t, b.post("/1/delete", nil), "/auth/login")
	assertRedirect(t, b.post("/", url.Values{"selected_posts": {"1"}}), "/auth/login")
}

func TestWidgetScenario(t *testing.T) {
	app := newTestApp(t, testConfig())
	router := NewRouter(app)
	alice := newBrowser(t, router)
	alice.signUp("alice", "pw")
	bob := newBrowser(t, router)
	bob.signUp("bob", "pw")

	assertRedirect(t, alice.post("/create", url.Values{"title": {"Older"}, "body": {"first"}}), "/")
	assertRedirect(t, alice.post("/create", url.Values{"title": {"Widget"}, "body": {"desc"}}), "/")

	page := alice.get("/").Body.String()
	require.Contains(t, page, "Widget")
	assert.Less(t, strings.Index(page, "Widget"), strings.Index(page, "Older"))

	var widget model.Post
	require.NoError(t, app.DB.Where("title = ?", "Widget").First(&widget).Error)
	updatePath := "/" + itoa(widget.ID) + "/update"

	assert.Equal(t, http.StatusForbidden, bob.get(updatePath).Code)
	assert.Equal(t, http.StatusForbidden, bob.post(updatePath, url.Values{"title": {"Mine"}, "body": {"x"}}).Code)
	assert.Equal(t, http.StatusForbidden, bob.post("/"+itoa(widget.ID)+"/delete", nil).Code)

	rec := alice.get(updatePath)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "desc")

	rec = alice.post(updatePath, url.Values{"title": {""}, "body": {"desc2"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Title is required.")

	assertRedirect(t, alice.post(updatePath, url.Values{"title": {"Widget"}, "body": {"desc2"}}), "/")
	page = bob.get("/").Body.String()
	assert.Contains(t, page, "desc2")
	assert.NotContains(t, page, "Edit")
}

func TestCreateRequiresTitle(t *testing.T) {
	app := newTestApp(t, testConfig())
	b := newBrowser(t, NewRouter(app))
	b.signUp("alice", "pw")

	assert.Equal(t, http.StatusOK, b.get("/create").Code)
	rec := b.post("/create", url.Values{"title": {""}, "body": {"kept body"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Title is required.")
	assert.Contains(t, rec.Body.String(), "kept body")
	assert.Equal(t, int64(0), countRows(t, app.DB, &model.Post{}))
}

func TestDeletePost(t *testing.T) {
	app := newTestApp(t, testConfig())
	b := newBrowser(t, NewRouter(app))
	b.signUp("alice", "pw")
	b.post("/create", url.Values{"title": {"Widget"}, "body": {"desc"}})

	rec := b.post("/99/delete", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Post id 99")
	assert.Equal(t, http.StatusNotFound, b.post("/abc/delete", nil).Code)
	assert.Equal(t, http.StatusNotFound, b.get("/99/update").Code)

	var post model.Post
	require.NoError(t, app.DB.First(&post).Error)
	assertRedirect(t, b.post("/"+itoa(post.ID)+"/delete", nil), "/")
	assert.Equal(t, int64(0), countRows(t, app.DB, &model.Post{}))
}

func TestMarkSoldOutIsIdempotent(t *testing.T) {
	app := newTestApp(t, testConfig())
	b := newBrowser(t, NewRouter(app))
	b.signUp("alice", "pw")
	b.post("/create", url.Values{"title": {"Widget"}, "body": {"desc"}})

	var post model.Post
	require.NoError(t, app.DB.First(&post).Error)
	form := url.Values{"selected_posts": {itoa(post.ID), "999", "junk"}}

	assertRedirect(t, b.post("/", form), "/auth/payment")
	assertRedirect(t, b.post("/", form), "/auth/payment")

	require.NoError(t, app.DB.First(&post, post.ID).Error)
	assert.Equal(t, "desc\n << sold out >>", post.Body)
	assert.Equal(t, 1, strings.Count(post.Body, model.SoldOutMarker))
}

func TestSearch(t *testing.T) {
	app := newTestApp(t, testConfig())
	b := newBrowser(t, NewRouter(app))
	b.signUp("alice", "pw")
	b.post("/create", url.Values{"title": {"Blue Widget"}, "body": {"old one"}})
	b.post("/create", url.Values{"title": {"Red Widget"}, "body": {"new one"}})

	anon := newBrowser(t, b.router)
	rec := anon.post("/", url.Values{"action": {"Search"}, "search_word": {"Widget"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Red Widget")
	assert.NotContains(t, rec.Body.String(), "Blue Widget")

	assertRedirect(t, anon.post("/", url.Values{"action": {"Search"}, "search_word": {"widget"}}), "/")
	assertRedirect(t, anon.post("/", url.Values{"action": {"Search"}, "search_word": {"   "}}), "/")
	assertRedirect(t, anon.post("/", url.Values{"action": {"Search"}}), "/")
}

func TestCreditCardAndPayment(t *testing.T) {
	app := newTestApp(t, testConfig())
	b := newBrowser(t, NewRouter(app))
	b.signUp("alice", "pw")

	assertRedirect(t, b.get("/auth/payment"), "/auth/credit_card")
	assert.Equal(t, http.StatusOK, b.get("/auth/credit_card").Code)

	rec := b.post("/auth/credit_card", url.Values{"card_number": {"4111111111111111"}, "expiration_date": {"12/30"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Credit card is required.")

	card := url.Values{
		"card_number":     {"4111111111111111"},
		"expiration_date": {"12/30"},
		"security_code":   {"987"},
	}
	assertRedirect(t, b.post("/auth/credit_card", card), "/")
	card.Set("card_number", "5500000000000004")
	assertRedirect(t, b.post("/auth/credit_card", card), "/")
	assert.Equal(t, int64(1), countRows(t, app.DB, &model.CreditCard{}))

	rec = b.get("/auth/payment")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "************0004")
	assert.Contains(t, body, "12/30")
	assert.NotContains(t, body, "5500000000000004")
	assert.NotContains(t, body, "987")

	assertRedirect(t, b.post("/auth/payment", nil), "/")
}

func TestLogoutEndsSession(t *testing.T) {
	app := newTestApp(t, testConfig())
	b := newBrowser(t, NewRouter(app))
	b.signUp("alice", "pw")
	assert.Equal(t, http.StatusOK, b.get("/create").Code)

	assertRedirect(t, b.get("/auth/logout"), "/")
	assert.Empty(t, b.session)
	assertRedirect(t, b.get("/create"), "/auth/login")
}

func TestLogoutRevokesTokenWithRedis(t *testing.T) {
	srv := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Redis = config.RedisConfig{Enabled: true, Addr: srv.Addr(), PostListTTLSeconds: 30}
	app := newTestApp(t, cfg)
	app.Redis = redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = app.Redis.Close() })

	b := newBrowser(t, NewRouter(app))
	b.signUp("alice", "pw")
	stolen := b.session

	b.post("/create", url.Values{"title": {"Cached"}, "body": {"v1"}})
	assert.Contains(t, b.get("/").Body.String(), "v1")
	assert.True(t, srv.Exists("shop:posts:index:1"))

	assertRedirect(t, b.get("/auth/logout"), "/")

	replay := newBrowser(t, b.router)
	replay.session = stolen
	assertRedirect(t, replay.get("/create"), "/auth/login")
}

func TestAuthRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{AuthPerMinute: 1, AuthBurst: 1}
	b := newBrowser(t, NewRouter(newTestApp(t, cfg)))

	form := url.Values{"username": {"alice"}, "password": {"pw"}}
	assert.Equal(t, http.StatusOK, b.post("/auth/login", form).Code)
	assert.Equal(t, http.StatusTooManyRequests, b.post("/auth/login", form).Code)
	assert.Equal(t, http.StatusOK, b.get("/auth/login").Code)
}

func postLoginFrom(router http.Handler, forwardedFor string) int {
	form := url.Values{"username": {"alice"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{AuthPerMinute: 1, AuthBurst: 1}
	router := NewRouter(newTestApp(t, cfg))

	throttled := 0
	for i := 1; i <= 20; i++ {
		if postLoginFrom(router, "10.0.0."+strconv.Itoa(i)) == http.StatusTooManyRequests {
			throttled++
		}
	}
	assert.Equal(t, 19, throttled)
}

func TestAuthRateLimitUsesForwardedForFromTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{AuthPerMinute: 1, AuthBurst: 1}
	// httptest requests come from 192.0.2.1.
	cfg.App.TrustedProxies = []string{"192.0.2.0/24"}
	router := NewRouter(newTestApp(t, cfg))

	assert.Equal(t, http.StatusOK, postLoginFrom(router, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, postLoginFrom(router, "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, postLoginFrom(router, "10.0.0.1"))
}

func TestHealthz(t *testing.T) {
	b := newBrowser(t, NewRouter(newTestApp(t, testConfig())))

	rec := b.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		App          string                    `json:"app"`
		Dependencies map[string]map[string]any `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "online-shopping", body.App)
	assert.Equal(t, true, body.Dependencies["database"]["ok"])
	assert.NotContains(t, body.Dependencies, "redis")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
