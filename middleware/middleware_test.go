package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HSouheill/microtask_backend/models"
	"github.com/HSouheill/microtask_backend/repositories/memory"
	"github.com/HSouheill/microtask_backend/services"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func get(e *echo.Echo, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimit_BlocksAfterBurst(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return clock }

	e := echo.New()
	e.Use(rl.RateLimit())
	e.GET("/jwt", okHandler)
	e.GET("/tasks", okHandler)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(e, "/jwt", "10.0.0.1").Code, "request %d", i)
	}
	rec := get(e, "/jwt", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RateLimited")

	// The whole address is blocked, other callers are not.
	assert.Equal(t, http.StatusTooManyRequests, get(e, "/tasks", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, get(e, "/jwt", "10.0.0.2").Code)

	clock = clock.Add(2 * time.Minute)
	rl.Cleanup()
	rl.mu.Lock()
	_, blocked := rl.blockedIPs["10.0.0.1"]
	_, kept := rl.limiters["10.0.0.2|/jwt"]
	rl.mu.Unlock()
	assert.False(t, blocked)
	assert.True(t, kept)
	assert.Equal(t, http.StatusOK, get(e, "/jwt", "10.0.0.1").Code)
}

func TestRateLimit_DefaultBucketIsShared(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return clock }
	rl.defaultLimit = endpointLimit{limit: 1, burst: 2}

	e := echo.New()
	e.Use(rl.RateLimit())
	e.GET("/tasks", okHandler)
	e.GET("/top-workers", okHandler)

	assert.Equal(t, http.StatusOK, get(e, "/tasks", "10.0.0.3").Code)
	assert.Equal(t, http.StatusOK, get(e, "/top-workers", "10.0.0.3").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(e, "/tasks", "10.0.0.3").Code)
}

func TestRateLimit_CleanupEvictsIdleLimiters(t *testing.T) {
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter()
	rl.now = func() time.Time { return clock }

	e := echo.New()
	e.Use(rl.RateLimit())
	e.GET("/tasks", okHandler)

	for i := 0; i < 50; i++ {
		assert.Equal(t, http.StatusOK, get(e, "/tasks", fmt.Sprintf("10.1.0.%d", i)).Code)
	}
	clock = clock.Add(rl.idleTimeout / 2)
	assert.Equal(t, http.StatusOK, get(e, "/tasks", "10.1.0.7").Code)

	clock = clock.Add(rl.idleTimeout/2 + time.Second)
	rl.Cleanup()
	rl.mu.Lock()
	remaining := len(rl.limiters)
	_, active := rl.limiters["10.1.0.7|*"]
	rl.mu.Unlock()
	assert.Equal(t, 1, remaining)
	assert.True(t, active)

	// An evicted caller starts over with a full bucket.
	assert.Equal(t, http.StatusOK, get(e, "/tasks", "10.1.0.3").Code)
}

func newIdentity(t *testing.T) (*services.IdentityService, services.Stores) {
	t.Helper()
	store := memory.New()
	stores := services.Stores{Users: store.Users()}
	return services.NewIdentityService("middleware-secret", time.Hour, stores.Users), stores
}

func TestJWTMiddleware(t *testing.T) {
	ids, _ := newIdentity(t)
	token, err := ids.IssueToken("worker@example.com")
	require.NoError(t, err)

	e := echo.New()
	var seen *services.Identity
	h := JWTMiddleware(ids)(func(c echo.Context) error {
		seen = GetIdentity(c)
		return nil
	})

	for name, setup := range map[string]func(*http.Request){
		"header": func(r *http.Request) { r.Header.Set(echo.HeaderAuthorization, "Bearer "+token) },
		"query": func(r *http.Request) {
			q := r.URL.Query()
			q.Set("token", token)
			r.URL.RawQuery = q.Encode()
		},
	} {
		t.Run(name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/worker-status", nil)
			setup(req)
			require.NoError(t, h(e.NewContext(req, httptest.NewRecorder())))
			require.NotNil(t, seen)
			assert.Equal(t, "worker@example.com", seen.Email)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/worker-status", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer nope")
	assert.ErrorIs(t, h(e.NewContext(req, httptest.NewRecorder())), models.ErrUnauthorized)

	req = httptest.NewRequest(http.MethodGet, "/worker-status", nil)
	assert.ErrorIs(t, h(e.NewContext(req, httptest.NewRecorder())), models.ErrUnauthorized)
}

func TestRequireRole(t *testing.T) {
	ids, stores := newIdentity(t)
	_, _, err := stores.Users.Ensure(context.Background(), &models.User{Email: "buyer@example.com", Role: models.RoleBuyer})
	require.NoError(t, err)

	e := echo.New()
	run := func(identity *services.Identity, roles ...models.Role) (*models.User, error) {
		var loaded *models.User
		h := RequireRole(ids, roles...)(func(c echo.Context) error {
			loaded = GetUser(c)
			return nil
		})
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		if identity != nil {
			c.Set(identityKey, identity)
		}
		return loaded, h(c)
	}

	buyer := &services.Identity{Email: "buyer@example.com"}

	user, err := run(buyer, models.RoleBuyer)
	require.NoError(t, err)
	assert.Equal(t, models.RoleBuyer, user.Role)

	_, err = run(buyer)
	assert.NoError(t, err)

	_, err = run(buyer, models.RoleAdmin)
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = run(&services.Identity{Email: "ghost@example.com"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = run(nil, models.RoleBuyer)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID(), SecurityHeaders())
	e.GET("/health", okHandler)

	rec := get(e, "/health", "10.0.0.9")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}
