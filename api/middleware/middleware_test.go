package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"catalance/internal/utils"

	"github.com/go-redis/redis/v9"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	manager := &utils.JWTManager{Secret: []byte("secret"), Issuer: "catalance", AccessTokenTTL: time.Hour}
	userID := uuid.New()
	token, _, err := manager.IssueAccessToken(userID.String(), "CLIENT", "a@b.com")
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, ok := UserIDFromContext(c)
		require.True(t, ok)
		role, _ := RoleFromContext(c)
		email, _ := EmailFromContext(c)
		return c.JSON(http.StatusOK, map[string]string{"id": id.String(), "role": role, "email": email})
	}, AuthMiddleware{JWT: manager}.RequireAuth)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(e, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
	assert.Contains(t, rec.Body.String(), `"role":"CLIENT"`)

	cases := map[string]string{
		"missing":      "",
		"wrong scheme": "Basic " + token,
		"garbage":      "Bearer not-a-jwt",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
		})
	}
}

func TestRequireAuth_RejectsForeignSecret(t *testing.T) {
	other := &utils.JWTManager{Secret: []byte("other"), Issuer: "catalance"}
	token, _, err := other.IssueAccessToken(uuid.NewString(), "ADMIN", "a@b.com")
	require.NoError(t, err)

	e := echo.New()
	e.GET("/me", func(c echo.Context) error { return c.NoContent(http.StatusOK) },
		AuthMiddleware{JWT: &utils.JWTManager{Secret: []byte("secret"), Issuer: "catalance"}}.RequireAuth)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	withRole := func(role string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				SetAuthContext(c, uuid.New(), role, "a@b.com")
				return next(c)
			}
		}
	}
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/admin", ok, withRole("ADMIN"), RequireRole("ADMIN"))
	e.GET("/client", ok, withRole("CLIENT"), RequireRole("ADMIN"))
	e.GET("/anon", ok, RequireRole("ADMIN"))

	assert.Equal(t, http.StatusOK, serve(e, httptest.NewRequest(http.MethodGet, "/admin", nil)).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, httptest.NewRequest(http.MethodGet, "/client", nil)).Code)
	assert.Equal(t, http.StatusForbidden, serve(e, httptest.NewRequest(http.MethodGet, "/anon", nil)).Code)
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "auth:10.0.0.1"))
	assert.True(t, limiter.Allow(ctx, "auth:10.0.0.1"))
	assert.False(t, limiter.Allow(ctx, "auth:10.0.0.1"))
	assert.True(t, limiter.Allow(ctx, "auth:10.0.0.2"))
}

func TestRateLimiter_ForgetsIdleKeys(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(rate.Every(time.Hour), 1, time.Minute)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	assert.True(t, limiter.Allow(ctx, "a"))
	now = now.Add(2 * time.Minute)
	assert.True(t, limiter.Allow(ctx, "b"))

	limiter.mutex.Lock()
	_, stillTracked := limiter.limiters["a"]
	limiter.mutex.Unlock()
	assert.False(t, stillTracked)
}

func TestLimitByIP(t *testing.T) {
	e := echo.New()
	limiter := NewRateLimiter(rate.Every(time.Hour), 1, 0)
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, LimitByIP(limiter, "auth"))

	first := httptest.NewRequest(http.MethodPost, "/login", nil)
	first.RemoteAddr = "10.0.0.1:5000"
	assert.Equal(t, http.StatusOK, serve(e, first).Code)

	second := httptest.NewRequest(http.MethodPost, "/login", nil)
	second.RemoteAddr = "10.0.0.1:5001"
	assert.Equal(t, http.StatusTooManyRequests, serve(e, second).Code)

	other := httptest.NewRequest(http.MethodPost, "/login", nil)
	other.RemoteAddr = "10.0.0.9:5001"
	assert.Equal(t, http.StatusOK, serve(e, other).Code)
}

func TestRedisRateLimiter_FailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	logger, hook := logtest.NewNullLogger()

	limiter := NewRedisRateLimiter(client, logger, 1, time.Minute)
	assert.True(t, limiter.Allow(context.Background(), "auth:10.0.0.1"))
	assert.True(t, limiter.Allow(context.Background(), "auth:10.0.0.1"))
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, "could not check rate limit, allowing request", hook.LastEntry().Message)
}
