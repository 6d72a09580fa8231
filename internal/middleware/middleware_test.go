package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/config"
	"creative_cure_backend/internal/session"
	"creative_cure_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubResolver map[string]session.State

func (s stubResolver) Resolve(_ context.Context, token string) session.State {
	if st, ok := s[token]; ok {
		return st
	}
	return session.State{Status: session.StatusReady}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": common.GetUserIDFromContext(c), "role": common.GetUserRoleFromContext(c)})
	})
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	resolver := stubResolver{
		"good":    {Status: session.StatusReady, User: &shared.Account{ID: "p1", Role: common.RolePatient}},
		"revoked": {Status: session.StatusReady, Err: errors.New("session token rejected: revoked")},
		"down":    {Status: session.StatusFailed, Err: errors.New("auth provider unavailable")},
	}
	r := newRouter(AuthMiddleware(resolver, zap.NewNop()))

	t.Run("signed in", func(t *testing.T) {
		w := do(r, "good")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"p1","role":"patient"}`, w.Body.String())
	})

	t.Run("missing token redirects to sign-in", func(t *testing.T) {
		w := do(r, "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
		var body struct {
			Details map[string]string `json:"details"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, common.SignInPath, body.Details["redirect"])
	})

	t.Run("rejected token carries provider reason", func(t *testing.T) {
		w := do(r, "revoked")
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "revoked")
	})

	t.Run("provider failure is surfaced", func(t *testing.T) {
		w := do(r, "down")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "auth provider unavailable")
	})
}

func TestRoleAuthMiddleware(t *testing.T) {
	resolver := stubResolver{
		"patient":  {Status: session.StatusReady, User: &shared.Account{ID: "p1", Role: common.RolePatient}},
		"nobody":   {Status: session.StatusReady, User: &shared.Account{ID: "u1"}},
		"therapis": {Status: session.StatusReady, User: &shared.Account{ID: "t1", Role: common.RoleTherapist}},
	}
	r := newRouter(AuthMiddleware(resolver, zap.NewNop()), RoleAuthMiddleware(common.RoleTherapist))

	assert.Equal(t, http.StatusOK, do(r, "therapis").Code)
	assert.Equal(t, http.StatusForbidden, do(r, "patient").Code)
	w := do(r, "nobody")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Unable to determine your role")
}

func TestSessionMiddleware_NeverRejects(t *testing.T) {
	resolver := stubResolver{"down": {Status: session.StatusFailed, Err: errors.New("x")}}
	r := gin.New()
	r.Use(SessionMiddleware(resolver, zap.NewNop()))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, string(session.FromContext(c).Status))
	})

	w := do(r, "down")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "failed", w.Body.String())
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()
	r := newRouter(RateLimit(rl))

	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusOK, do(r, "").Code)
	w := do(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop()))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestErrorHandler_APIErrorFromContext(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(common.ErrWriteFailed.WithDetails("disk full"))
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "disk full")
}

func TestZapLogger_SetsRequestID(t *testing.T) {
	r := newRouter(ZapLogger(zap.NewNop(), &config.Config{GinMode: "release"}))

	w := do(r, "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestMetrics_CountsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	r := newRouter(m.Handler())

	do(r, "")
	do(r, "")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("/me", http.MethodGet, "200")))
	count, err := testutil.GatherAndCount(reg, "creative_cure_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
