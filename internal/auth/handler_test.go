package auth

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/firebase"
	"creative_cure_backend/internal/middleware"
	"creative_cure_backend/internal/session"
	"creative_cure_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type fixedResolver session.State

func (f fixedResolver) Resolve(context.Context, string) session.State { return session.State(f) }

func setupAuthRouter(st session.State) (*gin.Engine, *MockIdentityProvider, *MockAccountStore) {
	gin.SetMode(gin.TestMode)
	common.RegisterValidators()
	svc, idp, accounts, _ := setupAuthService()
	h := NewHandler(svc, zap.NewNop())
	r := gin.New()
	resolver := fixedResolver(st)
	h.RegisterRoutes(r.Group("/api/v1"),
		middleware.AuthMiddleware(resolver, zap.NewNop()),
		middleware.SessionMiddleware(resolver, zap.NewNop()))
	return r, idp, accounts
}

func TestSignupHandler_ValidationError(t *testing.T) {
	r, idp, _ := setupAuthRouter(session.State{Status: session.StatusReady})
	w := httptest.NewRecorder()
	body := `{"name":"   ","email":"not-an-email","password":"123"}`
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	idp.AssertNotCalled(t, "CreateAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSignupHandler_Created(t *testing.T) {
	r, idp, accounts := setupAuthRouter(session.State{Status: session.StatusReady})
	idp.On("CreateAccount", mock.Anything, "a@example.com", "secret1", "Ada").Return("u1", nil)
	accounts.On("CreateAccount", mock.Anything, mock.Anything).Return(nil)
	idp.On("SignInWithPassword", mock.Anything, "a@example.com", "secret1").Return(&firebase.SignInResult{UID: "u1", IDToken: "tok"}, nil)

	w := httptest.NewRecorder()
	body := `{"name":"Ada","email":"a@example.com","password":"secret1"}`
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signup", bytes.NewBufferString(body)))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"patient"`)
	assert.Contains(t, w.Body.String(), `"idToken":"tok"`)
}

func TestSessionHandler(t *testing.T) {
	t.Run("signed out points at sign-in", func(t *testing.T) {
		r, _, _ := setupAuthRouter(session.State{Status: session.StatusReady})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"redirect":"/signin"`)
	})

	t.Run("signed in", func(t *testing.T) {
		r, _, _ := setupAuthRouter(session.State{Status: session.StatusReady, User: &shared.Account{ID: "p1", Role: common.RolePatient}})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ready"`)
		assert.Contains(t, w.Body.String(), `"id":"p1"`)
	})

	t.Run("failed", func(t *testing.T) {
		r, _, _ := setupAuthRouter(session.State{Status: session.StatusFailed, Err: firebase.ErrProviderUnavailable})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestSignoutHandler_RequiresSession(t *testing.T) {
	r, idp, _ := setupAuthRouter(session.State{Status: session.StatusReady})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/signout", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	idp.AssertNotCalled(t, "RevokeRefreshTokens", mock.Anything, mock.Anything)
}

func TestSignoutHandler(t *testing.T) {
	r, idp, _ := setupAuthRouter(session.State{Status: session.StatusReady, User: &shared.Account{ID: "p1", Role: common.RolePatient}})
	idp.On("RevokeRefreshTokens", mock.Anything, "p1").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/signout", nil)
	req.Header.Set(common.AuthorizationHeader, "Bearer tok")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	idp.AssertExpectations(t)
}
