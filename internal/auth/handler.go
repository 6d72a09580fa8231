// File: internal/auth/handler.go
package auth

import (
	"errors"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/session"
	"creative_cure_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes sets up the routes for authentication operations.
// sessionMW resolves the session without rejecting; authMW requires one.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, sessionMW gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", h.signup)
		authGroup.POST("/signin", h.signin)
		authGroup.POST("/signout", authMW, h.signout)
	}
	router.GET("/session", sessionMW, h.getSession)
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("Auth: Invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return false
	}
	return true
}

func (h *Handler) signup(c *gin.Context) {
	var req SignupRequest
	if !h.bind(c, &req) {
		return
	}
	account, token, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "User registered successfully.", AuthResponse{
		User:  shared.ToAccountResponse(account),
		Token: token,
	})
}

func (h *Handler) signin(c *gin.Context) {
	var req SigninRequest
	if !h.bind(c, &req) {
		return
	}
	account, token, err := h.service.Signin(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Login successful.", AuthResponse{
		User:  shared.ToAccountResponse(account),
		Token: token,
	})
}

func (h *Handler) signout(c *gin.Context) {
	if err := h.service.Signout(c.Request.Context(), common.GetUserIDFromContext(c)); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Signed out.", gin.H{"redirect": common.SignInPath})
}

func (h *Handler) getSession(c *gin.Context) {
	st := session.FromContext(c)
	resp := SessionResponse{Status: string(st.Status)}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	switch {
	case st.Status == session.StatusFailed:
		common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails(resp))
		return
	case st.SignedIn():
		user := shared.ToAccountResponse(st.User)
		resp.User = &user
	default:
		resp.Redirect = common.SignInPath
	}
	common.RespondOK(c, "Session resolved.", resp)
}
