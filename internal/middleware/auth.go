package middleware

import (
	"context"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionResolver turns a bearer token into a session state.
type SessionResolver interface {
	Resolve(ctx context.Context, token string) session.State
}

// SessionMiddleware resolves the caller's session when a token is present and never
// rejects the request. Handlers read the outcome with session.FromContext.
func SessionMiddleware(resolver SessionResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		st := resolver.Resolve(c.Request.Context(), common.GetTokenFromContext(c))
		session.Store(c, st)
		if st.Status == session.StatusFailed {
			logger.Warn("Optional session could not be resolved", zap.Error(st.Err))
		}
		c.Next()
	}
}

// AuthMiddleware requires a signed-in session. A refused or missing token answers 401
// with the sign-in redirect; an unreachable provider answers 503.
func AuthMiddleware(resolver SessionResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := common.GetTokenFromContext(c)
		if token == "" {
			logger.Debug("Authorization header missing or malformed")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails(gin.H{
				"reason":   "Authorization header format must be 'Bearer <token>'.",
				"redirect": common.SignInPath,
			}))
			return
		}

		st := resolver.Resolve(c.Request.Context(), token)
		switch {
		case st.Status == session.StatusFailed:
			details := "The authentication provider is unavailable."
			if st.Err != nil {
				details = st.Err.Error()
			}
			common.RespondWithError(c, common.ErrServiceUnavailable.WithDetails(details))
			return
		case !st.SignedIn():
			reason := "Session is not valid."
			if st.Err != nil {
				reason = st.Err.Error()
			}
			logger.Warn("Token validation failed", zap.String("reason", reason))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails(gin.H{
				"reason":   reason,
				"redirect": common.SignInPath,
			}))
			return
		}

		session.Store(c, st)
		logger.Debug("User authenticated successfully",
			zap.String("userID", st.User.ID),
			zap.String("role", st.User.Role),
		)
		c.Next()
	}
}

// RoleAuthMiddleware creates a middleware to check if the authenticated user has one of the required roles.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := common.GetUserRoleFromContext(c)
		if userRole == "" {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("Unable to determine your role. Please contact support."))
			return
		}

		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}
