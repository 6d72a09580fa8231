package common

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthorizationHeader carries the provider-issued ID token as "Bearer <token>".
const AuthorizationHeader = "Authorization"

const bearerScheme = "bearer"

// Keys under which the session middleware stores request state.
const (
	SessionKey   = "session"
	UserIDKey    = "userID"
	UserEmailKey = "userEmail"
	UserRoleKey  = "userRole"
)

// GetTokenFromContext returns the bearer token of the request, or "" when the
// header is missing or uses another scheme.
func GetTokenFromContext(c *gin.Context) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(c.GetHeader(AuthorizationHeader)), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetUserIDFromContext returns the signed-in user's id.
func GetUserIDFromContext(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetUserRoleFromContext returns the role on the signed-in user's account document.
func GetUserRoleFromContext(c *gin.Context) string {
	return c.GetString(UserRoleKey)
}
