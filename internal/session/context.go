package session

import (
	"creative_cure_backend/internal/common"

	"github.com/gin-gonic/gin"
)

// FromContext returns the state stored by the session middleware, or a pending
// state when the request has not been resolved.
func FromContext(c *gin.Context) State {
	if v, ok := c.Get(common.SessionKey); ok {
		if st, ok := v.(State); ok {
			return st
		}
	}
	return State{Status: StatusPending}
}

// Store saves st on the request and copies the identity into the flat context keys.
func Store(c *gin.Context, st State) {
	c.Set(common.SessionKey, st)
	if st.User != nil {
		c.Set(common.UserIDKey, st.User.ID)
		c.Set(common.UserEmailKey, st.User.Email)
		c.Set(common.UserRoleKey, st.User.Role)
	}
}
