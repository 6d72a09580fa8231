// File: internal/auth/model.go
package auth

import (
	"creative_cure_backend/internal/firebase"
	"creative_cure_backend/internal/shared"
)

// SignupRequest defines the structure for signup requests.
type SignupRequest struct {
	Name     string `json:"name" binding:"required,notblank,max=200"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=patient therapist"`
}

// SigninRequest defines the structure for email/password sign-in.
type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by signup and sign-in. Token is nil when sign-in is not
// configured and the client has to sign in with the provider SDK.
type AuthResponse struct {
	User  shared.AccountResponse `json:"user"`
	Token *firebase.SignInResult `json:"token,omitempty"`
}

// SessionResponse describes GET /session.
type SessionResponse struct {
	Status   string                  `json:"status"`
	User     *shared.AccountResponse `json:"user,omitempty"`
	Redirect string                  `json:"redirect,omitempty"`
	Error    string                  `json:"error,omitempty"`
}
