// File: internal/auth/interfaces.go
package auth

import (
	"context"

	"creative_cure_backend/internal/firebase"
	"creative_cure_backend/internal/session"
	"creative_cure_backend/internal/shared"
)

// IdentityProvider is the part of the auth provider the account flows need.
// firebase.AuthService implements it.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)
	SignInWithPassword(ctx context.Context, email, password string) (*firebase.SignInResult, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// AccountStore writes and reads account documents. user.ServiceImplementation implements it.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *shared.Account) error
	GetAccount(ctx context.Context, id string) (*shared.Account, error)
}

// SessionPublisher notifies long-lived session subscribers.
type SessionPublisher interface {
	Publish(e session.Event)
}
