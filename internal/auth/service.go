// File: internal/auth/service.go
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/firebase"
	"creative_cure_backend/internal/session"
	"creative_cure_backend/internal/shared"

	"go.uber.org/zap"
)

// Service defines the account lifecycle operations.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*shared.Account, *firebase.SignInResult, error)
	Signin(ctx context.Context, req SigninRequest) (*shared.Account, *firebase.SignInResult, error)
	Signout(ctx context.Context, uid string) error
}

// ServiceImplementation implements Service.
type ServiceImplementation struct {
	identity IdentityProvider
	accounts AccountStore
	sessions SessionPublisher
	logger   *zap.Logger
}

var _ Service = (*ServiceImplementation)(nil)

// NewService creates a new auth service.
func NewService(identity IdentityProvider, accounts AccountStore, sessions SessionPublisher, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		identity: identity,
		accounts: accounts,
		sessions: sessions,
		logger:   logger.Named("AuthService"),
	}
}

// Signup creates the provider account with its display name, writes the account
// document and signs the new user in.
func (s *ServiceImplementation) Signup(ctx context.Context, req SignupRequest) (*shared.Account, *firebase.SignInResult, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := req.Role
	if role == "" {
		role = common.RolePatient
	}

	uid, err := s.identity.CreateAccount(ctx, email, req.Password, name)
	if err != nil {
		return nil, nil, providerError(err, common.ErrBadRequest)
	}

	account := &shared.Account{ID: uid, Name: name, Email: email, Role: role}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		// The provider account exists without a document; the session provider
		// reports it as undetermined until support repairs it.
		s.logger.Error("Account document write failed after signup", zap.String("userID", uid), zap.Error(err))
		return nil, nil, err
	}

	token, err := s.identity.SignInWithPassword(ctx, email, req.Password)
	if err != nil {
		s.logger.Warn("Signed up but automatic sign-in failed", zap.String("userID", uid), zap.Error(err))
		return account, nil, nil
	}
	s.logger.Info("User signed up", zap.String("userID", uid), zap.String("role", role))
	return account, token, nil
}

// Signin exchanges email and password for provider tokens.
func (s *ServiceImplementation) Signin(ctx context.Context, req SigninRequest) (*shared.Account, *firebase.SignInResult, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	token, err := s.identity.SignInWithPassword(ctx, email, req.Password)
	if err != nil {
		return nil, nil, providerError(err, common.ErrUnauthorized)
	}

	account, err := s.accounts.GetAccount(ctx, token.UID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Error("Failed to read account after sign-in", zap.String("userID", token.UID), zap.Error(err))
			return nil, nil, common.ErrServiceUnavailable.WithDetails(err.Error())
		}
		account = &shared.Account{ID: token.UID, Email: token.Email, Name: token.DisplayName}
	}
	return account, token, nil
}

// Signout revokes the user's refresh tokens and tells open streams to close.
func (s *ServiceImplementation) Signout(ctx context.Context, uid string) error {
	if err := s.identity.RevokeRefreshTokens(ctx, uid); err != nil {
		return common.ErrServiceUnavailable.WithDetails(err.Error())
	}
	s.sessions.Publish(session.Event{Type: session.EventSignedOut, UID: uid, At: time.Now().UTC()})
	s.logger.Info("User signed out", zap.String("userID", uid))
	return nil
}

// providerError maps provider failures onto the API envelope with the provider's
// message kept verbatim.
func providerError(err error, rejected *common.APIError) error {
	switch {
	case errors.Is(err, firebase.ErrCredentialsRejected):
		return rejected.WithDetails(strings.TrimPrefix(err.Error(), firebase.ErrCredentialsRejected.Error()+": "))
	case errors.Is(err, firebase.ErrProviderUnavailable):
		return common.ErrServiceUnavailable.WithDetails(err.Error())
	default:
		return err
	}
}
