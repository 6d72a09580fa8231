package firebase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"

	"creative_cure_backend/internal/config"
)

var (
	// ErrTokenRejected means the provider answered and refused the token.
	ErrTokenRejected = errors.New("session token rejected")
	// ErrProviderUnavailable means the provider could not be consulted.
	ErrProviderUnavailable = errors.New("auth provider unavailable")
	// ErrCredentialsRejected wraps provider refusals on signup and sign-in; the
	// provider's own message is kept in the error text.
	ErrCredentialsRejected = errors.New("credentials rejected")
)

// VerifiedToken is the part of a verified ID token the service relies on.
type VerifiedToken struct {
	UID   string
	Email string
	Name  string
}

// SignInResult carries the tokens issued by an email/password sign-in.
type SignInResult struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName,omitempty"`
	IDToken      string    `json:"idToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AuthService wraps Firebase Auth (Admin SDK) and the Identity Toolkit REST API.
type AuthService struct {
	authClient *auth.Client
	toolkit    *identitytoolkit.Service
	logger     *zap.Logger
}

// NewAuthService creates the auth service. Sign-in needs FIREBASE_WEB_API_KEY; without
// it the other operations still work and SignInWithPassword reports unavailability.
func NewAuthService(clients *Clients, cfg *config.Config, logger *zap.Logger) (*AuthService, error) {
	s := &AuthService{authClient: clients.Auth, logger: logger.Named("FirebaseAuth")}
	if cfg.FirebaseWebAPIKey != "" {
		toolkit, err := identitytoolkit.NewService(context.Background(), option.WithAPIKey(cfg.FirebaseWebAPIKey))
		if err != nil {
			return nil, fmt.Errorf("error creating identity toolkit client: %w", err)
		}
		s.toolkit = toolkit
	} else {
		logger.Warn("FIREBASE_WEB_API_KEY not set, email/password sign-in is disabled")
	}
	return s, nil
}

// VerifyIDToken verifies a Firebase ID token, including revocation, and classifies
// failures as rejected or unavailable.
func (s *AuthService) VerifyIDToken(ctx context.Context, idToken string) (*VerifiedToken, error) {
	if idToken == "" {
		return nil, fmt.Errorf("%w: ID token must not be empty", ErrTokenRejected)
	}

	token, err := s.authClient.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		if auth.IsIDTokenInvalid(err) || auth.IsIDTokenExpired(err) || auth.IsIDTokenRevoked(err) || auth.IsUserDisabled(err) {
			s.logger.Debug("Firebase ID token rejected", zap.Error(err))
			return nil, fmt.Errorf("%w: %s", ErrTokenRejected, err.Error())
		}
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, err.Error())
	}

	vt := &VerifiedToken{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		vt.Email = email
	}
	if name, ok := token.Claims["name"].(string); ok {
		vt.Name = name
	}
	s.logger.Debug("Firebase ID token verified successfully", zap.String("uid", token.UID))
	return vt, nil
}

// CreateAccount creates an email/password account with its display name set.
func (s *AuthService) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	record, err := s.authClient.CreateUser(ctx, params)
	if err != nil {
		s.logger.Info("Firebase rejected account creation", zap.String("email", email), zap.Error(err))
		return "", fmt.Errorf("%w: %s", ErrCredentialsRejected, err.Error())
	}
	s.logger.Info("Firebase account created", zap.String("uid", record.UID))
	return record.UID, nil
}

// UpdateDisplayName changes the display name stored by the provider.
func (s *AuthService) UpdateDisplayName(ctx context.Context, uid, displayName string) error {
	if _, err := s.authClient.UpdateUser(ctx, uid, (&auth.UserToUpdate{}).DisplayName(displayName)); err != nil {
		s.logger.Error("Failed to update display name", zap.String("uid", uid), zap.Error(err))
		return fmt.Errorf("failed to update display name: %w", err)
	}
	return nil
}

// SignInWithPassword exchanges email and password for an ID token.
func (s *AuthService) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	if s.toolkit == nil {
		return nil, fmt.Errorf("%w: email/password sign-in is not configured", ErrProviderUnavailable)
	}

	resp, err := s.toolkit.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		var gErr *googleapi.Error
		if errors.As(err, &gErr) && gErr.Code >= 400 && gErr.Code < 500 {
			return nil, fmt.Errorf("%w: %s", ErrCredentialsRejected, gErr.Message)
		}
		s.logger.Warn("Identity toolkit sign-in failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %s", ErrProviderUnavailable, err.Error())
	}

	return &SignInResult{
		UID:          resp.LocalId,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    expiresAt(time.Now(), resp.ExpiresIn),
	}, nil
}

// expiresAt converts the toolkit's lifetime in seconds into an absolute time.
func expiresAt(now time.Time, expiresIn int64) time.Time {
	return now.Add(time.Duration(expiresIn) * time.Second)
}

// RevokeRefreshTokens revokes all refresh tokens for a given user.
func (s *AuthService) RevokeRefreshTokens(ctx context.Context, uid string) error {
	if err := s.authClient.RevokeRefreshTokens(ctx, uid); err != nil {
		s.logger.Error("Failed to revoke refresh tokens", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	s.logger.Info("Successfully revoked refresh tokens for user", zap.String("uid", uid))
	return nil
}
