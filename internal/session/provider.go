// Package session resolves the caller's identity from the auth provider and fans
// session changes out to long-lived subscribers.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"creative_cure_backend/internal/common"
	"creative_cure_backend/internal/firebase"
	"creative_cure_backend/internal/shared"

	"go.uber.org/zap"
)

// Status of a session resolution.
type Status string

const (
	StatusPending Status = "pending"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// State is the outcome of Resolve. A ready state with a nil User is signed out.
type State struct {
	Status Status
	User   *shared.Account
	// Err explains a failed state or why a token was refused.
	Err error
}

// SignedIn reports whether the state carries an account.
func (s State) SignedIn() bool {
	return s.Status == StatusReady && s.User != nil
}

// RoleDetermined reports whether the account carries a known role.
func (s State) RoleDetermined() bool {
	return s.SignedIn() && common.IsKnownRole(s.User.Role)
}

// TokenVerifier checks a bearer token with the auth provider.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebase.VerifiedToken, error)
}

// EventType names a session change.
type EventType string

const EventSignedOut EventType = "signed_out"

// Event is delivered to subscribers of a uid.
type Event struct {
	Type EventType
	UID  string
	At   time.Time
}

// Listener receives events. It runs on the publisher's goroutine and must not block.
type Listener func(Event)

// Provider resolves sessions and keeps the per-uid subscriber registry.
type Provider struct {
	verifier TokenVerifier
	accounts shared.AccountService
	logger   *zap.Logger

	mu        sync.RWMutex
	nextID    uint64
	listeners map[string]map[uint64]Listener
}

// NewProvider creates a session provider.
func NewProvider(verifier TokenVerifier, accounts shared.AccountService, logger *zap.Logger) *Provider {
	return &Provider{
		verifier:  verifier,
		accounts:  accounts,
		logger:    logger.Named("SessionProvider"),
		listeners: make(map[string]map[uint64]Listener),
	}
}

// Resolve verifies token and loads the account document. A missing document still
// yields a signed-in state whose role is undetermined.
func (p *Provider) Resolve(ctx context.Context, token string) State {
	if token == "" {
		return State{Status: StatusReady}
	}

	verified, err := p.verifier.VerifyIDToken(ctx, token)
	if err != nil {
		if errors.Is(err, firebase.ErrTokenRejected) {
			return State{Status: StatusReady, Err: err}
		}
		p.logger.Error("Session provider unavailable", zap.Error(err))
		return State{Status: StatusFailed, Err: err}
	}

	account, err := p.accounts.GetAccount(ctx, verified.UID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			p.logger.Warn("Signed-in user has no account document", zap.String("userID", verified.UID))
			return State{Status: StatusReady, User: &shared.Account{
				ID:    verified.UID,
				Email: verified.Email,
				Name:  verified.Name,
			}}
		}
		p.logger.Error("Failed to read account document", zap.String("userID", verified.UID), zap.Error(err))
		return State{Status: StatusFailed, Err: err}
	}
	if account.Email == "" {
		account.Email = verified.Email
	}
	return State{Status: StatusReady, User: account}
}

// Subscribe registers l for events about uid. The returned function removes the
// subscription and is safe to call more than once.
func (p *Provider) Subscribe(uid string, l Listener) (unsubscribe func()) {
	p.mu.Lock()
	p.nextID++
	id := p.nextID
	if p.listeners[uid] == nil {
		p.listeners[uid] = make(map[uint64]Listener)
	}
	p.listeners[uid][id] = l
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.listeners[uid], id)
			if len(p.listeners[uid]) == 0 {
				delete(p.listeners, uid)
			}
		})
	}
}

// Publish delivers e to every current subscriber of e.UID.
func (p *Provider) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	p.mu.RLock()
	targets := make([]Listener, 0, len(p.listeners[e.UID]))
	for _, l := range p.listeners[e.UID] {
		targets = append(targets, l)
	}
	p.mu.RUnlock()

	for _, l := range targets {
		l(e)
	}
	p.logger.Debug("Session event published", zap.String("userID", e.UID), zap.String("type", string(e.Type)), zap.Int("subscribers", len(targets)))
}

// Subscribers returns the number of live subscriptions for uid.
func (p *Provider) Subscribers(uid string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.listeners[uid])
}
