package ports

import (
	"context"
	"time"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

// SessionStore persists sessions so they survive a process restart.
type SessionStore interface {
	Save(ctx context.Context, s *domain.Session, ttl time.Duration) error
	// Find returns domain.ErrSessionNotFound when the session was erased or expired.
	Find(ctx context.Context, sessionID string) (*domain.Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// AccountRepository stores the durable identities sessions are bound to.
type AccountRepository interface {
	Create(ctx context.Context, a *domain.Account) error
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// FindByHandle looks up an account by its normalised sign-in handle.
	FindByHandle(ctx context.Context, handle string) (*domain.Account, error)
	Touch(ctx context.Context, id, displayName string, at time.Time) error
}

// Credentials carries the role-specific sign-in material.
type Credentials struct {
	Passphrase  string // admin
	DisplayName string // submitter
	AccountID   string // submitter, optional: re-bind to an earlier account
}

// SignInResult is returned by a successful sign-in.
type SignInResult struct {
	Session *domain.Session
	Token   string
}

// SessionService manages the session lifecycle.
type SessionService interface {
	SignIn(ctx context.Context, role domain.Role, creds Credentials) (*SignInResult, error)
	SignOut(ctx context.Context, s *domain.Session) error
	Current(ctx context.Context) (*domain.Session, error)
	Restore(ctx context.Context, token string) (*domain.Session, error)
}
