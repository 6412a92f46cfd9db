package domain

import (
	"context"
	"time"
)

// Role is the trust tier of an authenticated session.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleSubmitter Role = "submitter"
)

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSubmitter
}

// AdminAccountID is the fixed account every admin session is bound to.
const AdminAccountID = "admin"

// Session is an authenticated identity. It lives only as long as the
// session store keeps it; it is never written to the profile store.
type Session struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account_id"`
	Role            Role      `json:"role"`
	DisplayName     string    `json:"display_name"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// IsAdmin reports whether the session may read all profiles.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Account is the durable identity a submitter is bound to. Its ID is issued
// once, at first sign-in, and never derived from the display name.
type Account struct {
	ID           string    `json:"id"`
	Handle       string    `json:"handle,omitempty"`
	Role         Role      `json:"role"`
	DisplayName  string    `json:"display_name"`
	CreatedAt    time.Time `json:"created_at"`
	LastSignInAt time.Time `json:"last_sign_in_at"`
}

type sessionCtxKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// SessionFromContext returns the session attached by WithSession, if any.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionCtxKey{}).(*Session)
	return s, ok && s != nil
}
