package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/marzelet/intern-registry/internal/core/domain"
	"github.com/marzelet/intern-registry/internal/core/ports"
)

const adminDisplayName = "Admin"

// SessionConfig carries the secrets and lifetimes of SessionService.
type SessionConfig struct {
	// AdminPassphraseHash is the bcrypt hash of the shared admin passphrase.
	AdminPassphraseHash string
	JWTSecret           string
	TTL                 time.Duration
}

// SessionService implements sign-in, sign-out and session restore.
type SessionService struct {
	accounts  ports.AccountRepository
	store     ports.SessionStore
	resolver  *IdentityResolver
	adminHash []byte
	jwtSecret string
	ttl       time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

func NewSessionService(
	accounts ports.AccountRepository,
	store ports.SessionStore,
	resolver *IdentityResolver,
	cfg SessionConfig,
	log zerolog.Logger,
) *SessionService {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &SessionService{
		accounts:  accounts,
		store:     store,
		resolver:  resolver,
		adminHash: []byte(cfg.AdminPassphraseHash),
		jwtSecret: cfg.JWTSecret,
		ttl:       cfg.TTL,
		now:       func() time.Time { return time.Now().UTC() },
		log:       log,
	}
}

// SignIn authenticates role with creds and persists the new session.
func (s *SessionService) SignIn(ctx context.Context, role domain.Role, creds ports.Credentials) (*ports.SignInResult, error) {
	now := s.now()

	var session *domain.Session
	switch role {
	case domain.RoleAdmin:
		if creds.Passphrase == "" || len(s.adminHash) == 0 {
			return nil, domain.ErrInvalidCredentials
		}
		if bcrypt.CompareHashAndPassword(s.adminHash, []byte(creds.Passphrase)) != nil {
			s.log.Warn().Str("role", string(role)).Msg("admin sign-in rejected")
			return nil, domain.ErrInvalidCredentials
		}
		session = s.newSession(domain.AdminAccountID, role, adminDisplayName, now)

	case domain.RoleSubmitter:
		name := strings.TrimSpace(creds.DisplayName)
		if name == "" {
			return nil, domain.ErrInvalidCredentials
		}
		account, err := s.bindAccount(ctx, name, strings.TrimSpace(creds.AccountID), now)
		if err != nil {
			return nil, fmt.Errorf("sign in: %w", err)
		}
		session = s.newSession(account.ID, role, name, now)

	default:
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.store.Save(ctx, session, s.ttl); err != nil {
		return nil, fmt.Errorf("sign in: persist session: %w", err)
	}

	token, err := s.generateToken(session)
	if err != nil {
		_ = s.store.Delete(ctx, session.ID)
		return nil, fmt.Errorf("sign in: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID).
		Str("account_id", session.AccountID).
		Str("role", string(session.Role)).
		Msg("signed in")

	return &ports.SignInResult{Session: session, Token: token}, nil
}

// bindAccount returns the durable account for a submitter, issuing one on
// first sign-in. A known accountID always wins over the display name.
func (s *SessionService) bindAccount(ctx context.Context, name, accountID string, now time.Time) (*domain.Account, error) {
	if accountID != "" {
		a, err := s.accounts.FindByID(ctx, accountID)
		switch {
		case err == nil && a.Role == domain.RoleSubmitter:
			return s.touch(ctx, a, name, now)
		case err == nil, errors.Is(err, domain.ErrAccountNotFound):
			s.log.Debug().Str("account_id", accountID).Msg("unknown account id, issuing a new account")
		default:
			return nil, err
		}
	}

	handle := s.resolver.Handle(name)
	if handle != "" {
		a, err := s.accounts.FindByHandle(ctx, handle)
		if err == nil {
			return s.touch(ctx, a, name, now)
		}
		if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
	}

	a := &domain.Account{
		ID:           uuid.NewString(),
		Handle:       handle,
		Role:         domain.RoleSubmitter,
		DisplayName:  name,
		CreatedAt:    now,
		LastSignInAt: now,
	}
	if err := s.accounts.Create(ctx, a); err != nil {
		// Lost a race for the same handle: bind to the winner.
		if handle != "" && errors.Is(err, domain.ErrAccountExists) {
			existing, ferr := s.accounts.FindByHandle(ctx, handle)
			if ferr != nil {
				return nil, ferr
			}
			return s.touch(ctx, existing, name, now)
		}
		return nil, err
	}
	s.log.Info().Str("account_id", a.ID).Msg("account issued")
	return a, nil
}

func (s *SessionService) touch(ctx context.Context, a *domain.Account, name string, now time.Time) (*domain.Account, error) {
	if err := s.accounts.Touch(ctx, a.ID, name, now); err != nil {
		return nil, err
	}
	a.DisplayName = name
	a.LastSignInAt = now
	return a, nil
}

func (s *SessionService) newSession(accountID string, role domain.Role, name string, now time.Time) *domain.Session {
	return &domain.Session{
		ID:              uuid.NewString(),
		AccountID:       accountID,
		Role:            role,
		DisplayName:     name,
		AuthenticatedAt: now,
		ExpiresAt:       now.Add(s.ttl),
	}
}

// SignOut erases the persisted session. Signing out twice is not an error.
func (s *SessionService) SignOut(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return domain.ErrSessionNotFound
	}
	if err := s.store.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	s.log.Info().Str("session_id", session.ID).Msg("signed out")
	return nil
}

// Current returns the session attached to ctx.
func (s *SessionService) Current(ctx context.Context) (*domain.Session, error) {
	session, ok := domain.SessionFromContext(ctx)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Restore rebuilds the session a token was issued for. It fails with
// domain.ErrSessionNotFound once the session was signed out or expired.
func (s *SessionService) Restore(ctx context.Context, token string) (*domain.Session, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrSessionNotFound
	}

	sid, _ := claims["sid"].(string)
	accountID, _ := claims["account_id"].(string)
	if sid == "" {
		return nil, domain.ErrSessionNotFound
	}

	session, err := s.store.Find(ctx, sid)
	if err != nil {
		return nil, err
	}
	if session.AccountID != accountID || session.Expired(s.now()) {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) generateToken(session *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sid":        session.ID,
		"account_id": session.AccountID,
		"role":       string(session.Role),
		"name":       session.DisplayName,
		"iat":        session.AuthenticatedAt.Unix(),
		"exp":        session.ExpiresAt.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
