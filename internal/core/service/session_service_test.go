package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/marzelet/intern-registry/internal/core/domain"
	"github.com/marzelet/intern-registry/internal/core/ports"
)

const testPassphrase = "231805"

func newTestSessionService(t *testing.T, policy KeyPolicy) (*SessionService, *stubAccountRepo, *stubSessionStore) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassphrase), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash passphrase: %v", err)
	}
	accounts := newStubAccountRepo()
	store := newStubSessionStore()
	svc := NewSessionService(accounts, store, NewIdentityResolver(policy), SessionConfig{
		AdminPassphraseHash: string(hash),
		JWTSecret:           "secret",
		TTL:                 time.Hour,
	}, discardLogger)
	return svc, accounts, store
}

func TestSessionService_AdminSignIn(t *testing.T) {
	svc, _, store := newTestSessionService(t, KeyPolicyAccount)

	res, err := svc.SignIn(context.Background(), domain.RoleAdmin, ports.Credentials{Passphrase: testPassphrase})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if res.Session.Role != domain.RoleAdmin || res.Session.AccountID != domain.AdminAccountID {
		t.Fatalf("unexpected session: %+v", res.Session)
	}
	if _, ok := store.sessions[res.Session.ID]; !ok {
		t.Fatalf("expected session to be persisted")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(res.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sid"] != res.Session.ID || claims["role"] != string(domain.RoleAdmin) {
		t.Fatalf("unexpected claims: %v", claims)
	}
}

func TestSessionService_AdminWrongPassphrase(t *testing.T) {
	svc, _, store := newTestSessionService(t, KeyPolicyAccount)

	for _, pass := range []string{"", "123456"} {
		if _, err := svc.SignIn(context.Background(), domain.RoleAdmin, ports.Credentials{Passphrase: pass}); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("passphrase %q: expected ErrInvalidCredentials, got %v", pass, err)
		}
	}
	if len(store.sessions) != 0 {
		t.Fatalf("failed sign-in must not persist a session")
	}
}

func TestSessionService_SubmitterEmptyName(t *testing.T) {
	svc, accounts, _ := newTestSessionService(t, KeyPolicyAccount)

	if _, err := svc.SignIn(context.Background(), domain.RoleSubmitter, ports.Credentials{DisplayName: "   "}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if accounts.creates != 0 {
		t.Fatalf("no account should be issued")
	}
}

func TestSessionService_UnknownRole(t *testing.T) {
	svc, _, _ := newTestSessionService(t, KeyPolicyAccount)

	if _, err := svc.SignIn(context.Background(), domain.Role("guest"), ports.Credentials{DisplayName: "x"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestSessionService_SubmitterReturnsToSameAccount(t *testing.T) {
	svc, accounts, _ := newTestSessionService(t, KeyPolicyAccount)
	resolver := NewIdentityResolver(KeyPolicyAccount)
	ctx := context.Background()

	first, err := svc.SignIn(ctx, domain.RoleSubmitter, ports.Credentials{DisplayName: "Meera"})
	if err != nil {
		t.Fatalf("first SignIn: %v", err)
	}
	second, err := svc.SignIn(ctx, domain.RoleSubmitter, ports.Credentials{
		DisplayName: "Meera Nair",
		AccountID:   first.Session.AccountID,
	})
	if err != nil {
		t.Fatalf("second SignIn: %v", err)
	}

	if first.Session.ID == second.Session.ID {
		t.Fatalf("each sign-in should open a new session")
	}
	k1, _ := resolver.ResolveKey(first.Session)
	k2, _ := resolver.ResolveKey(second.Session)
	if k1 != k2 {
		t.Fatalf("renamed submitter must keep the same profile key")
	}
	if accounts.creates != 1 {
		t.Fatalf("expected one account, got %d", accounts.creates)
	}
}

func TestSessionService_SameNameDifferentAccounts(t *testing.T) {
	svc, _, _ := newTestSessionService(t, KeyPolicyAccount)
	ctx := context.Background()

	a, _ := svc.SignIn(ctx, domain.RoleSubmitter, ports.Credentials{DisplayName: "Arjun"})
	b, _ := svc.SignIn(ctx, domain.RoleSubmitter, ports.Credentials{DisplayName: "Arjun"})

	if a.Session.AccountID == b.Session.AccountID {
		t.Fatalf("two first-time sign-ins must not share an account")
	}
}

func TestSessionService_DisplayNamePolicyBindsByName(t *testing.T) {
	svc, accounts, _ := newTestSessionService(t, KeyPolicyDisplayName)
	ctx := context.Background()

	a, _ := svc.SignIn(ctx, domain.RoleSubmitter, ports.Credentials{DisplayName: "Arjun"})
	b, _ := svc.SignIn(ctx, domain.RoleSubmitter, ports.Credentials{DisplayName: " arjun "})

	if a.Session.AccountID != b.Session.AccountID {
		t.Fatalf("display_name policy should bind equal names to one account")
	}
	if accounts.creates != 1 {
		t.Fatalf("expected one account, got %d", accounts.creates)
	}
}

func TestSessionService_StaleAccountIDIssuesNewAccount(t *testing.T) {
	svc, accounts, _ := newTestSessionService(t, KeyPolicyAccount)

	res, err := svc.SignIn(context.Background(), domain.RoleSubmitter, ports.Credentials{DisplayName: "Kiran", AccountID: "gone"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if res.Session.AccountID == "gone" || accounts.creates != 1 {
		t.Fatalf("expected a freshly issued account, got %s", res.Session.AccountID)
	}
}

func TestSessionService_AccountLookupFailureSurfaces(t *testing.T) {
	svc, accounts, _ := newTestSessionService(t, KeyPolicyAccount)
	accounts.findErr = domain.ErrPersistenceUnavailable

	_, err := svc.SignIn(context.Background(), domain.RoleSubmitter, ports.Credentials{DisplayName: "Kiran", AccountID: "acc"})
	if !errors.Is(err, domain.ErrPersistenceUnavailable) {
		t.Fatalf("expected ErrPersistenceUnavailable, got %v", err)
	}
}

func TestSessionService_RestoreAndSignOut(t *testing.T) {
	svc, _, _ := newTestSessionService(t, KeyPolicyAccount)
	ctx := context.Background()

	res, err := svc.SignIn(ctx, domain.RoleSubmitter, ports.Credentials{DisplayName: "Neha"})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	for i := 0; i < 2; i++ {
		restored, err := svc.Restore(ctx, res.Token)
		if err != nil {
			t.Fatalf("Restore #%d: %v", i, err)
		}
		if restored.ID != res.Session.ID || restored.AccountID != res.Session.AccountID {
			t.Fatalf("restored session mismatch: %+v", restored)
		}
	}

	if err := svc.SignOut(ctx, res.Session); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if err := svc.SignOut(ctx, res.Session); err != nil {
		t.Fatalf("second SignOut should be a no-op: %v", err)
	}
	if _, err := svc.Restore(ctx, res.Token); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after sign-out, got %v", err)
	}
}

func TestSessionService_RestoreRejectsBadTokens(t *testing.T) {
	svc, _, _ := newTestSessionService(t, KeyPolicyAccount)

	if _, err := svc.Restore(context.Background(), "not-a-token"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sid": "x", "exp": time.Now().Add(time.Hour).Unix()})
	signed, _ := forged.SignedString([]byte("other-secret"))
	if _, err := svc.Restore(context.Background(), signed); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound for foreign signature, got %v", err)
	}
}

func TestSessionService_Current(t *testing.T) {
	svc, _, _ := newTestSessionService(t, KeyPolicyAccount)

	if _, err := svc.Current(context.Background()); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	s := submitterSession("acc-9", "Isha")
	got, err := svc.Current(domain.WithSession(context.Background(), s))
	if err != nil || got != s {
		t.Fatalf("expected attached session, got %v %v", got, err)
	}
}
