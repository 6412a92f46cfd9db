package redis

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

func TestKeys(t *testing.T) {
	if got := sessionKey("abc"); got != "session:abc" {
		t.Fatalf("session key = %q", got)
	}
	if got := draftKey(domain.ProfileKey("acct_1")); got != "draft:acct_1" {
		t.Fatalf("draft key = %q", got)
	}
}

func TestStoreErr_MarksConnectionFailures(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	for _, in := range []error{opErr, context.DeadlineExceeded} {
		if err := storeErr("op", in); !errors.Is(err, domain.ErrPersistenceUnavailable) {
			t.Fatalf("%v: expected ErrPersistenceUnavailable, got %v", in, err)
		}
	}
	if err := storeErr("op", errors.New("WRONGTYPE")); errors.Is(err, domain.ErrPersistenceUnavailable) {
		t.Fatalf("command errors must not be reported as unavailable")
	}
}

// Commands against an address nothing listens on fail fast and are reported
// as unavailable, which is what the registry's read fallback relies on.
func TestSessionStore_UnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot reserve a port: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1})
	defer client.Close()

	store := NewSessionStore(client)
	_, err = store.Find(context.Background(), "missing")
	if !errors.Is(err, domain.ErrPersistenceUnavailable) {
		t.Fatalf("expected ErrPersistenceUnavailable, got %v", err)
	}
}
