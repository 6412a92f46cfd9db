package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

// KeyPolicy selects what a ProfileKey is derived from.
type KeyPolicy string

const (
	// KeyPolicyAccount derives the key from the durable account id. Two
	// submitters never share a profile, whatever their display names.
	KeyPolicyAccount KeyPolicy = "account"
	// KeyPolicyDisplayName derives the key from the normalised display name,
	// so submitters signing in with the same name share one profile.
	KeyPolicyDisplayName KeyPolicy = "display_name"
)

// ParseKeyPolicy parses a configured policy; empty means KeyPolicyAccount.
func ParseKeyPolicy(s string) (KeyPolicy, error) {
	switch KeyPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeyPolicyAccount:
		return KeyPolicyAccount, nil
	case KeyPolicyDisplayName:
		return KeyPolicyDisplayName, nil
	default:
		return "", fmt.Errorf("unknown identity key policy %q", s)
	}
}

// IdentityResolver maps a session to the ProfileKey that owns its profile.
// ResolveKey is pure: it reads only the session and the configured policy.
type IdentityResolver struct {
	policy KeyPolicy
}

func NewIdentityResolver(policy KeyPolicy) *IdentityResolver {
	if policy == "" {
		policy = KeyPolicyAccount
	}
	return &IdentityResolver{policy: policy}
}

// Policy returns the configured key policy.
func (r *IdentityResolver) Policy() KeyPolicy { return r.policy }

// ResolveKey derives the profile key for s.
func (r *IdentityResolver) ResolveKey(s *domain.Session) (domain.ProfileKey, error) {
	if s == nil {
		return "", domain.ErrInvalidSession
	}
	switch r.policy {
	case KeyPolicyDisplayName:
		h := NormalizeHandle(s.DisplayName)
		if h == "" {
			return "", domain.ErrInvalidSession
		}
		return domain.ProfileKey("name_" + digest(h)), nil
	default:
		if strings.TrimSpace(s.AccountID) == "" {
			return "", domain.ErrInvalidSession
		}
		return domain.ProfileKey("acct_" + digest(s.AccountID)), nil
	}
}

// Handle returns the sign-in handle an account is bound by under the current
// policy. It is empty under KeyPolicyAccount: accounts are then only ever
// found by id.
func (r *IdentityResolver) Handle(displayName string) string {
	if r.policy != KeyPolicyDisplayName {
		return ""
	}
	return NormalizeHandle(displayName)
}

// NormalizeHandle lower-cases a display name and collapses whitespace.
func NormalizeHandle(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:16])
}
