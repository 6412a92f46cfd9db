package ports

import (
	"context"
	"time"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

// ProfileRepository is the authoritative record store for profiles.
// Unreachable-store failures wrap domain.ErrPersistenceUnavailable.
type ProfileRepository interface {
	// Upsert replaces the mutable fields of the profile owned by key, or
	// creates it. The write is atomic per key.
	Upsert(ctx context.Context, key domain.ProfileKey, fields domain.ProfileFields, at time.Time) (*domain.Profile, error)
	FindByOwnerKey(ctx context.Context, key domain.ProfileKey) (*domain.Profile, error)
	// ListAll returns every profile, most recently submitted first.
	ListAll(ctx context.Context) ([]domain.Profile, error)
}

// ProfileMirror is a best-effort local copy used only when the
// ProfileRepository is unavailable for reads.
type ProfileMirror interface {
	Put(ctx context.Context, p *domain.Profile) error
	Get(ctx context.Context, key domain.ProfileKey) (*domain.Profile, error)
	All(ctx context.Context) ([]domain.Profile, error)
}

// KeySerializer runs fn with no other fn for the same key in flight.
type KeySerializer interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// RegistryService is the session-aware facade over profiles.
type RegistryService interface {
	Upsert(ctx context.Context, s *domain.Session, fields domain.ProfileFields) (*domain.Profile, error)
	FindByKey(ctx context.Context, s *domain.Session) (*domain.Profile, error)
	ListAll(ctx context.Context, s *domain.Session) ([]domain.Profile, error)
}

// DashboardService derives admin statistics.
type DashboardService interface {
	Stats(ctx context.Context, s *domain.Session) (domain.Stats, error)
}
