package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/marzelet/intern-registry/internal/core/domain"
	"github.com/marzelet/intern-registry/internal/core/ports"
)

const defaultStoreTimeout = 10 * time.Second

// RegistryService owns profile writes and reads on behalf of a session.
type RegistryService struct {
	repo       ports.ProfileRepository
	mirror     ports.ProfileMirror
	resolver   *IdentityResolver
	serializer ports.KeySerializer
	timeout    time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// RegistryOption customises a RegistryService.
type RegistryOption func(*RegistryService)

// WithMirror enables the offline read fallback.
func WithMirror(m ports.ProfileMirror) RegistryOption {
	return func(s *RegistryService) { s.mirror = m }
}

// WithSerializer routes upserts through a per-key serializer.
func WithSerializer(ks ports.KeySerializer) RegistryOption {
	return func(s *RegistryService) { s.serializer = ks }
}

// WithStoreTimeout bounds every call to the profile store.
func WithStoreTimeout(d time.Duration) RegistryOption {
	return func(s *RegistryService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewRegistryService(repo ports.ProfileRepository, resolver *IdentityResolver, log zerolog.Logger, opts ...RegistryOption) *RegistryService {
	s := &RegistryService{
		repo:     repo,
		resolver: resolver,
		timeout:  defaultStoreTimeout,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert creates or fully replaces the profile owned by the session's key.
// It returns only after the store has acknowledged the write.
func (s *RegistryService) Upsert(ctx context.Context, session *domain.Session, fields domain.ProfileFields) (*domain.Profile, error) {
	key, err := s.submitterKey(session)
	if err != nil {
		return nil, err
	}

	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	var saved *domain.Profile
	write := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		p, err := s.repo.Upsert(ctx, key, fields, s.now())
		if err != nil {
			return err
		}
		saved = p
		// Refreshed under the same per-key slot so mirror copies keep write order.
		s.mirrorPut(ctx, p)
		return nil
	}

	if s.serializer != nil {
		err = s.serializer.Do(ctx, string(key), write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		s.log.Error().Err(err).Str("owner_key", string(key)).Msg("failed to upsert profile")
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	s.log.Info().
		Str("profile_id", saved.ID).
		Str("owner_key", string(key)).
		Bool("created", saved.CreatedAt.Equal(saved.SubmittedAt)).
		Int("skills", len(saved.Skills)).
		Msg("profile saved")

	return saved, nil
}

// FindByKey returns the caller's own profile, for prefilling the form.
func (s *RegistryService) FindByKey(ctx context.Context, session *domain.Session) (*domain.Profile, error) {
	key, err := s.submitterKey(session)
	if err != nil {
		return nil, err
	}

	readCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.repo.FindByOwnerKey(readCtx, key)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrPersistenceUnavailable) || s.mirror == nil {
		return nil, err
	}

	mirrorCtx, mirrorCancel := context.WithTimeout(ctx, s.timeout)
	defer mirrorCancel()

	cached, merr := s.mirror.Get(mirrorCtx, key)
	if merr != nil {
		s.log.Warn().Err(merr).Str("owner_key", string(key)).Msg("profile mirror miss during store outage")
		return nil, err
	}
	s.log.Warn().Err(err).Str("owner_key", string(key)).Msg("serving profile from mirror")
	return cached, nil
}

// ListAll returns every profile, newest submission first. Non-admin
// sessions get an empty list and domain.ErrNotAuthorized.
func (s *RegistryService) ListAll(ctx context.Context, session *domain.Session) ([]domain.Profile, error) {
	if !session.IsAdmin() {
		return []domain.Profile{}, domain.ErrNotAuthorized
	}

	readCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profiles, err := s.repo.ListAll(readCtx)
	if err == nil {
		return profiles, nil
	}
	if !errors.Is(err, domain.ErrPersistenceUnavailable) || s.mirror == nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	mirrorCtx, mirrorCancel := context.WithTimeout(ctx, s.timeout)
	defer mirrorCancel()

	cached, merr := s.mirror.All(mirrorCtx)
	if merr != nil {
		s.log.Warn().Err(merr).Msg("profile mirror unavailable during store outage")
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	sortBySubmittedDesc(cached)
	s.log.Warn().Err(err).Int("count", len(cached)).Msg("serving profile list from mirror")
	return cached, nil
}

func (s *RegistryService) submitterKey(session *domain.Session) (domain.ProfileKey, error) {
	if session == nil {
		return "", domain.ErrSessionNotFound
	}
	if session.Role != domain.RoleSubmitter {
		return "", domain.ErrNotAuthorized
	}
	return s.resolver.ResolveKey(session)
}

func (s *RegistryService) mirrorPut(ctx context.Context, p *domain.Profile) {
	if s.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.mirror.Put(ctx, p); err != nil {
		s.log.Warn().Err(err).Str("profile_id", p.ID).Msg("failed to refresh profile mirror")
	}
}

func sortBySubmittedDesc(profiles []domain.Profile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].SubmittedAt.After(profiles[j].SubmittedAt)
	})
}
