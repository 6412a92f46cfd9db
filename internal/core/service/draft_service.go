package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/marzelet/intern-registry/internal/core/domain"
	"github.com/marzelet/intern-registry/internal/core/ports"
)

const defaultDraftTTL = 24 * time.Hour

// DraftService keeps a submitter's in-progress form between requests and
// drives the expert-confirmation flow on it.
type DraftService struct {
	drafts   ports.DraftStore
	registry ports.RegistryService
	resolver *IdentityResolver
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewDraftService(
	drafts ports.DraftStore,
	registry ports.RegistryService,
	resolver *IdentityResolver,
	ttl time.Duration,
	log zerolog.Logger,
) *DraftService {
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	return &DraftService{
		drafts:   drafts,
		registry: registry,
		resolver: resolver,
		ttl:      ttl,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
}

// Get returns the current draft, starting one from the stored profile (or
// just the display name) when none exists.
func (s *DraftService) Get(ctx context.Context, session *domain.Session) (*domain.Draft, error) {
	return s.load(ctx, session)
}

func (s *DraftService) UpdateDetails(ctx context.Context, session *domain.Session, in ports.DetailsInput) (*domain.Draft, error) {
	return s.mutate(ctx, session, func(d *domain.Draft) error {
		d.UpdateDetails(in.Name, in.Institution, in.Photo)
		return nil
	})
}

func (s *DraftService) AddSkill(ctx context.Context, session *domain.Session, language string) (*domain.Draft, error) {
	return s.mutate(ctx, session, func(d *domain.Draft) error {
		d.AddSkill(language)
		return nil
	})
}

// EditSkill renames and/or re-tiers one skill. Raising it to Expert may open
// a confirmation, reported in the result.
func (s *DraftService) EditSkill(ctx context.Context, session *domain.Session, index int, edit ports.SkillEdit) (*ports.DraftResult, error) {
	opened := false
	d, err := s.mutate(ctx, session, func(d *domain.Draft) error {
		if edit.Language != nil {
			if err := d.RenameSkill(index, *edit.Language); err != nil {
				return err
			}
		}
		if edit.Proficiency != nil {
			o, err := d.SetProficiency(index, *edit.Proficiency)
			if err != nil {
				return err
			}
			opened = o
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if opened {
		s.log.Debug().Str("owner_key", string(d.OwnerKey)).Int("skill", index).Msg("expert confirmation opened")
	}
	return &ports.DraftResult{Draft: d, ConfirmationRequired: opened}, nil
}

func (s *DraftService) RemoveSkill(ctx context.Context, session *domain.Session, index int) (*domain.Draft, error) {
	return s.mutate(ctx, session, func(d *domain.Draft) error {
		return d.RemoveSkill(index)
	})
}

func (s *DraftService) AnswerConfirmation(ctx context.Context, session *domain.Session, yes bool) (*domain.Draft, error) {
	return s.mutate(ctx, session, func(d *domain.Draft) error {
		return d.AnswerConfirmation(yes)
	})
}

func (s *DraftService) DismissConfirmation(ctx context.Context, session *domain.Session) (*domain.Draft, error) {
	return s.mutate(ctx, session, func(d *domain.Draft) error {
		return d.DismissConfirmation()
	})
}

// Submit writes the draft through the registry. It is refused while a
// confirmation is still open; on success the draft is discarded.
func (s *DraftService) Submit(ctx context.Context, session *domain.Session) (*domain.Profile, error) {
	d, err := s.load(ctx, session)
	if err != nil {
		return nil, err
	}
	if err := d.ReadyToSubmit(); err != nil {
		return nil, err
	}

	p, err := s.registry.Upsert(ctx, session, d.Fields)
	if err != nil {
		return nil, err
	}

	if err := s.drafts.Delete(ctx, d.OwnerKey); err != nil {
		s.log.Warn().Err(err).Str("owner_key", string(d.OwnerKey)).Msg("failed to discard submitted draft")
	}
	return p, nil
}

func (s *DraftService) load(ctx context.Context, session *domain.Session) (*domain.Draft, error) {
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	if session.Role != domain.RoleSubmitter {
		return nil, domain.ErrNotAuthorized
	}
	key, err := s.resolver.ResolveKey(session)
	if err != nil {
		return nil, err
	}

	d, err := s.drafts.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if d != nil {
		return d, nil
	}

	p, err := s.registry.FindByKey(ctx, session)
	switch {
	case err == nil:
		return domain.NewDraft(key, p.Fields()), nil
	case errors.Is(err, domain.ErrProfileNotFound):
		return domain.NewDraft(key, domain.ProfileFields{Name: session.DisplayName}), nil
	default:
		return nil, fmt.Errorf("prefill draft: %w", err)
	}
}

func (s *DraftService) mutate(ctx context.Context, session *domain.Session, fn func(*domain.Draft) error) (*domain.Draft, error) {
	d, err := s.load(ctx, session)
	if err != nil {
		return nil, err
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	d.UpdatedAt = s.now()
	if err := s.drafts.Save(ctx, d, s.ttl); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}
