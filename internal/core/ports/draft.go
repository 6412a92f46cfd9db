package ports

import (
	"context"
	"time"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

// DraftStore keeps one in-progress form per profile key.
type DraftStore interface {
	// Load returns (nil, nil) when no draft exists.
	Load(ctx context.Context, key domain.ProfileKey) (*domain.Draft, error)
	Save(ctx context.Context, d *domain.Draft, ttl time.Duration) error
	Delete(ctx context.Context, key domain.ProfileKey) error
}

// DetailsInput carries the non-skill form fields.
type DetailsInput struct {
	Name        string
	Institution string
	Photo       string
}

// SkillEdit changes one skill. Nil fields are left untouched.
type SkillEdit struct {
	Language    *string
	Proficiency *domain.Proficiency
}

// DraftResult is the draft after an edit, plus whether the edit opened a
// proficiency confirmation the caller must now ask about.
type DraftResult struct {
	Draft                *domain.Draft
	ConfirmationRequired bool
}

// DraftService drives a submitter's form, including the expert
// confirmation sub-flow.
type DraftService interface {
	Get(ctx context.Context, s *domain.Session) (*domain.Draft, error)
	UpdateDetails(ctx context.Context, s *domain.Session, in DetailsInput) (*domain.Draft, error)
	AddSkill(ctx context.Context, s *domain.Session, language string) (*domain.Draft, error)
	EditSkill(ctx context.Context, s *domain.Session, index int, edit SkillEdit) (*DraftResult, error)
	RemoveSkill(ctx context.Context, s *domain.Session, index int) (*domain.Draft, error)
	AnswerConfirmation(ctx context.Context, s *domain.Session, yes bool) (*domain.Draft, error)
	DismissConfirmation(ctx context.Context, s *domain.Session) (*domain.Draft, error)
	Submit(ctx context.Context, s *domain.Session) (*domain.Profile, error)
}
