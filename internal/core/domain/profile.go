package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProfileKey correlates one authenticated identity to at most one profile.
// Only the identity resolver derives it.
type ProfileKey string

// Proficiency is the self-assessed tier of a skill.
type Proficiency string

const (
	Beginner     Proficiency = "Beginner"
	Intermediate Proficiency = "Intermediate"
	Expert       Proficiency = "Expert"
)

// Valid reports whether p is a known tier.
func (p Proficiency) Valid() bool {
	switch p {
	case Beginner, Intermediate, Expert:
		return true
	}
	return false
}

// Skill is a single language claim. ExpertConfirmed is only meaningful at
// the Expert tier and must be false otherwise.
type Skill struct {
	Language        string      `json:"language" bson:"language"`
	Proficiency     Proficiency `json:"proficiency" bson:"proficiency"`
	ExpertConfirmed bool        `json:"expert_confirmed" bson:"expert_confirmed"`
}

// Normalize clears ExpertConfirmed on any skill below Expert.
func (s Skill) Normalize() Skill {
	if s.Proficiency != Expert {
		s.ExpertConfirmed = false
	}
	s.Language = strings.TrimSpace(s.Language)
	return s
}

// IsExpert reports whether the skill sits at the Expert tier.
func (s Skill) IsExpert() bool { return s.Proficiency == Expert }

// IsConfirmedExpert reports an Expert skill whose holder affirmed
// independent-project capability.
func (s Skill) IsConfirmedExpert() bool { return s.Proficiency == Expert && s.ExpertConfirmed }

// ProfileFields is the mutable part of a profile. A submission always
// replaces all of it at once.
type ProfileFields struct {
	Name        string  `json:"name"`
	Institution string  `json:"institution"`
	Photo       string  `json:"photo"`
	Skills      []Skill `json:"skills"`
}

// Normalize trims text fields and normalizes every skill.
func (f ProfileFields) Normalize() ProfileFields {
	out := ProfileFields{
		Name:        strings.TrimSpace(f.Name),
		Institution: strings.TrimSpace(f.Institution),
		Photo:       f.Photo,
		Skills:      make([]Skill, len(f.Skills)),
	}
	for i, s := range f.Skills {
		out.Skills[i] = s.Normalize()
	}
	return out
}

// Validate checks a submission is complete: a name, an institution and at
// least one skill with a language and a known proficiency.
func (f ProfileFields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if strings.TrimSpace(f.Institution) == "" {
		return fmt.Errorf("%w: institution is required", ErrInvalidProfile)
	}
	if len(f.Skills) == 0 {
		return fmt.Errorf("%w: at least one skill is required", ErrInvalidProfile)
	}
	for i, s := range f.Skills {
		if strings.TrimSpace(s.Language) == "" {
			return fmt.Errorf("%w: skills[%d]: language is required", ErrInvalidProfile, i)
		}
		if !s.Proficiency.Valid() {
			return fmt.Errorf("%w: skills[%d]: unknown proficiency %q", ErrInvalidProfile, i, s.Proficiency)
		}
		if s.ExpertConfirmed && s.Proficiency != Expert {
			return fmt.Errorf("%w: skills[%d]: expert confirmation below Expert", ErrInvalidProfile, i)
		}
	}
	return nil
}

// Clone returns a deep copy so callers cannot alias the skill slice.
func (f ProfileFields) Clone() ProfileFields {
	f.Skills = append([]Skill(nil), f.Skills...)
	return f
}

// Profile is the durable record a ProfileKey owns. ID is assigned by the
// registry on creation and never changes.
type Profile struct {
	ID          string     `json:"id"`
	OwnerKey    ProfileKey `json:"owner_key"`
	Name        string     `json:"name"`
	Institution string     `json:"institution"`
	Photo       string     `json:"photo"`
	Skills      []Skill    `json:"skills"`
	CreatedAt   time.Time  `json:"created_at"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// Fields returns the mutable part of p.
func (p *Profile) Fields() ProfileFields {
	return ProfileFields{
		Name:        p.Name,
		Institution: p.Institution,
		Photo:       p.Photo,
		Skills:      append([]Skill(nil), p.Skills...),
	}
}

// HasExpertSkill reports whether any skill is at the Expert tier.
func (p *Profile) HasExpertSkill() bool {
	for _, s := range p.Skills {
		if s.IsExpert() {
			return true
		}
	}
	return false
}

// HasConfirmedExpertSkill reports whether any skill is expert-confirmed.
func (p *Profile) HasConfirmedExpertSkill() bool {
	for _, s := range p.Skills {
		if s.IsConfirmedExpert() {
			return true
		}
	}
	return false
}
