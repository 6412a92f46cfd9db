package domain

import (
	"fmt"
	"strings"
	"time"
)

// Draft is the in-progress form of one submitter, including any open
// expert-proficiency confirmation.
type Draft struct {
	OwnerKey  ProfileKey       `json:"owner_key"`
	Fields    ProfileFields    `json:"fields"`
	Flow      ConfirmationFlow `json:"flow"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewDraft starts a draft for key, prefilled from fields.
func NewDraft(key ProfileKey, fields ProfileFields) *Draft {
	return &Draft{
		OwnerKey: key,
		Fields:   fields.Clone(),
		Flow:     ConfirmationFlow{State: ConfirmationIdle, PendingIndex: -1},
	}
}

// UpdateDetails replaces the non-skill fields.
func (d *Draft) UpdateDetails(name, institution, photo string) {
	d.Fields.Name = name
	d.Fields.Institution = institution
	d.Fields.Photo = photo
}

// AddSkill appends a Beginner skill.
func (d *Draft) AddSkill(language string) {
	d.Fields.Skills = append(d.Fields.Skills, Skill{
		Language:    strings.TrimSpace(language),
		Proficiency: Beginner,
	})
}

// RemoveSkill drops skills[i]. Indexes shift, so removal is refused while a
// confirmation is open.
func (d *Draft) RemoveSkill(i int) error {
	if i < 0 || i >= len(d.Fields.Skills) {
		return ErrSkillIndexOutOfRange
	}
	if _, ok := d.Flow.Pending(); ok {
		return ErrConfirmationPending
	}
	d.Fields.Skills = append(d.Fields.Skills[:i], d.Fields.Skills[i+1:]...)
	return nil
}

// RenameSkill changes the language of skills[i].
func (d *Draft) RenameSkill(i int, language string) error {
	if i < 0 || i >= len(d.Fields.Skills) {
		return ErrSkillIndexOutOfRange
	}
	d.Fields.Skills[i].Language = strings.TrimSpace(language)
	return nil
}

// SetProficiency routes through the confirmation flow.
func (d *Draft) SetProficiency(i int, p Proficiency) (bool, error) {
	return d.Flow.SetProficiency(d.Fields.Skills, i, p)
}

// AnswerConfirmation resolves the open confirmation.
func (d *Draft) AnswerConfirmation(yes bool) error {
	return d.Flow.Answer(d.Fields.Skills, yes)
}

// DismissConfirmation abandons the open confirmation.
func (d *Draft) DismissConfirmation() error {
	return d.Flow.Dismiss(d.Fields.Skills)
}

// ReadyToSubmit reports whether the draft may be written to the registry.
func (d *Draft) ReadyToSubmit() error {
	if i, ok := d.Flow.Pending(); ok {
		return &PendingConfirmationError{Index: i}
	}
	return d.Fields.Validate()
}

// PendingConfirmationError names the skill that still awaits an answer.
type PendingConfirmationError struct {
	Index int
}

func (e *PendingConfirmationError) Error() string {
	return fmt.Sprintf("%s (skill %d)", ErrConfirmationPending, e.Index)
}

func (e *PendingConfirmationError) Unwrap() error { return ErrConfirmationPending }
