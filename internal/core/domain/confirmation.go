package domain

import "fmt"

// ConfirmationState is the lifecycle state of an expert-proficiency prompt.
type ConfirmationState string

const (
	ConfirmationIdle     ConfirmationState = "idle"
	ConfirmationAwaiting ConfirmationState = "awaiting_confirmation"
	ConfirmationResolved ConfirmationState = "resolved"
)

// confirmationTransitions defines the allowed state machine transitions.
var confirmationTransitions = map[ConfirmationState][]ConfirmationState{
	ConfirmationIdle:     {ConfirmationAwaiting},
	ConfirmationAwaiting: {ConfirmationResolved, ConfirmationIdle},
	ConfirmationResolved: {ConfirmationAwaiting},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s ConfirmationState) CanTransitionTo(next ConfirmationState) bool {
	for _, allowed := range confirmationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ConfirmationFlow gates when a skill may be marked expert-confirmed. It holds
// at most one pending confirmation. The zero value is idle.
//
// Fields are exported so a draft can be stored between requests; mutate the
// flow only through its methods.
type ConfirmationFlow struct {
	State        ConfirmationState `json:"state"`
	PendingIndex int               `json:"pending_index"`
	Prior        *Skill            `json:"prior,omitempty"`
}

// Current returns the flow state, treating the zero value as idle.
func (f *ConfirmationFlow) Current() ConfirmationState {
	if f.State == "" {
		return ConfirmationIdle
	}
	return f.State
}

// Pending returns the index of the skill awaiting confirmation, if any.
func (f *ConfirmationFlow) Pending() (int, bool) {
	if f.Current() != ConfirmationAwaiting {
		return -1, false
	}
	return f.PendingIndex, true
}

// SetProficiency applies p to skills[i]. Raising a skill to Expert that is not
// already Expert-and-confirmed opens a confirmation and reports true; the skill
// is tentatively Expert and unconfirmed until Answer or Dismiss.
func (f *ConfirmationFlow) SetProficiency(skills []Skill, i int, p Proficiency) (bool, error) {
	if i < 0 || i >= len(skills) {
		return false, ErrSkillIndexOutOfRange
	}
	if !p.Valid() {
		return false, fmt.Errorf("%w: unknown proficiency %q", ErrInvalidProfile, p)
	}

	pending, awaiting := f.Pending()
	cur := skills[i]

	if p != Expert {
		if awaiting && pending == i {
			f.reset(ConfirmationIdle)
		}
		skills[i].Proficiency = p
		skills[i].ExpertConfirmed = false
		return false, nil
	}

	if cur.IsConfirmedExpert() {
		return false, nil
	}
	if awaiting {
		if pending == i {
			return false, nil
		}
		return false, fmt.Errorf("%w: skill %d", ErrConfirmationPending, pending)
	}
	if !f.Current().CanTransitionTo(ConfirmationAwaiting) {
		return false, fmt.Errorf("cannot open confirmation from %s", f.Current())
	}

	prior := cur
	f.State = ConfirmationAwaiting
	f.PendingIndex = i
	f.Prior = &prior
	skills[i].Proficiency = Expert
	skills[i].ExpertConfirmed = false
	return true, nil
}

// Answer resolves the pending confirmation. Either answer keeps the skill at
// Expert; yes marks it confirmed.
func (f *ConfirmationFlow) Answer(skills []Skill, yes bool) error {
	i, ok := f.Pending()
	if !ok {
		return ErrNoPendingConfirmation
	}
	if i >= len(skills) {
		f.reset(ConfirmationIdle)
		return ErrSkillIndexOutOfRange
	}
	skills[i].Proficiency = Expert
	skills[i].ExpertConfirmed = yes
	f.reset(ConfirmationResolved)
	return nil
}

// Dismiss abandons the pending change and restores the skill's prior value.
func (f *ConfirmationFlow) Dismiss(skills []Skill) error {
	i, ok := f.Pending()
	if !ok {
		return ErrNoPendingConfirmation
	}
	if i < len(skills) && f.Prior != nil {
		skills[i] = *f.Prior
	}
	f.reset(ConfirmationIdle)
	return nil
}

func (f *ConfirmationFlow) reset(to ConfirmationState) {
	f.State = to
	f.PendingIndex = -1
	f.Prior = nil
}
