package abilities

import (
	"errors"
	"time"
)

var (
	// ErrStepLocked is returned for any change to a confirmed ability step.
	ErrStepLocked = errors.New("ability step is locked")
	// ErrStepUntouched is returned when confirming a step nobody edited.
	ErrStepUntouched = errors.New("ability step has no edits to confirm")
)

// Step is the ability-score step of a character sheet. It is editable until
// confirmed, after which the scores are read-only.
type Step struct {
	Set      ScoreSet   `json:"set"`
	Edited   bool       `json:"edited"`
	Locked   bool       `json:"locked"`
	LockedAt *time.Time `json:"lockedAt,omitempty"`
	Messages []string   `json:"messages,omitempty"`
}

func NewStep(method Method) Step {
	return Step{Set: NewScoreSet(method)}
}

// Assign applies one score change. Flagged violations are kept on the step.
func (s *Step) Assign(ability Ability, value int) error {
	if s.Locked {
		return ErrStepLocked
	}
	next, messages, err := Assign(s.Set, ability, value)
	if err != nil {
		return err
	}
	s.Set = next
	s.Messages = messages
	s.Edited = true
	return nil
}

// SetMethod switches discipline and clears every score.
func (s *Step) SetMethod(method Method) error {
	if s.Locked {
		return ErrStepLocked
	}
	if _, ok := ParseMethod(string(method)); !ok {
		return rejected("unknown allocation method %q", method)
	}
	if method == s.Set.Method {
		return nil
	}
	s.Set = NewScoreSet(method)
	s.Messages = nil
	s.Edited = false
	return nil
}

// Lock confirms the step. It requires at least one edit and a set with no
// outstanding violations.
func (s *Step) Lock(now time.Time) error {
	if s.Locked {
		return ErrStepLocked
	}
	if !s.Edited {
		return ErrStepUntouched
	}
	if messages := Validate(s.Set); len(messages) > 0 {
		s.Messages = messages
		return &ValidationError{Messages: messages}
	}
	s.Locked = true
	s.LockedAt = &now
	s.Messages = nil
	return nil
}
