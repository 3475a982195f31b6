package models

import "fmt"

// SessionStatus is the closed set of generation session states.
type SessionStatus string

const (
	StatusPending          SessionStatus = "pending"
	StatusGeneratingStory  SessionStatus = "generating_story"
	StatusGeneratingImages SessionStatus = "generating_images"
	StatusMergingImages    SessionStatus = "merging_images"
	StatusCompleted        SessionStatus = "completed"
	StatusFailed           SessionStatus = "failed"
)

// legalTransitions maps each state to the states it may move to.
// Every non-terminal state may additionally move to failed.
var legalTransitions = map[SessionStatus][]SessionStatus{
	StatusPending:          {StatusGeneratingStory, StatusFailed},
	StatusGeneratingStory:  {StatusGeneratingImages, StatusFailed},
	StatusGeneratingImages: {StatusMergingImages, StatusFailed},
	StatusMergingImages:    {StatusCompleted, StatusFailed},
	StatusCompleted:        {},
	StatusFailed:           {},
}

// IsValid reports whether s is one of the known statuses.
func (s SessionStatus) IsValid() bool {
	_, ok := legalTransitions[s]
	return ok
}

// IsTerminal reports whether the session can change no further.
func (s SessionStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next is legal.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates the move from s to next and returns next.
func (s SessionStatus) Transition(next SessionStatus) (SessionStatus, error) {
	if !s.IsValid() {
		return s, fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, s)
	}
	if !s.CanTransitionTo(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, s, next)
	}
	return next, nil
}

// Progress checkpoints recorded on the session as the pipeline advances.
const (
	ProgressSessionStarted     = 10
	ProgressStoryPersisted     = 30
	ProgressDescriptionsReady  = 50
	ProgressCharacterImageDone = 70
	ProgressEnteringMerge      = 85
	ProgressCompleted          = 100
)
