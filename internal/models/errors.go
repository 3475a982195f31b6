package models

import "errors"

var (
	// ErrStoryNotFound is returned when a story lookup finds no row.
	ErrStoryNotFound = errors.New("story not found")
	// ErrSessionNotFound is returned when a session lookup finds no row.
	ErrSessionNotFound = errors.New("generation session not found")
	// ErrSessionAlreadyExists is returned on a duplicate session identifier.
	ErrSessionAlreadyExists = errors.New("generation session already exists")
	// ErrInvalidStatusTransition is returned when a session status move
	// is not in the legal transition table.
	ErrInvalidStatusTransition = errors.New("invalid session status transition")
	// ErrEmptyPrompt is returned when a generation request carries a
	// blank prompt.
	ErrEmptyPrompt = errors.New("prompt is required")
)
