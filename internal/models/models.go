package models

import "time"

// ImageKind is the role an image plays relative to a story.
type ImageKind string

const (
	ImageKindCharacter  ImageKind = "character"
	ImageKindBackground ImageKind = "background"
	ImageKindCombined   ImageKind = "combined"
)

// Story is a generated story together with the visual descriptions
// derived from it. Descriptions stay empty until their generation
// stage completes.
type Story struct {
	ID                    int64     `json:"id"`
	Title                 string    `json:"title"`
	Prompt                string    `json:"prompt"`
	StoryText             string    `json:"story_text"`
	CharacterDescription  string    `json:"character_description"`
	BackgroundDescription string    `json:"background_description"`
	UserID                *int64    `json:"user_id,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// GeneratedImage is one rendered image belonging to a story.
// Rows are immutable once created.
type GeneratedImage struct {
	ID         int64     `json:"id"`
	StoryID    int64     `json:"story_id"`
	Kind       ImageKind `json:"kind"`
	FilePath   string    `json:"file_path"`
	PromptUsed string    `json:"prompt_used"`
	CreatedAt  time.Time `json:"created_at"`
}

// GenerationSession tracks the lifecycle of one generation request.
// The session row is the single coordination record between the
// worker that owns it and the status polling path.
type GenerationSession struct {
	ID           int64         `json:"id"`
	SessionID    string        `json:"session_id"`
	Status       SessionStatus `json:"status"`
	Progress     int           `json:"progress"`
	ErrorMessage *string       `json:"error_message,omitempty"`
	StoryID      *int64        `json:"story_id,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}
