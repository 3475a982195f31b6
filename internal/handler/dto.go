package handler

import "story-server/internal/models"

// APIError is the standardized error response body.
type APIError struct {
	Error string `json:"error"`
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse is returned when a generation session was accepted.
type GenerateResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// StatusResponse is the polled state of one generation session.
// StoryID and RedirectURL are present only once the session completed.
type StatusResponse struct {
	Status      string  `json:"status"`
	Progress    int     `json:"progress"`
	Error       *string `json:"error"`
	StoryID     *int64  `json:"story_id,omitempty"`
	RedirectURL *string `json:"redirect_url,omitempty"`
}

// StoryDetailResponse is a story together with its generated images.
type StoryDetailResponse struct {
	Story  models.Story            `json:"story"`
	Images []models.GeneratedImage `json:"images"`
}

// StoryListResponse wraps a story listing.
type StoryListResponse struct {
	Stories []models.Story `json:"stories"`
}
