package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"story-server/internal/models"
)

// DBTX abstracts a pgx pool or transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StoryRepository stores and retrieves stories.
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	UpdateDescriptions(ctx context.Context, storyID int64, characterDesc, backgroundDesc string) error
	GetByID(ctx context.Context, storyID int64) (*models.Story, error)
	List(ctx context.Context, limit int) ([]models.Story, error)
}

// ImageRepository stores and retrieves generated images.
type ImageRepository interface {
	Create(ctx context.Context, image *models.GeneratedImage) error
	ListByStoryID(ctx context.Context, storyID int64) ([]models.GeneratedImage, error)
	CountByStoryID(ctx context.Context, storyID int64) (int, error)
}

// SessionRepository stores and mutates generation sessions. Progress
// updates never decrease the stored value, so repeated status polls
// observe a monotonically non-decreasing percentage.
type SessionRepository interface {
	Create(ctx context.Context, session *models.GenerationSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.GenerationSession, error)
	UpdateState(ctx context.Context, sessionID string, status models.SessionStatus, progress int) error
	SetStory(ctx context.Context, sessionID string, storyID int64) error
	MarkFailed(ctx context.Context, sessionID string, errorMessage string) error
}
