package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"story-server/internal/models"
)

// Compile-time check to ensure pgStoryRepository implements StoryRepository
var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgStoryRepository creates a new PostgreSQL-backed StoryRepository.
func NewPgStoryRepository(db DBTX, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

// Create inserts a new story and fills in its generated fields.
func (r *pgStoryRepository) Create(ctx context.Context, story *models.Story) error {
	query := `INSERT INTO stories (title, prompt, story_text, character_description, background_description, user_id)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		story.Title, story.Prompt, story.StoryText,
		story.CharacterDescription, story.BackgroundDescription, story.UserID,
	).Scan(&story.ID, &story.CreatedAt, &story.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create story", zap.Error(err), zap.String("title", story.Title))
		return fmt.Errorf("failed to create story: %w", err)
	}
	r.logger.Info("Story created", zap.Int64("storyID", story.ID), zap.String("title", story.Title))
	return nil
}

// UpdateDescriptions fills in the character and background descriptions
// once their generation stage has completed.
func (r *pgStoryRepository) UpdateDescriptions(ctx context.Context, storyID int64, characterDesc, backgroundDesc string) error {
	query := `UPDATE stories
	          SET character_description = $2, background_description = $3, updated_at = NOW()
	          WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, storyID, characterDesc, backgroundDesc)
	if err != nil {
		r.logger.Error("Failed to update story descriptions", zap.Error(err), zap.Int64("storyID", storyID))
		return fmt.Errorf("failed to update story descriptions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	return nil
}

// GetByID retrieves a story by its identifier.
func (r *pgStoryRepository) GetByID(ctx context.Context, storyID int64) (*models.Story, error) {
	query := `SELECT id, title, prompt, story_text, character_description, background_description, user_id, created_at, updated_at
	          FROM stories WHERE id = $1`
	story := &models.Story{}
	err := r.db.QueryRow(ctx, query, storyID).Scan(
		&story.ID, &story.Title, &story.Prompt, &story.StoryText,
		&story.CharacterDescription, &story.BackgroundDescription,
		&story.UserID, &story.CreatedAt, &story.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Story not found", zap.Int64("storyID", storyID))
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story", zap.Error(err), zap.Int64("storyID", storyID))
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return story, nil
}

// List returns stories ordered by newest first. A non-positive limit
// returns all stories.
func (r *pgStoryRepository) List(ctx context.Context, limit int) ([]models.Story, error) {
	query := `SELECT id, title, prompt, story_text, character_description, background_description, user_id, created_at, updated_at
	          FROM stories ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err))
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	defer rows.Close()

	stories := make([]models.Story, 0)
	for rows.Next() {
		var story models.Story
		if err := rows.Scan(
			&story.ID, &story.Title, &story.Prompt, &story.StoryText,
			&story.CharacterDescription, &story.BackgroundDescription,
			&story.UserID, &story.CreatedAt, &story.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate story rows: %w", err)
	}
	return stories, nil
}
