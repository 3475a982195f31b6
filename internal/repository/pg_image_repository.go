package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"story-server/internal/models"
)

// Compile-time check to ensure pgImageRepository implements ImageRepository
var _ ImageRepository = (*pgImageRepository)(nil)

type pgImageRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgImageRepository creates a new PostgreSQL-backed ImageRepository.
func NewPgImageRepository(db DBTX, logger *zap.Logger) ImageRepository {
	return &pgImageRepository{
		db:     db,
		logger: logger.Named("PgImageRepo"),
	}
}

// Create inserts a generated image row.
func (r *pgImageRepository) Create(ctx context.Context, image *models.GeneratedImage) error {
	query := `INSERT INTO generated_images (story_id, kind, file_path, prompt_used)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		image.StoryID, image.Kind, image.FilePath, image.PromptUsed,
	).Scan(&image.ID, &image.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create generated image",
			zap.Error(err),
			zap.Int64("storyID", image.StoryID),
			zap.String("kind", string(image.Kind)))
		return fmt.Errorf("failed to create generated image: %w", err)
	}
	r.logger.Info("Generated image recorded",
		zap.Int64("imageID", image.ID),
		zap.Int64("storyID", image.StoryID),
		zap.String("kind", string(image.Kind)))
	return nil
}

// ListByStoryID returns all images belonging to a story, newest first.
func (r *pgImageRepository) ListByStoryID(ctx context.Context, storyID int64) ([]models.GeneratedImage, error) {
	query := `SELECT id, story_id, kind, file_path, prompt_used, created_at
	          FROM generated_images WHERE story_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.db.Query(ctx, query, storyID)
	if err != nil {
		r.logger.Error("Failed to list generated images", zap.Error(err), zap.Int64("storyID", storyID))
		return nil, fmt.Errorf("failed to list generated images: %w", err)
	}
	defer rows.Close()

	images := make([]models.GeneratedImage, 0)
	for rows.Next() {
		var image models.GeneratedImage
		if err := rows.Scan(&image.ID, &image.StoryID, &image.Kind, &image.FilePath, &image.PromptUsed, &image.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generated image row: %w", err)
		}
		images = append(images, image)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generated image rows: %w", err)
	}
	return images, nil
}

// CountByStoryID returns the number of images recorded for a story.
func (r *pgImageRepository) CountByStoryID(ctx context.Context, storyID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM generated_images WHERE story_id = $1`, storyID).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count generated images", zap.Error(err), zap.Int64("storyID", storyID))
		return 0, fmt.Errorf("failed to count generated images: %w", err)
	}
	return count, nil
}
