package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"story-server/internal/models"
)

// Compile-time check to ensure pgSessionRepository implements SessionRepository
var _ SessionRepository = (*pgSessionRepository)(nil)

type pgSessionRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgSessionRepository creates a new PostgreSQL-backed SessionRepository.
func NewPgSessionRepository(db DBTX, logger *zap.Logger) SessionRepository {
	return &pgSessionRepository{
		db:     db,
		logger: logger.Named("PgSessionRepo"),
	}
}

// Create inserts a new generation session.
func (r *pgSessionRepository) Create(ctx context.Context, session *models.GenerationSession) error {
	if session.Status == "" {
		session.Status = models.StatusPending
	}
	query := `INSERT INTO generation_sessions (session_id, status, progress)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, session.SessionID, session.Status, session.Progress).
		Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 is unique_violation
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Warn("Attempted to create duplicate session", zap.String("sessionID", session.SessionID))
			return models.ErrSessionAlreadyExists
		}
		r.logger.Error("Failed to create session", zap.Error(err), zap.String("sessionID", session.SessionID))
		return fmt.Errorf("failed to create session: %w", err)
	}
	r.logger.Info("Generation session created", zap.String("sessionID", session.SessionID))
	return nil
}

// GetBySessionID retrieves a session by its opaque identifier.
func (r *pgSessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.GenerationSession, error) {
	query := `SELECT id, session_id, status, progress, error_message, story_id, created_at
	          FROM generation_sessions WHERE session_id = $1`
	session := &models.GenerationSession{}
	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&session.ID, &session.SessionID, &session.Status, &session.Progress,
		&session.ErrorMessage, &session.StoryID, &session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Session not found", zap.String("sessionID", sessionID))
			return nil, models.ErrSessionNotFound
		}
		r.logger.Error("Failed to get session", zap.Error(err), zap.String("sessionID", sessionID))
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// UpdateState sets the status and advances the progress percentage.
// GREATEST keeps the stored progress monotonically non-decreasing even
// if an update is replayed.
func (r *pgSessionRepository) UpdateState(ctx context.Context, sessionID string, status models.SessionStatus, progress int) error {
	query := `UPDATE generation_sessions
	          SET status = $2, progress = GREATEST(progress, $3)
	          WHERE session_id = $1`
	tag, err := r.db.Exec(ctx, query, sessionID, status, progress)
	if err != nil {
		r.logger.Error("Failed to update session state",
			zap.Error(err),
			zap.String("sessionID", sessionID),
			zap.String("status", string(status)))
		return fmt.Errorf("failed to update session state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrSessionNotFound
	}
	r.logger.Debug("Session state updated",
		zap.String("sessionID", sessionID),
		zap.String("status", string(status)),
		zap.Int("progress", progress))
	return nil
}

// SetStory links the session to the story it produced.
func (r *pgSessionRepository) SetStory(ctx context.Context, sessionID string, storyID int64) error {
	query := `UPDATE generation_sessions SET story_id = $2 WHERE session_id = $1`
	tag, err := r.db.Exec(ctx, query, sessionID, storyID)
	if err != nil {
		r.logger.Error("Failed to link session to story",
			zap.Error(err),
			zap.String("sessionID", sessionID),
			zap.Int64("storyID", storyID))
		return fmt.Errorf("failed to link session to story: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

// MarkFailed moves the session to the failed state and records the
// error text. Progress is left where the pipeline stopped.
func (r *pgSessionRepository) MarkFailed(ctx context.Context, sessionID string, errorMessage string) error {
	query := `UPDATE generation_sessions SET status = $2, error_message = $3 WHERE session_id = $1`
	tag, err := r.db.Exec(ctx, query, sessionID, models.StatusFailed, errorMessage)
	if err != nil {
		r.logger.Error("Failed to mark session as failed", zap.Error(err), zap.String("sessionID", sessionID))
		return fmt.Errorf("failed to mark session as failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrSessionNotFound
	}
	r.logger.Warn("Generation session failed",
		zap.String("sessionID", sessionID),
		zap.String("error", errorMessage))
	return nil
}
