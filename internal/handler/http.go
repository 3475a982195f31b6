package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"story-server/internal/repository"
	"story-server/internal/taskrunner"
)

// GenerationRunner executes the generation pipeline for one session.
type GenerationRunner interface {
	Run(ctx context.Context, sessionID string, prompt string)
}

// StoryHandler handles HTTP requests for story generation and browsing.
type StoryHandler struct {
	generation GenerationRunner
	runner     *taskrunner.Runner
	stories    repository.StoryRepository
	images     repository.ImageRepository
	sessions   repository.SessionRepository
	logger     *zap.Logger
}

// NewStoryHandler creates a StoryHandler.
func NewStoryHandler(
	generation GenerationRunner,
	runner *taskrunner.Runner,
	stories repository.StoryRepository,
	images repository.ImageRepository,
	sessions repository.SessionRepository,
	logger *zap.Logger,
) *StoryHandler {
	return &StoryHandler{
		generation: generation,
		runner:     runner,
		stories:    stories,
		images:     images,
		sessions:   sessions,
		logger:     logger.Named("StoryHandler"),
	}
}

// RegisterRoutes registers all story routes on the gin engine.
func (h *StoryHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.home)
	r.GET("/stories", h.listStories)
	r.GET("/story/:id", h.getStory)
	r.POST("/generate", h.generate)
	r.GET("/status/:session_id", h.getStatus)
}
