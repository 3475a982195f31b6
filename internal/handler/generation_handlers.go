package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"story-server/internal/models"
)

// generate handles POST /generate: validates the prompt, creates a
// pending session and submits the pipeline to the task runner.
func (h *StoryHandler) generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "invalid request body"})
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		c.JSON(http.StatusBadRequest, APIError{Error: models.ErrEmptyPrompt.Error()})
		return
	}

	session := &models.GenerationSession{
		SessionID: uuid.NewString(),
		Status:    models.StatusPending,
	}
	if err := h.sessions.Create(c.Request.Context(), session); err != nil {
		h.logger.Error("Failed to create generation session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, APIError{Error: "failed to create generation session"})
		return
	}

	if err := h.runner.Submit(session.SessionID, func(ctx context.Context) {
		h.generation.Run(ctx, session.SessionID, prompt)
	}); err != nil {
		h.logger.Error("Failed to submit generation task",
			zap.Error(err),
			zap.String("sessionID", session.SessionID))
		// The session row already exists; leave it in a terminal state
		// so polling clients are not stuck on pending.
		if markErr := h.sessions.MarkFailed(c.Request.Context(), session.SessionID, err.Error()); markErr != nil {
			h.logger.Error("Failed to mark unsubmitted session as failed", zap.Error(markErr))
		}
		c.JSON(http.StatusInternalServerError, APIError{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		Success:   true,
		SessionID: session.SessionID,
		Message:   "Story generation started",
	})
}

// getStatus handles GET /status/:session_id, the polling read path.
func (h *StoryHandler) getStatus(c *gin.Context) {
	sessionID := c.Param("session_id")

	session, err := h.sessions.GetBySessionID(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, APIError{Error: "session not found"})
			return
		}
		h.logger.Error("Failed to load session", zap.Error(err), zap.String("sessionID", sessionID))
		c.JSON(http.StatusInternalServerError, APIError{Error: "failed to load session"})
		return
	}

	resp := StatusResponse{
		Status:   string(session.Status),
		Progress: session.Progress,
		Error:    session.ErrorMessage,
	}
	if session.Status == models.StatusCompleted && session.StoryID != nil {
		resp.StoryID = session.StoryID
		redirect := fmt.Sprintf("/story/%d/", *session.StoryID)
		resp.RedirectURL = &redirect
	}

	c.JSON(http.StatusOK, resp)
}
