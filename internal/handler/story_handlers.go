package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"story-server/internal/models"
)

const recentStoriesLimit = 5

// home handles GET /: the most recent stories.
func (h *StoryHandler) home(c *gin.Context) {
	stories, err := h.stories.List(c.Request.Context(), recentStoriesLimit)
	if err != nil {
		h.logger.Error("Failed to list recent stories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, APIError{Error: "failed to list stories"})
		return
	}
	c.JSON(http.StatusOK, StoryListResponse{Stories: stories})
}

// listStories handles GET /stories: all generated stories.
func (h *StoryHandler) listStories(c *gin.Context) {
	stories, err := h.stories.List(c.Request.Context(), 0)
	if err != nil {
		h.logger.Error("Failed to list stories", zap.Error(err))
		c.JSON(http.StatusInternalServerError, APIError{Error: "failed to list stories"})
		return
	}
	c.JSON(http.StatusOK, StoryListResponse{Stories: stories})
}

// getStory handles GET /story/:id: one story with its images.
func (h *StoryHandler) getStory(c *gin.Context) {
	storyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Error: "invalid story id"})
		return
	}

	story, err := h.stories.GetByID(c.Request.Context(), storyID)
	if err != nil {
		if errors.Is(err, models.ErrStoryNotFound) {
			c.JSON(http.StatusNotFound, APIError{Error: "story not found"})
			return
		}
		h.logger.Error("Failed to load story", zap.Error(err), zap.Int64("storyID", storyID))
		c.JSON(http.StatusInternalServerError, APIError{Error: "failed to load story"})
		return
	}

	images, err := h.images.ListByStoryID(c.Request.Context(), storyID)
	if err != nil {
		h.logger.Error("Failed to load story images", zap.Error(err), zap.Int64("storyID", storyID))
		c.JSON(http.StatusInternalServerError, APIError{Error: "failed to load story images"})
		return
	}

	c.JSON(http.StatusOK, StoryDetailResponse{Story: *story, Images: images})
}
