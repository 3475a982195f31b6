package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"story-server/internal/models"
	"story-server/internal/repository"
)

// MockStoryRepository is a mock type for the StoryRepository type
type MockStoryRepository struct {
	mock.Mock
}

func (_m *MockStoryRepository) Create(ctx context.Context, story *models.Story) error {
	ret := _m.Called(ctx, story)
	return ret.Error(0)
}

func (_m *MockStoryRepository) UpdateDescriptions(ctx context.Context, storyID int64, characterDesc, backgroundDesc string) error {
	ret := _m.Called(ctx, storyID, characterDesc, backgroundDesc)
	return ret.Error(0)
}

func (_m *MockStoryRepository) GetByID(ctx context.Context, storyID int64) (*models.Story, error) {
	ret := _m.Called(ctx, storyID)

	var r0 *models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Story)
	}
	return r0, ret.Error(1)
}

func (_m *MockStoryRepository) List(ctx context.Context, limit int) ([]models.Story, error) {
	ret := _m.Called(ctx, limit)

	var r0 []models.Story
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Story)
	}
	return r0, ret.Error(1)
}

// NewMockStoryRepository creates a new instance of MockStoryRepository.
func NewMockStoryRepository(t interface {
	mock.TestingT
	Helper()
}) *MockStoryRepository {
	m := &MockStoryRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.StoryRepository = (*MockStoryRepository)(nil)

// MockImageRepository is a mock type for the ImageRepository type
type MockImageRepository struct {
	mock.Mock
}

func (_m *MockImageRepository) Create(ctx context.Context, image *models.GeneratedImage) error {
	ret := _m.Called(ctx, image)
	return ret.Error(0)
}

func (_m *MockImageRepository) ListByStoryID(ctx context.Context, storyID int64) ([]models.GeneratedImage, error) {
	ret := _m.Called(ctx, storyID)

	var r0 []models.GeneratedImage
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.GeneratedImage)
	}
	return r0, ret.Error(1)
}

func (_m *MockImageRepository) CountByStoryID(ctx context.Context, storyID int64) (int, error) {
	ret := _m.Called(ctx, storyID)
	return ret.Int(0), ret.Error(1)
}

// NewMockImageRepository creates a new instance of MockImageRepository.
func NewMockImageRepository(t interface {
	mock.TestingT
	Helper()
}) *MockImageRepository {
	m := &MockImageRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.ImageRepository = (*MockImageRepository)(nil)

// MockSessionRepository is a mock type for the SessionRepository type
type MockSessionRepository struct {
	mock.Mock
}

func (_m *MockSessionRepository) Create(ctx context.Context, session *models.GenerationSession) error {
	ret := _m.Called(ctx, session)
	return ret.Error(0)
}

func (_m *MockSessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.GenerationSession, error) {
	ret := _m.Called(ctx, sessionID)

	var r0 *models.GenerationSession
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.GenerationSession)
	}
	return r0, ret.Error(1)
}

func (_m *MockSessionRepository) UpdateState(ctx context.Context, sessionID string, status models.SessionStatus, progress int) error {
	ret := _m.Called(ctx, sessionID, status, progress)
	return ret.Error(0)
}

func (_m *MockSessionRepository) SetStory(ctx context.Context, sessionID string, storyID int64) error {
	ret := _m.Called(ctx, sessionID, storyID)
	return ret.Error(0)
}

func (_m *MockSessionRepository) MarkFailed(ctx context.Context, sessionID string, errorMessage string) error {
	ret := _m.Called(ctx, sessionID, errorMessage)
	return ret.Error(0)
}

// NewMockSessionRepository creates a new instance of MockSessionRepository.
func NewMockSessionRepository(t interface {
	mock.TestingT
	Helper()
}) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.SessionRepository = (*MockSessionRepository)(nil)
