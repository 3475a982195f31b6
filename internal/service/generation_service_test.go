package service_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"story-server/internal/mocks"
	"story-server/internal/models"
	"story-server/internal/service"
)

const (
	testSessionID = "11111111-2222-3333-4444-555555555555"
	testPrompt    = "a lighthouse keeper who talks to storms"
	testStoryText = "Every night the keeper climbed the spiral stairs..."
	testCharDesc  = "A weathered keeper in an oilskin coat."
	testBGDesc    = "A lighthouse on black cliffs under a green storm."
)

type stateChange struct {
	status   models.SessionStatus
	progress int
}

type generationFixture struct {
	ai       *mocks.MockAIClient
	imageGen *mocks.MockImageGenerator
	merger   *mocks.MockImageMerger
	stories  *mocks.MockStoryRepository
	images   *mocks.MockImageRepository
	sessions *mocks.MockSessionRepository
	svc      *service.GenerationService
	changes  *[]stateChange
}

func newGenerationFixture(t *testing.T, mediaRoot string) *generationFixture {
	t.Helper()

	f := &generationFixture{
		ai:       mocks.NewMockAIClient(t),
		imageGen: mocks.NewMockImageGenerator(t),
		merger:   mocks.NewMockImageMerger(t),
		stories:  mocks.NewMockStoryRepository(t),
		images:   mocks.NewMockImageRepository(t),
		sessions: mocks.NewMockSessionRepository(t),
		changes:  &[]stateChange{},
	}
	storySvc := service.NewStoryGenerationService(f.ai, zap.NewNop())
	f.svc = service.NewGenerationService(
		storySvc, f.imageGen, f.merger,
		f.stories, f.images, f.sessions,
		mediaRoot, zap.NewNop(),
	)

	f.sessions.On("GetBySessionID", mock.Anything, testSessionID).
		Return(&models.GenerationSession{
			SessionID: testSessionID,
			Status:    models.StatusPending,
			Progress:  0,
		}, nil).Maybe()

	changes := f.changes
	f.sessions.On("UpdateState", mock.Anything, testSessionID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			*changes = append(*changes, stateChange{
				status:   args.Get(2).(models.SessionStatus),
				progress: args.Int(3),
			})
		}).
		Return(nil).Maybe()

	return f
}

func (f *generationFixture) expectTextGeneration() {
	f.ai.On("GenerateText", mock.Anything, mock.Anything, mock.MatchedBy(func(in string) bool {
		return strings.Contains(in, testPrompt)
	})).Return(testStoryText, nil).Once()
	f.ai.On("GenerateText", mock.Anything, mock.Anything, mock.MatchedBy(func(in string) bool {
		return strings.Contains(in, "main character")
	})).Return(testCharDesc, nil).Once()
	f.ai.On("GenerateText", mock.Anything, mock.Anything, mock.MatchedBy(func(in string) bool {
		return strings.Contains(in, "setting/background")
	})).Return(testBGDesc, nil).Once()
}

func (f *generationFixture) expectStoryPersistence(storyID int64) {
	f.stories.On("Create", mock.Anything, mock.AnythingOfType("*models.Story")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.Story).ID = storyID
		}).
		Return(nil).Once()
	f.sessions.On("SetStory", mock.Anything, testSessionID, storyID).Return(nil).Once()
	f.stories.On("UpdateDescriptions", mock.Anything, storyID, testCharDesc, testBGDesc).
		Return(nil).Once()
}

func writeDummyFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o644))
	return path
}

func TestGenerationService_HappyPath(t *testing.T) {
	mediaRoot := t.TempDir()
	f := newGenerationFixture(t, mediaRoot)
	f.expectTextGeneration()
	f.expectStoryPersistence(42)

	characterPath := writeDummyFile(t, mediaRoot, "character.png")
	backgroundPath := writeDummyFile(t, mediaRoot, "background.png")

	f.imageGen.On("Generate", mock.Anything, testCharDesc, mock.AnythingOfType("string")).
		Return(service.ImageOutcome{Path: characterPath}).Once()
	f.imageGen.On("Generate", mock.Anything, testBGDesc, mock.AnythingOfType("string")).
		Return(service.ImageOutcome{Path: backgroundPath}).Once()
	f.merger.On("Merge", characterPath, backgroundPath, mock.AnythingOfType("string")).
		Return(service.MergeOutcome{Path: filepath.Join(mediaRoot, "combined.png")}).Once()

	var createdKinds []models.ImageKind
	f.images.On("Create", mock.Anything, mock.AnythingOfType("*models.GeneratedImage")).
		Run(func(args mock.Arguments) {
			img := args.Get(1).(*models.GeneratedImage)
			assert.Equal(t, int64(42), img.StoryID)
			createdKinds = append(createdKinds, img.Kind)
		}).
		Return(nil).Times(3)

	f.svc.Run(t.Context(), testSessionID, testPrompt)

	assert.Equal(t, []stateChange{
		{models.StatusGeneratingStory, models.ProgressSessionStarted},
		{models.StatusGeneratingStory, models.ProgressStoryPersisted},
		{models.StatusGeneratingImages, models.ProgressDescriptionsReady},
		{models.StatusGeneratingImages, models.ProgressCharacterImageDone},
		{models.StatusMergingImages, models.ProgressEnteringMerge},
		{models.StatusCompleted, models.ProgressCompleted},
	}, *f.changes)
	assert.Equal(t, []models.ImageKind{
		models.ImageKindCharacter,
		models.ImageKindBackground,
		models.ImageKindCombined,
	}, createdKinds)
	f.sessions.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
	mock.AssertExpectationsForObjects(t, f.ai, f.imageGen, f.merger, f.stories, f.images, f.sessions)
}

func TestGenerationService_ProgressIsMonotonic(t *testing.T) {
	f := newGenerationFixture(t, t.TempDir())
	f.expectTextGeneration()
	f.expectStoryPersistence(7)

	f.imageGen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(service.ImageOutcome{Skipped: true, Reason: "image generation disabled"}).Twice()

	f.svc.Run(t.Context(), testSessionID, testPrompt)

	last := -1
	for _, change := range *f.changes {
		assert.Greater(t, change.progress, last)
		last = change.progress
	}
	assert.Equal(t, models.ProgressCompleted, last)
}

func TestGenerationService_SkippedImagesStillComplete(t *testing.T) {
	f := newGenerationFixture(t, t.TempDir())
	f.expectTextGeneration()
	f.expectStoryPersistence(7)

	f.imageGen.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(service.ImageOutcome{Skipped: true, Reason: "image generation disabled"}).Twice()

	f.svc.Run(t.Context(), testSessionID, testPrompt)

	require.NotEmpty(t, *f.changes)
	final := (*f.changes)[len(*f.changes)-1]
	assert.Equal(t, models.StatusCompleted, final.status)
	assert.Equal(t, models.ProgressCompleted, final.progress)

	f.images.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.merger.AssertNotCalled(t, "Merge", mock.Anything, mock.Anything, mock.Anything)
	f.sessions.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerationService_MergeSkipKeepsComponentImages(t *testing.T) {
	mediaRoot := t.TempDir()
	f := newGenerationFixture(t, mediaRoot)
	f.expectTextGeneration()
	f.expectStoryPersistence(9)

	characterPath := writeDummyFile(t, mediaRoot, "character.png")
	backgroundPath := writeDummyFile(t, mediaRoot, "background.png")

	f.imageGen.On("Generate", mock.Anything, testCharDesc, mock.Anything).
		Return(service.ImageOutcome{Path: characterPath}).Once()
	f.imageGen.On("Generate", mock.Anything, testBGDesc, mock.Anything).
		Return(service.ImageOutcome{Path: backgroundPath}).Once()
	f.merger.On("Merge", characterPath, backgroundPath, mock.Anything).
		Return(service.MergeOutcome{Skipped: true, Reason: "failed to open character image"}).Once()

	f.images.On("Create", mock.Anything, mock.AnythingOfType("*models.GeneratedImage")).
		Return(nil).Twice()

	f.svc.Run(t.Context(), testSessionID, testPrompt)

	final := (*f.changes)[len(*f.changes)-1]
	assert.Equal(t, models.StatusCompleted, final.status)
	mock.AssertExpectationsForObjects(t, f.images, f.merger)
}

func TestGenerationService_StoryFailureMarksSessionFailed(t *testing.T) {
	f := newGenerationFixture(t, t.TempDir())

	f.ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("model unavailable")).Once()
	f.sessions.On("MarkFailed", mock.Anything, testSessionID, "model unavailable").
		Return(nil).Once()

	f.svc.Run(t.Context(), testSessionID, testPrompt)

	f.stories.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.imageGen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
	f.sessions.AssertExpectations(t)
}

func TestGenerationService_UnknownSessionMarksFailed(t *testing.T) {
	f := &generationFixture{
		ai:       mocks.NewMockAIClient(t),
		imageGen: mocks.NewMockImageGenerator(t),
		merger:   mocks.NewMockImageMerger(t),
		stories:  mocks.NewMockStoryRepository(t),
		images:   mocks.NewMockImageRepository(t),
		sessions: mocks.NewMockSessionRepository(t),
	}
	storySvc := service.NewStoryGenerationService(f.ai, zap.NewNop())
	svc := service.NewGenerationService(
		storySvc, f.imageGen, f.merger,
		f.stories, f.images, f.sessions,
		t.TempDir(), zap.NewNop(),
	)

	f.sessions.On("GetBySessionID", mock.Anything, "missing").
		Return(nil, models.ErrSessionNotFound).Once()
	f.sessions.On("MarkFailed", mock.Anything, "missing", models.ErrSessionNotFound.Error()).
		Return(nil).Once()

	svc.Run(t.Context(), "missing", testPrompt)

	f.sessions.AssertExpectations(t)
}
