package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"story-server/internal/models"
	"story-server/internal/repository"
)

const generatedImagesDir = "generated_images"

var generationSessionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "story_server_generation_sessions_total",
		Help: "Total number of finished generation sessions by terminal status.",
	},
	[]string{"status"},
)

// GenerationService sequences story generation, image generation and
// compositing for one session, recording progress on the session row
// after each stage. All collaborators are injected once at startup.
type GenerationService struct {
	storySvc  *StoryGenerationService
	imageGen  ImageGenerator
	merger    ImageMerger
	stories   repository.StoryRepository
	images    repository.ImageRepository
	sessions  repository.SessionRepository
	mediaRoot string
	logger    *zap.Logger
}

// NewGenerationService creates the generation orchestrator.
func NewGenerationService(
	storySvc *StoryGenerationService,
	imageGen ImageGenerator,
	merger ImageMerger,
	stories repository.StoryRepository,
	images repository.ImageRepository,
	sessions repository.SessionRepository,
	mediaRoot string,
	logger *zap.Logger,
) *GenerationService {
	return &GenerationService{
		storySvc:  storySvc,
		imageGen:  imageGen,
		merger:    merger,
		stories:   stories,
		images:    images,
		sessions:  sessions,
		mediaRoot: mediaRoot,
		logger:    logger.Named("GenerationService"),
	}
}

// Run executes the full generation pipeline for one session. Errors
// never propagate to the caller: they are recorded on the session row
// and the session is marked failed.
func (s *GenerationService) Run(ctx context.Context, sessionID string, prompt string) {
	log := s.logger.With(zap.String("sessionID", sessionID))
	if err := s.run(ctx, log, sessionID, prompt); err != nil {
		log.Error("Generation pipeline failed", zap.Error(err))
		generationSessionsTotal.With(prometheus.Labels{"status": string(models.StatusFailed)}).Inc()

		// The pipeline context may already be cancelled; the failure
		// still has to land on the session row.
		failCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if markErr := s.sessions.MarkFailed(failCtx, sessionID, err.Error()); markErr != nil {
			log.Error("Failed to record session failure", zap.Error(markErr))
		}
		return
	}
	generationSessionsTotal.With(prometheus.Labels{"status": string(models.StatusCompleted)}).Inc()
	log.Info("Generation pipeline completed")
}

func (s *GenerationService) run(ctx context.Context, log *zap.Logger, sessionID string, prompt string) error {
	session, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.advance(ctx, session, models.StatusGeneratingStory, models.ProgressSessionStarted); err != nil {
		return err
	}

	storyText, err := s.storySvc.GenerateStory(ctx, prompt)
	if err != nil {
		return err
	}

	story := &models.Story{
		Title:     makeTitle(prompt),
		Prompt:    prompt,
		StoryText: storyText,
	}
	if err := s.stories.Create(ctx, story); err != nil {
		return err
	}
	if err := s.sessions.SetStory(ctx, sessionID, story.ID); err != nil {
		return err
	}
	session.StoryID = &story.ID
	if err := s.advance(ctx, session, models.StatusGeneratingStory, models.ProgressStoryPersisted); err != nil {
		return err
	}

	characterDesc, err := s.storySvc.GenerateCharacterDescription(ctx, storyText)
	if err != nil {
		return err
	}
	backgroundDesc, err := s.storySvc.GenerateBackgroundDescription(ctx, storyText)
	if err != nil {
		return err
	}
	if err := s.stories.UpdateDescriptions(ctx, story.ID, characterDesc, backgroundDesc); err != nil {
		return err
	}
	if err := s.advance(ctx, session, models.StatusGeneratingImages, models.ProgressDescriptionsReady); err != nil {
		return err
	}

	mediaDir := filepath.Join(s.mediaRoot, generatedImagesDir)
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	characterPath := s.attemptImage(ctx, log, story.ID, models.ImageKindCharacter, characterDesc, mediaDir)
	if err := s.advance(ctx, session, models.StatusGeneratingImages, models.ProgressCharacterImageDone); err != nil {
		return err
	}

	backgroundPath := s.attemptImage(ctx, log, story.ID, models.ImageKindBackground, backgroundDesc, mediaDir)
	if err := s.advance(ctx, session, models.StatusMergingImages, models.ProgressEnteringMerge); err != nil {
		return err
	}

	// Compositing only makes sense when both component files landed on disk.
	if fileExists(characterPath) && fileExists(backgroundPath) {
		combinedName := imageFileName(models.ImageKindCombined, story.ID)
		combinedPath := filepath.Join(mediaDir, combinedName)
		outcome := s.merger.Merge(characterPath, backgroundPath, combinedPath)
		if outcome.Skipped {
			log.Warn("Image merge skipped", zap.String("reason", outcome.Reason))
		} else {
			combinedPrompt := fmt.Sprintf("Character: %s\nBackground: %s", characterDesc, backgroundDesc)
			image := &models.GeneratedImage{
				StoryID:    story.ID,
				Kind:       models.ImageKindCombined,
				FilePath:   filepath.Join(generatedImagesDir, combinedName),
				PromptUsed: combinedPrompt,
			}
			if err := s.images.Create(ctx, image); err != nil {
				return err
			}
		}
	} else {
		log.Info("Skipping merge stage, component images incomplete",
			zap.Bool("character_present", fileExists(characterPath)),
			zap.Bool("background_present", fileExists(backgroundPath)))
	}

	return s.advance(ctx, session, models.StatusCompleted, models.ProgressCompleted)
}

// attemptImage runs one best-effort image generation and records the
// GeneratedImage row when a file was produced. Returns the absolute
// file path, or empty when the attempt was skipped.
func (s *GenerationService) attemptImage(ctx context.Context, log *zap.Logger, storyID int64, kind models.ImageKind, description string, mediaDir string) string {
	fileName := imageFileName(kind, storyID)
	destPath := filepath.Join(mediaDir, fileName)

	outcome := s.imageGen.Generate(ctx, description, destPath)
	if outcome.Skipped {
		log.Warn("Image generation skipped",
			zap.String("kind", string(kind)),
			zap.String("reason", outcome.Reason))
		return ""
	}

	image := &models.GeneratedImage{
		StoryID:    storyID,
		Kind:       kind,
		FilePath:   filepath.Join(generatedImagesDir, fileName),
		PromptUsed: description,
	}
	if err := s.images.Create(ctx, image); err != nil {
		// The file exists but the row does not; treat like a skipped
		// image rather than failing the whole session.
		log.Warn("Failed to record generated image", zap.String("kind", string(kind)), zap.Error(err))
	}
	return outcome.Path
}

// advance validates and applies one session state move. Repeating the
// current status only bumps the progress checkpoint.
func (s *GenerationService) advance(ctx context.Context, session *models.GenerationSession, next models.SessionStatus, progress int) error {
	status := session.Status
	if next != session.Status {
		var err error
		status, err = session.Status.Transition(next)
		if err != nil {
			return err
		}
	}
	if err := s.sessions.UpdateState(ctx, session.SessionID, status, progress); err != nil {
		return err
	}
	session.Status = status
	if progress > session.Progress {
		session.Progress = progress
	}
	return nil
}

func makeTitle(prompt string) string {
	runes := []rune(prompt)
	if len(runes) > 50 {
		runes = runes[:50]
	}
	return fmt.Sprintf("Story from: %s...", string(runes))
}

func imageFileName(kind models.ImageKind, storyID int64) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%d_%s.png", kind, storyID, random)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
