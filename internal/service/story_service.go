package service

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"
)

const creativeWriterSystemPrompt = "You are a creative writer. Follow the instructions exactly and answer with the requested text only."

const storyTemplateText = `Create an engaging short story based on the following prompt:
{{.UserPrompt}}

Please write a complete story with a clear beginning, middle, and end.
Make it creative and engaging, approximately 300-500 words.

Story:`

const characterTemplateText = `Based on this story, create a detailed visual description of the main character:

Story: {{.Story}}

Please describe the character's physical appearance, clothing, and distinctive features
in vivid detail for image generation. Focus on visual elements only.
Keep the description under 150 words.

Character Description:`

const backgroundTemplateText = `Based on this story, create a detailed visual description of the main setting/background:

Story: {{.Story}}

Please describe the environment, scenery, and setting in vivid detail for image generation.
Include details about lighting, atmosphere, and visual elements.
Keep the description under 150 words.

Background Description:`

var (
	storyTemplate      = template.Must(template.New("story").Parse(storyTemplateText))
	characterTemplate  = template.Must(template.New("character").Parse(characterTemplateText))
	backgroundTemplate = template.Must(template.New("background").Parse(backgroundTemplateText))
)

// StoryGenerationService produces a story and the two visual
// descriptions derived from it. Output is the model's raw text; no
// length or format validation is applied.
type StoryGenerationService struct {
	ai     AIClient
	logger *zap.Logger
}

// NewStoryGenerationService creates a StoryGenerationService around an
// injected AI client.
func NewStoryGenerationService(ai AIClient, logger *zap.Logger) *StoryGenerationService {
	return &StoryGenerationService{
		ai:     ai,
		logger: logger.Named("StoryService"),
	}
}

func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt template: %w", err)
	}
	return sb.String(), nil
}

// GenerateStory generates a short story from the user prompt.
func (s *StoryGenerationService) GenerateStory(ctx context.Context, userPrompt string) (string, error) {
	instruction, err := renderTemplate(storyTemplate, struct{ UserPrompt string }{userPrompt})
	if err != nil {
		return "", err
	}
	s.logger.Debug("Generating story", zap.Int("prompt_chars", len(userPrompt)))
	return s.ai.GenerateText(ctx, creativeWriterSystemPrompt, instruction)
}

// GenerateCharacterDescription derives a character visual description
// from the story text.
func (s *StoryGenerationService) GenerateCharacterDescription(ctx context.Context, storyText string) (string, error) {
	instruction, err := renderTemplate(characterTemplate, struct{ Story string }{storyText})
	if err != nil {
		return "", err
	}
	s.logger.Debug("Generating character description", zap.Int("story_chars", len(storyText)))
	return s.ai.GenerateText(ctx, creativeWriterSystemPrompt, instruction)
}

// GenerateBackgroundDescription derives a background visual description
// from the story text.
func (s *StoryGenerationService) GenerateBackgroundDescription(ctx context.Context, storyText string) (string, error) {
	instruction, err := renderTemplate(backgroundTemplate, struct{ Story string }{storyText})
	if err != nil {
		return "", err
	}
	s.logger.Debug("Generating background description", zap.Int("story_chars", len(storyText)))
	return s.ai.GenerateText(ctx, creativeWriterSystemPrompt, instruction)
}
