package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"story-server/internal/config"
)

var imageGenerationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "story_server_image_generations_total",
		Help: "Total number of image generation attempts by outcome.",
	},
	[]string{"outcome"},
)

// ImageOutcome is the explicit result of a best-effort image
// generation. A skipped outcome is not an error: the caller omits the
// image and continues.
type ImageOutcome struct {
	Path    string
	Skipped bool
	Reason  string
}

// ImageGenerator renders a raster image from a text description.
type ImageGenerator interface {
	// Generate writes a PNG to destPath. The outcome is skipped when
	// the backend is disabled or the attempt fails for any reason.
	Generate(ctx context.Context, description string, destPath string) ImageOutcome
	// Enabled reports whether a diffusion backend was detected at startup.
	Enabled() bool
}

// diffusionRequest is the JSON body sent to the diffusion server.
type diffusionRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Steps  int    `json:"steps"`
}

type diffusionImageService struct {
	logger  *zap.Logger
	client  *http.Client
	baseURL string
	width   int
	height  int
	steps   int
	enabled bool
}

// NewDiffusionImageService creates an ImageGenerator backed by a
// diffusion HTTP server. The backend is probed once at construction
// time: when it is unreachable or not configured the service stays
// disabled and every generation yields a skipped outcome.
func NewDiffusionImageService(cfg *config.Config, logger *zap.Logger) ImageGenerator {
	logger = logger.Named("ImageService")
	svc := &diffusionImageService{
		logger:  logger,
		client:  &http.Client{Timeout: cfg.SDTimeout},
		baseURL: cfg.SDBaseURL,
		width:   cfg.SDImageWidth,
		height:  cfg.SDImageHeight,
		steps:   cfg.SDSteps,
	}

	if cfg.SDBaseURL == "" {
		logger.Warn("Diffusion backend not configured, image generation disabled")
		return svc
	}

	probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, cfg.SDBaseURL+"/health", nil)
	if err != nil {
		logger.Warn("Failed to build diffusion backend probe, image generation disabled", zap.Error(err))
		return svc
	}
	resp, err := svc.client.Do(req)
	if err != nil {
		logger.Warn("Diffusion backend unreachable, image generation disabled",
			zap.String("baseURL", cfg.SDBaseURL), zap.Error(err))
		return svc
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Warn("Diffusion backend probe returned non-OK status, image generation disabled",
			zap.Int("status", resp.StatusCode))
		return svc
	}

	svc.enabled = true
	logger.Info("Diffusion backend detected",
		zap.String("baseURL", cfg.SDBaseURL),
		zap.Int("width", svc.width),
		zap.Int("height", svc.height),
		zap.Int("steps", svc.steps))
	return svc
}

func (s *diffusionImageService) Enabled() bool {
	return s.enabled
}

func skippedOutcome(reason string) ImageOutcome {
	imageGenerationsTotal.With(prometheus.Labels{"outcome": "skipped"}).Inc()
	return ImageOutcome{Skipped: true, Reason: reason}
}

// Generate renders one image and writes it to destPath.
func (s *diffusionImageService) Generate(ctx context.Context, description string, destPath string) ImageOutcome {
	if !s.enabled {
		return skippedOutcome("diffusion backend unavailable")
	}

	imageData, err := s.callBackend(ctx, description)
	if err != nil {
		s.logger.Warn("Image generation attempt failed", zap.Error(err))
		return skippedOutcome(fmt.Sprintf("backend call failed: %v", err))
	}
	if len(imageData) == 0 {
		s.logger.Warn("Diffusion backend returned empty image data")
		return skippedOutcome("backend returned empty image data")
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		s.logger.Warn("Failed to create image directory", zap.String("path", destPath), zap.Error(err))
		return skippedOutcome(fmt.Sprintf("failed to create image directory: %v", err))
	}
	if err := os.WriteFile(destPath, imageData, 0o644); err != nil {
		s.logger.Warn("Failed to save generated image", zap.String("path", destPath), zap.Error(err))
		return skippedOutcome(fmt.Sprintf("failed to save image: %v", err))
	}

	imageGenerationsTotal.With(prometheus.Labels{"outcome": "success"}).Inc()
	s.logger.Info("Image generated",
		zap.String("path", destPath),
		zap.Int("size_bytes", len(imageData)))
	return ImageOutcome{Path: destPath}
}

func (s *diffusionImageService) callBackend(ctx context.Context, prompt string) ([]byte, error) {
	reqBody, err := json.Marshal(diffusionRequest{
		Prompt: prompt,
		Width:  s.width,
		Height: s.height,
		Steps:  s.steps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	endpointURL := s.baseURL + "/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/*")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(body))
	}
	if readErr != nil {
		return nil, fmt.Errorf("failed to read response body: %w", readErr)
	}
	return body, nil
}
