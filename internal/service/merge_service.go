package service

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
)

var imageMergesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "story_server_image_merges_total",
		Help: "Total number of image merge attempts by outcome.",
	},
	[]string{"outcome"},
)

// MergeOutcome is the explicit result of a best-effort merge. A
// skipped outcome is not an error: the caller omits the combined image
// and continues.
type MergeOutcome struct {
	Path    string
	Skipped bool
	Reason  string
}

// ImageMerger composites a character image over a background image.
type ImageMerger interface {
	Merge(characterPath, backgroundPath, destPath string) MergeOutcome
}

// ImageMergeService composites two images into one: the background
// fills the full target size, the character is scaled to half the
// target width at full height and drawn over the right half with
// alpha blending.
type ImageMergeService struct {
	logger *zap.Logger
	width  int
	height int
}

// NewImageMergeService creates an ImageMergeService with the given
// composite target size.
func NewImageMergeService(width, height int, logger *zap.Logger) *ImageMergeService {
	return &ImageMergeService{
		logger: logger.Named("MergeService"),
		width:  width,
		height: height,
	}
}

func skippedMerge(reason string) MergeOutcome {
	imageMergesTotal.With(prometheus.Labels{"outcome": "skipped"}).Inc()
	return MergeOutcome{Skipped: true, Reason: reason}
}

// Merge loads both images, composites them and writes the PNG result
// to destPath. Any failure yields a skipped outcome instead of an error.
func (s *ImageMergeService) Merge(characterPath, backgroundPath, destPath string) MergeOutcome {
	characterImg, err := loadImage(characterPath)
	if err != nil {
		s.logger.Warn("Failed to load character image", zap.String("path", characterPath), zap.Error(err))
		return skippedMerge(fmt.Sprintf("failed to load character image: %v", err))
	}
	backgroundImg, err := loadImage(backgroundPath)
	if err != nil {
		s.logger.Warn("Failed to load background image", zap.String("path", backgroundPath), zap.Error(err))
		return skippedMerge(fmt.Sprintf("failed to load background image: %v", err))
	}

	combined := image.NewRGBA(image.Rect(0, 0, s.width, s.height))

	// Background fills the whole canvas.
	xdraw.ApproxBiLinear.Scale(combined, combined.Bounds(), backgroundImg, backgroundImg.Bounds(), xdraw.Src, nil)

	// Character occupies the right half, alpha-blended over the background.
	rightHalf := image.Rect(s.width/2, 0, s.width, s.height)
	xdraw.ApproxBiLinear.Scale(combined, rightHalf, characterImg, characterImg.Bounds(), xdraw.Over, nil)

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		s.logger.Warn("Failed to create merge output directory", zap.String("path", destPath), zap.Error(err))
		return skippedMerge(fmt.Sprintf("failed to create output directory: %v", err))
	}

	out, err := os.Create(destPath)
	if err != nil {
		s.logger.Warn("Failed to create merged image file", zap.String("path", destPath), zap.Error(err))
		return skippedMerge(fmt.Sprintf("failed to create output file: %v", err))
	}
	defer out.Close()

	if err := png.Encode(out, combined); err != nil {
		s.logger.Warn("Failed to encode merged image", zap.String("path", destPath), zap.Error(err))
		return skippedMerge(fmt.Sprintf("failed to encode merged image: %v", err))
	}

	imageMergesTotal.With(prometheus.Labels{"outcome": "success"}).Inc()
	s.logger.Info("Images merged",
		zap.String("path", destPath),
		zap.Int("width", s.width),
		zap.Int("height", s.height))
	return MergeOutcome{Path: destPath}
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return img, nil
}
