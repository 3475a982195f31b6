package service_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"story-server/internal/service"
)

func writeTestPNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestImageMergeService_ProducesTargetSizeWithCharacterOnRight(t *testing.T) {
	dir := t.TempDir()
	characterPath := filepath.Join(dir, "character.png")
	backgroundPath := filepath.Join(dir, "background.png")
	destPath := filepath.Join(dir, "combined.png")

	writeTestPNG(t, characterPath, 64, 64, color.RGBA{R: 255, A: 255})
	writeTestPNG(t, backgroundPath, 64, 64, color.RGBA{B: 255, A: 255})

	const targetW, targetH = 200, 100
	svc := service.NewImageMergeService(targetW, targetH, zap.NewNop())

	outcome := svc.Merge(characterPath, backgroundPath, destPath)
	require.False(t, outcome.Skipped, "merge should succeed: %s", outcome.Reason)
	require.Equal(t, destPath, outcome.Path)

	f, err := os.Open(destPath)
	require.NoError(t, err)
	defer f.Close()
	combined, err := png.Decode(f)
	require.NoError(t, err)

	bounds := combined.Bounds()
	assert.Equal(t, targetW, bounds.Dx())
	assert.Equal(t, targetH, bounds.Dy())

	// Left half keeps the background, right half shows the character.
	r, _, b, _ := combined.At(targetW/4, targetH/2).RGBA()
	assert.Greater(t, b, r, "left half should be background (blue)")

	r, _, b, _ = combined.At(targetW*3/4, targetH/2).RGBA()
	assert.Greater(t, r, b, "right half should be character (red)")
}

func TestImageMergeService_TransparentCharacterShowsBackground(t *testing.T) {
	dir := t.TempDir()
	characterPath := filepath.Join(dir, "character.png")
	backgroundPath := filepath.Join(dir, "background.png")
	destPath := filepath.Join(dir, "combined.png")

	// Fully transparent character layer.
	writeTestPNG(t, characterPath, 32, 32, color.RGBA{})
	writeTestPNG(t, backgroundPath, 32, 32, color.RGBA{G: 255, A: 255})

	svc := service.NewImageMergeService(100, 50, zap.NewNop())
	outcome := svc.Merge(characterPath, backgroundPath, destPath)
	require.False(t, outcome.Skipped)

	f, err := os.Open(destPath)
	require.NoError(t, err)
	defer f.Close()
	combined, err := png.Decode(f)
	require.NoError(t, err)

	// The background must show through on the right half.
	_, g, _, _ := combined.At(75, 25).RGBA()
	assert.Greater(t, g, uint32(0x8000), "transparent character must not cover the background")
}

func TestImageMergeService_MissingInputIsSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	backgroundPath := filepath.Join(dir, "background.png")
	writeTestPNG(t, backgroundPath, 16, 16, color.RGBA{B: 255, A: 255})

	svc := service.NewImageMergeService(64, 64, zap.NewNop())

	outcome := svc.Merge(filepath.Join(dir, "missing.png"), backgroundPath, filepath.Join(dir, "out.png"))
	assert.True(t, outcome.Skipped)
	assert.NotEmpty(t, outcome.Reason)
	assert.Empty(t, outcome.Path)
}

func TestImageMergeService_CorruptInputIsSkippedNotFatal(t *testing.T) {
	dir := t.TempDir()
	characterPath := filepath.Join(dir, "character.png")
	backgroundPath := filepath.Join(dir, "background.png")
	require.NoError(t, os.WriteFile(characterPath, []byte("not a png"), 0o644))
	writeTestPNG(t, backgroundPath, 16, 16, color.RGBA{B: 255, A: 255})

	svc := service.NewImageMergeService(64, 64, zap.NewNop())

	outcome := svc.Merge(characterPath, backgroundPath, filepath.Join(dir, "out.png"))
	assert.True(t, outcome.Skipped)
	assert.NotEmpty(t, outcome.Reason)
}
