package service_test

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"story-server/internal/config"
	"story-server/internal/service"
)

func testPNGBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func diffusionConfig(baseURL string) *config.Config {
	return &config.Config{
		SDBaseURL:     baseURL,
		SDTimeout:     5 * time.Second,
		SDImageWidth:  512,
		SDImageHeight: 512,
		SDSteps:       20,
	}
}

func TestDiffusionImageService_GeneratesAndSavesImage(t *testing.T) {
	pngData := testPNGBytes(t)
	var gotRequest map[string]any

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/generate":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
			w.Header().Set("Content-Type", "image/png")
			w.Write(pngData)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer backend.Close()

	svc := service.NewDiffusionImageService(diffusionConfig(backend.URL), zap.NewNop())
	require.True(t, svc.Enabled())

	destPath := filepath.Join(t.TempDir(), "generated_images", "character.png")
	outcome := svc.Generate(t.Context(), "a knight in silver armor", destPath)

	require.False(t, outcome.Skipped, "generation should succeed: %s", outcome.Reason)
	assert.Equal(t, destPath, outcome.Path)

	saved, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, pngData, saved)

	assert.Equal(t, "a knight in silver armor", gotRequest["prompt"])
	assert.Equal(t, float64(512), gotRequest["width"])
	assert.Equal(t, float64(512), gotRequest["height"])
	assert.Equal(t, float64(20), gotRequest["steps"])
}

func TestDiffusionImageService_DisabledWithoutBackendURL(t *testing.T) {
	svc := service.NewDiffusionImageService(diffusionConfig(""), zap.NewNop())
	assert.False(t, svc.Enabled())

	outcome := svc.Generate(t.Context(), "anything", filepath.Join(t.TempDir(), "out.png"))
	assert.True(t, outcome.Skipped)
	assert.NotEmpty(t, outcome.Reason)
}

func TestDiffusionImageService_DisabledWhenProbeFails(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer backend.Close()

	svc := service.NewDiffusionImageService(diffusionConfig(backend.URL), zap.NewNop())
	assert.False(t, svc.Enabled())
}

func TestDiffusionImageService_BackendErrorIsSkippedNotFatal(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer backend.Close()

	svc := service.NewDiffusionImageService(diffusionConfig(backend.URL), zap.NewNop())
	require.True(t, svc.Enabled())

	destPath := filepath.Join(t.TempDir(), "out.png")
	outcome := svc.Generate(t.Context(), "anything", destPath)

	assert.True(t, outcome.Skipped)
	assert.NotEmpty(t, outcome.Reason)
	_, err := os.Stat(destPath)
	assert.True(t, os.IsNotExist(err), "no file must be produced on backend error")
}
