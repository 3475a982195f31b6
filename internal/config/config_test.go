package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "ollama", cfg.AIProvider)
	assert.Equal(t, "http://localhost:11434", cfg.AIBaseURL)
	assert.Equal(t, 512, cfg.SDImageWidth)
	assert.Equal(t, 512, cfg.SDImageHeight)
	assert.Equal(t, 20, cfg.SDSteps)
	assert.Equal(t, 1024, cfg.MergeWidth)
	assert.Equal(t, 512, cfg.MergeHeight)
	assert.Equal(t, "media", cfg.MediaRoot)
	assert.Equal(t, 4, cfg.MaxGenerationTasks)
	assert.Empty(t, cfg.SDBaseURL)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("AI_PROVIDER", "openai")
	t.Setenv("AI_TIMEOUT", "30s")
	t.Setenv("SD_BASE_URL", "http://sd:7860")
	t.Setenv("MAX_GENERATION_TASKS", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "openai", cfg.AIProvider)
	assert.Equal(t, 30*time.Second, cfg.AITimeout)
	assert.Equal(t, "http://sd:7860", cfg.SDBaseURL)
	assert.Equal(t, 2, cfg.MaxGenerationTasks)
}

func TestGetDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     "5433",
		DBUser:     "app",
		DBPassword: "secret",
		DBName:     "stories_db",
		DBSSLMode:  "disable",
	}
	assert.Equal(t, "postgres://app:secret@db:5433/stories_db?sslmode=disable", cfg.GetDSN())
}

func TestGetMaskedDSN_HidesPassword(t *testing.T) {
	cfg := &Config{
		DBHost:     "db",
		DBPort:     "5432",
		DBUser:     "app",
		DBPassword: "secret",
		DBName:     "stories_db",
		DBSSLMode:  "disable",
	}
	masked := cfg.GetMaskedDSN()
	assert.NotContains(t, masked, "secret")
	assert.Contains(t, masked, "app:********@db")
}
