package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the configuration for the story generation server.
type Config struct {
	// HTTP server settings
	ServerPort         int           `envconfig:"SERVER_PORT" default:"8080"`
	ServerReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	ServerWriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"15s"`
	ServerIdleTimeout  time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Logging
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// AI text backend. Provider is "ollama" (native API) or "openai"
	// (any OpenAI-compatible endpoint).
	AIProvider string        `envconfig:"AI_PROVIDER" default:"ollama"`
	AIBaseURL  string        `envconfig:"AI_BASE_URL" default:"http://localhost:11434"`
	AIModel    string        `envconfig:"AI_MODEL" default:"llama3"`
	AIAPIKey   string        `envconfig:"AI_API_KEY"`
	AITimeout  time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`

	// Diffusion image backend. Empty base URL disables image generation.
	SDBaseURL     string        `envconfig:"SD_BASE_URL"`
	SDTimeout     time.Duration `envconfig:"SD_TIMEOUT" default:"180s"`
	SDImageWidth  int           `envconfig:"SD_IMAGE_WIDTH" default:"512"`
	SDImageHeight int           `envconfig:"SD_IMAGE_HEIGHT" default:"512"`
	SDSteps       int           `envconfig:"SD_STEPS" default:"20"`

	// Composite image target size.
	MergeWidth  int `envconfig:"MERGE_WIDTH" default:"1024"`
	MergeHeight int `envconfig:"MERGE_HEIGHT" default:"512"`

	// Media storage
	MediaRoot string `envconfig:"MEDIA_ROOT" default:"media"`

	// Generation worker pool
	MaxGenerationTasks int `envconfig:"MAX_GENERATION_TASKS" default:"4"`

	// PostgreSQL settings
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBPassword    string        `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"stories_db"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// GetMaskedDSN returns the DSN with the password hidden, for logging.
func (c *Config) GetMaskedDSN() string {
	dsn := c.GetDSN()
	parts := strings.Split(dsn, "@")
	if len(parts) != 2 {
		return "[invalid dsn format]"
	}
	userInfo := strings.Split(parts[0], ":")
	if len(userInfo) >= 2 {
		userInfo[len(userInfo)-1] = "********"
	}
	return strings.Join(userInfo, ":") + "@" + parts[1]
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}
