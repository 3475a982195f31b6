package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"story-server/internal/config"
)

// ErrAIGenerationFailed is returned when the text backend fails.
var ErrAIGenerationFailed = errors.New("ai text generation failed")

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "story_server_ai_requests_total",
			Help: "Total number of requests to the AI text backend.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "story_server_ai_request_duration_seconds",
			Help:    "Histogram of AI text backend request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "story_server_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(250, 250, 20),
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "story_server_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
)

// UsageInfo carries token accounting for one request.
type UsageInfo struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AIClient is the contract consumed by the story generation service.
type AIClient interface {
	// GenerateText sends a system prompt plus optional user input to
	// the text backend and returns the raw model output.
	GenerateText(ctx context.Context, systemPrompt string, userInput string) (string, error)
}

// NewAIClient builds the AIClient implementation selected by the
// configuration: the native Ollama API or any OpenAI-compatible endpoint.
func NewAIClient(cfg *config.Config, logger *zap.Logger) (AIClient, error) {
	switch strings.ToLower(cfg.AIProvider) {
	case "", "ollama":
		return newOllamaClient(cfg, logger)
	case "openai":
		return newOpenAIClient(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}

func recordUsage(model string, usage UsageInfo) {
	if usage.TotalTokens <= 0 {
		return
	}
	aiPromptTokens.With(prometheus.Labels{"model": model}).Observe(float64(usage.PromptTokens))
	aiCompletionTokens.With(prometheus.Labels{"model": model}).Observe(float64(usage.CompletionTokens))
}

// estimateTokens approximates the token count of text for backends that
// do not report usage. Falls back to zero when the model has no known
// encoding.
func estimateTokens(model, text string) int {
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tke, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return 0
		}
	}
	return len(tke.Encode(text, nil, nil))
}

// --- Ollama client ---

type ollamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func newOllamaClient(cfg *config.Config, logger *zap.Logger) (AIClient, error) {
	// api.NewClient expects the bare server URL without a /v1 suffix.
	baseURL := strings.TrimSuffix(cfg.AIBaseURL, "/v1")
	baseURL = strings.TrimSuffix(baseURL, "/")

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama base URL %q: %w", baseURL, err)
	}

	httpClient := &http.Client{Timeout: cfg.AITimeout}
	client := api.NewClient(parsedURL, httpClient)

	logger = logger.Named("OllamaClient")
	logger.Info("Ollama client created",
		zap.String("baseURL", baseURL),
		zap.String("model", cfg.AIModel),
		zap.Duration("timeout", cfg.AITimeout))

	return &ollamaClient{
		client:  client,
		model:   cfg.AIModel,
		timeout: cfg.AITimeout,
		logger:  logger,
	}, nil
}

// GenerateText generates text via the native Ollama chat API.
func (c *ollamaClient) GenerateText(ctx context.Context, systemPrompt string, userInput string) (string, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", fmt.Errorf("%w: system prompt is empty", ErrAIGenerationFailed)
	}

	messages := []api.Message{
		{Role: "system", Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, api.Message{Role: "user", Content: userInput})
	}

	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   func(b bool) *bool { return &b }(false),
	}

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	c.logger.Debug("Sending request to Ollama",
		zap.String("model", c.model),
		zap.Int("system_prompt_bytes", len(systemPrompt)),
		zap.Int("user_input_bytes", len(userInput)))

	var resp api.ChatResponse
	err := c.client.Chat(requestCtx, req, func(r api.ChatResponse) error {
		// Non-streaming mode delivers one final response.
		resp = r
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("Ollama API request failed", zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if resp.Message.Content == "" {
		c.logger.Error("Ollama API returned empty response", zap.Duration("duration", duration))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", fmt.Errorf("%w: received empty response", ErrAIGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())
	recordUsage(c.model, UsageInfo{
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
	})

	c.logger.Debug("Ollama response received",
		zap.Duration("duration", duration),
		zap.Int("response_chars", len(resp.Message.Content)))
	return resp.Message.Content, nil
}

// --- OpenAI-compatible client ---

type openAIClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func newOpenAIClient(cfg *config.Config, logger *zap.Logger) AIClient {
	clientCfg := openaigo.DefaultConfig(cfg.AIAPIKey)
	if cfg.AIBaseURL != "" {
		clientCfg.BaseURL = cfg.AIBaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.AITimeout}

	logger = logger.Named("OpenAIClient")
	logger.Info("OpenAI-compatible client created",
		zap.String("baseURL", clientCfg.BaseURL),
		zap.String("model", cfg.AIModel))

	return &openAIClient{
		client: openaigo.NewClientWithConfig(clientCfg),
		model:  cfg.AIModel,
		logger: logger,
	}
}

// GenerateText generates text via an OpenAI-compatible chat endpoint.
func (c *openAIClient) GenerateText(ctx context.Context, systemPrompt string, userInput string) (string, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", fmt.Errorf("%w: system prompt is empty", ErrAIGenerationFailed)
	}

	messages := []openaigo.ChatCompletionMessage{
		{Role: openaigo.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if userInput != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleUser,
			Content: userInput,
		})
	}

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Error("OpenAI API request failed", zap.Duration("duration", duration), zap.Error(err))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return "", fmt.Errorf("%w: %v", ErrAIGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		c.logger.Error("OpenAI API returned empty response", zap.Duration("duration", duration))
		aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return "", fmt.Errorf("%w: received empty response", ErrAIGenerationFailed)
	}

	aiRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	aiRequestDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())

	generatedText := resp.Choices[0].Message.Content
	usage := UsageInfo{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		// Some compatible backends omit usage; estimate locally.
		usage.PromptTokens = estimateTokens(c.model, systemPrompt+userInput)
		usage.CompletionTokens = estimateTokens(c.model, generatedText)
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	recordUsage(c.model, usage)

	c.logger.Debug("OpenAI response received",
		zap.Duration("duration", duration),
		zap.Int("response_chars", len(generatedText)))
	return generatedText, nil
}
