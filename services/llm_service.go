package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"techpulse/config"
	"techpulse/models"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var errEmptyResponse = errors.New("empty response from model")

// CompletionRequest is one fully resolved call to a text-generation backend
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Completer sends a single prompt to a text-generation backend
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// SamplingParams overrides the configured defaults for one generation.
// Zero MaxTokens and empty Model fall back to the defaults.
type SamplingParams struct {
	Model       string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// =============================================================================
// Providers
// =============================================================================

// OpenAICompleter talks to OpenAI or any OpenAI-compatible endpoint (Groq)
type OpenAICompleter struct {
	client *openai.Client
}

// NewOpenAICompleter creates a completer. An empty baseURL targets OpenAI.
func NewOpenAICompleter(apiKey, baseURL string) *OpenAICompleter {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(clientConfig)}
}

// Complete sends the prompt as a single system message
func (c *OpenAICompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.Prompt},
		},
		Temperature: nonZero(req.Temperature),
		TopP:        nonZero(req.TopP),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// nonZero keeps an explicit zero from being dropped by omitempty
func nonZero(v float64) float32 {
	if v == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(v)
}

// GeminiCompleter talks to the Gemini API
type GeminiCompleter struct {
	cli *genai.Client
}

func NewGeminiCompleter(ctx context.Context, apiKey string) (*GeminiCompleter, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	return &GeminiCompleter{cli: cli}, nil
}

// Complete sends the prompt as the only user turn. Gemini has no
// system-only request shape.
func (g *GeminiCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	temperature := float32(req.Temperature)
	topP := float32(req.TopP)

	resp, err := g.cli.Models.GenerateContent(ctx, req.Model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}},
		&genai.GenerateContentConfig{
			Temperature:     &temperature,
			TopP:            &topP,
			MaxOutputTokens: int32(req.MaxTokens),
		},
	)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// NewCompleter builds the completer for the configured provider
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, error) {
	switch cfg.LLMProvider {
	case "openai":
		return NewOpenAICompleter(cfg.OpenAIKey, ""), nil
	case "groq":
		return NewOpenAICompleter(cfg.GroqKey, cfg.LLMBaseURL), nil
	case "gemini":
		gemini, err := NewGeminiCompleter(ctx, cfg.GeminiKey)
		if err != nil {
			return nil, err
		}
		return gemini, nil
	default:
		return nil, fmt.Errorf("invalid LLM provider: %s", cfg.LLMProvider)
	}
}

// =============================================================================
// Generator
// =============================================================================

// LLMService generates text with one fallback retry
type LLMService struct {
	completer Completer
	defaults  config.AIDefaults
	timeout   time.Duration
	logger    *zap.Logger
}

// NewLLMService creates a new LLM service instance
func NewLLMService(completer Completer, defaults config.AIDefaults, timeout time.Duration, logger *zap.Logger) *LLMService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &LLMService{
		completer: completer,
		defaults:  defaults,
		timeout:   timeout,
		logger:    logger,
	}
}

// Defaults returns the configured sampling defaults
func (s *LLMService) Defaults() config.AIDefaults {
	return s.defaults
}

// Generate sends prompt to the requested model. If that fails and it is not
// already the fallback model, the request is repeated once on the fallback.
func (s *LLMService) Generate(ctx context.Context, prompt string, params SamplingParams) (string, error) {
	req := CompletionRequest{
		Model:       params.Model,
		Prompt:      prompt,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		MaxTokens:   params.MaxTokens,
	}
	if req.Model == "" {
		req.Model = s.defaults.Model
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = s.defaults.MaxTokens
	}

	text, err := s.attempt(ctx, req)
	if err == nil {
		return text, nil
	}

	s.logger.Error("LLM generation failed", zap.String("model", req.Model), zap.Error(err))
	if req.Model == s.defaults.FallbackModel || s.defaults.FallbackModel == "" {
		return "", &models.GenerationError{Model: req.Model, Err: err}
	}

	s.logger.Warn("Attempting fallback model", zap.String("model", s.defaults.FallbackModel))
	req.Model = s.defaults.FallbackModel
	text, err = s.attempt(ctx, req)
	if err != nil {
		s.logger.Error("LLM fallback failed", zap.String("model", req.Model), zap.Error(err))
		return "", &models.GenerationError{Model: req.Model, Err: err}
	}
	return text, nil
}

func (s *LLMService) attempt(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.completer.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errEmptyResponse
	}

	s.logger.Debug("LLM response generated",
		zap.String("model", req.Model),
		zap.Int("chars", len(text)),
		zap.Duration("took", time.Since(start)),
	)
	return text, nil
}
