package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/credx/credx-matcher/internal/ai"
)

const (
	defaultModel       = "gemini-2.0-flash"
	defaultTimeout     = 30 * time.Second
	defaultTemperature = 0.1
)

// errEmptyResponse means the call succeeded but produced no text. It counts
// as a parse-class failure, not an upstream one.
var errEmptyResponse = errors.New("model returned an empty response")

// modelCaller is the narrow slice of the genai client the generator needs,
// kept as an interface for testing.
type modelCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config holds the explicit per-client settings. There is no process-wide
// configuration; every generator is constructed with its own credential and
// limits.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Generator wraps the Google GenAI client for schema-constrained,
// low-temperature completions. A generator constructed without a credential
// is usable but degraded: every call fails with ai.ErrUpstreamUnavailable.
type Generator struct {
	models      modelCaller
	model       string
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// NewGenerator creates a generator for the Gemini API backend. It never
// fails: a missing or rejected credential yields a degraded generator so
// the process can start and surface the problem per call instead.
func NewGenerator(ctx context.Context, cfg Config, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Generator{
		model:       strings.TrimSpace(cfg.Model),
		temperature: float32(cfg.Temperature),
		timeout:     cfg.Timeout,
		logger:      logger,
	}
	if g.model == "" {
		g.model = defaultModel
	}
	if g.temperature <= 0 {
		g.temperature = defaultTemperature
	}
	if g.timeout <= 0 {
		g.timeout = defaultTimeout
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		logger.Warn("gemini api key is not configured, extraction calls will fail",
			zap.String("hint", "set ai.gemini.api-key-file or GEMINI_API_KEY_FILE"),
		)
		return g
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		logger.Warn("creating genai client failed, extraction calls will fail", zap.Error(err))
		return g
	}

	g.models = client.Models
	return g
}

// GenerateContent sends the prompt and returns the first textual response.
// Upstream failures (auth, quota, network, timeout) are wrapped in
// ai.ErrUpstreamUnavailable and are not retried here.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", fmt.Errorf("%w: no api credential configured", ai.ErrUpstreamUnavailable)
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		ResponseMIMEType: "application/json",
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			g.logger.Warn("gemini api call failed",
				zap.Int("code", apiErr.Code),
				zap.String("status", apiErr.Status),
			)
		}
		return "", fmt.Errorf("%w: %v", ai.ErrUpstreamUnavailable, err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errEmptyResponse
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
