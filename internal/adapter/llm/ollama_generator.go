package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"rag-modulo/internal/domain"
)

const generationTemperature = 0.2

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// OllamaGenerator sends prompts to an Ollama-compatible generate endpoint.
// Calls are throttled through a shared rate limiter so bursts of pipeline
// stages cannot overload the model server.
type OllamaGenerator struct {
	BaseURL string
	Model   string
	Client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewOllamaGenerator constructs a generator. requestsPerSecond <= 0 disables
// throttling. If client is nil a default http.Client with the timeout is used.
func NewOllamaGenerator(baseURL, model string, timeout time.Duration, requestsPerSecond float64, logger *slog.Logger, client ...*http.Client) *OllamaGenerator {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &OllamaGenerator{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  c,
		limiter: limiter,
		logger:  logger,
	}
}

var _ domain.LLMClient = (*OllamaGenerator)(nil)

// Generate sends the prompt and returns the completed response text.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
		}
	}

	start := time.Now()

	reqBody := generateRequest{
		Model:  g.Model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": generationTemperature,
		},
	}
	if maxTokens > 0 {
		reqBody.Options["num_predict"] = maxTokens
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", g.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		g.logger.Warn("generation_call_failed",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("failed to call generate endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("generate endpoint returned %d: %s", resp.StatusCode, truncateString(string(body), 200))
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode generate response: %w", err)
	}

	g.logger.Info("generation_completed",
		slog.String("model", g.Model),
		slog.Int("response_chars", len(payload.Response)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	return &domain.LLMResponse{Text: payload.Response, Done: payload.Done}, nil
}

// Version returns the model identifier.
func (g *OllamaGenerator) Version() string {
	return g.Model
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
