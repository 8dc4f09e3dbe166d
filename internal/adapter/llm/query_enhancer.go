package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rag-modulo/internal/domain"
)

const enhanceMaxTokens = 120

// LLMQueryEnhancer rewrites questions for retrieval using the generation model.
type LLMQueryEnhancer struct {
	llmClient domain.LLMClient
	logger    *slog.Logger
}

// NewLLMQueryEnhancer creates an enhancer backed by the given LLM client.
func NewLLMQueryEnhancer(llmClient domain.LLMClient, logger *slog.Logger) *LLMQueryEnhancer {
	return &LLMQueryEnhancer{llmClient: llmClient, logger: logger}
}

var _ domain.QueryEnhancer = (*LLMQueryEnhancer)(nil)

// Enhance rewrites the question into a self-contained retrieval query,
// expanding abbreviations and dropping conversational filler.
func (e *LLMQueryEnhancer) Enhance(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(`Rewrite the following question as a search query optimized for document retrieval.
Expand abbreviations, keep all key terms, and remove conversational filler.
Output ONLY the rewritten query on a single line. Do not add explanations.

Question: %s`, question)

	resp, err := e.llmClient.Generate(ctx, prompt, enhanceMaxTokens)
	if err != nil {
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return "", fmt.Errorf("enhancement returned no text")
	}

	rewritten := strings.TrimSpace(resp.Text)
	// Some models echo multiple lines; the first non-empty line is the query.
	for _, line := range strings.Split(rewritten, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			rewritten = trimmed
			break
		}
	}

	e.logger.Debug("query_enhanced",
		slog.String("original", question),
		slog.String("rewritten", rewritten))

	return rewritten, nil
}
