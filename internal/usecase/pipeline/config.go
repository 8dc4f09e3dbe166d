package pipeline

import (
	"fmt"
	"time"
)

// RerankConfig holds cross-encoder reranking stage parameters.
type RerankConfig struct {
	// Enabled controls whether reranking is applied at all.
	Enabled bool
	// TopK is the number of results kept after reranking. Narrower than the
	// retrieval top-k on purpose (retrieve 10, keep 5) per the tuned
	// recall/latency tradeoff for this system.
	TopK int
	// BatchSize is the number of candidates scored per reranker call.
	// Batches are scored concurrently.
	BatchSize int
	// Timeout bounds a single batch-scoring call.
	Timeout time.Duration
}

// ReasoningConfig holds chain-of-thought auto-detection parameters.
// The thresholds are heuristics, kept configurable rather than fixed.
type ReasoningConfig struct {
	// MaxQuestionWords is the word count above which CoT auto-enables.
	MaxQuestionWords int
	// Conjunctions are the multi-part markers that auto-enable CoT.
	Conjunctions []string
	// Timeout bounds the full reasoning pass.
	Timeout time.Duration
}

// Config holds the tunable parameters for the staged search pipeline.
type Config struct {
	// RetrievalTopK is the number of candidates fetched from the vector store.
	RetrievalTopK int
	// Rerank holds reranking stage settings.
	Rerank RerankConfig
	// Reasoning holds chain-of-thought settings.
	Reasoning ReasoningConfig
	// GenerationTimeout bounds the final generation call.
	GenerationTimeout time.Duration
	// GenerationMaxTokens caps the generated answer length.
	GenerationMaxTokens int
}

// DefaultConfig returns the tuned defaults for the pipeline.
func DefaultConfig() Config {
	return Config{
		RetrievalTopK: 10,
		Rerank: RerankConfig{
			Enabled:   true,
			TopK:      5,
			BatchSize: 10,
			Timeout:   30 * time.Second,
		},
		Reasoning: ReasoningConfig{
			MaxQuestionWords: 15,
			Conjunctions:     []string{"and", "also", "then"},
			Timeout:          60 * time.Second,
		},
		GenerationTimeout:   120 * time.Second,
		GenerationMaxTokens: 768,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	if c.RetrievalTopK <= 0 {
		return fmt.Errorf("retrieval topK must be positive, got %d", c.RetrievalTopK)
	}
	if c.Rerank.Enabled {
		if c.Rerank.TopK <= 0 {
			return fmt.Errorf("rerank topK must be positive, got %d", c.Rerank.TopK)
		}
		if c.Rerank.BatchSize <= 0 {
			return fmt.Errorf("rerank batch size must be positive, got %d", c.Rerank.BatchSize)
		}
		if c.Rerank.Timeout <= 0 {
			return fmt.Errorf("rerank timeout must be positive, got %v", c.Rerank.Timeout)
		}
	}
	if c.Reasoning.MaxQuestionWords <= 0 {
		return fmt.Errorf("reasoning word threshold must be positive, got %d", c.Reasoning.MaxQuestionWords)
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("generation timeout must be positive, got %v", c.GenerationTimeout)
	}
	return nil
}

// MaxTopK bounds per-request top-k overrides on both execution paths.
const MaxTopK = 100

// ClampTopK sanitizes a per-request top-k override. Nonsensical values fall
// back to the configured default instead of failing the request.
func ClampTopK(requested, fallback, max int) int {
	if requested <= 0 {
		return fallback
	}
	if requested > max {
		return max
	}
	return requested
}
