package domain

import "context"

// RerankCandidate represents a document candidate for cross-encoder reranking.
type RerankCandidate struct {
	// ID is the unique identifier for the chunk (used to map back results).
	ID string
	// Content is the text content to be scored against the query.
	Content string
	// Score is the initial retrieval score (for debugging/logging).
	Score float32
}

// RerankResult represents a reranked document with cross-encoder relevance score.
type RerankResult struct {
	// ID matches the candidate ID for result mapping.
	ID string
	// Score is the cross-encoder relevance score (typically 0.0 to 1.0).
	Score float32
}

// Reranker defines the interface for cross-encoder reranking.
// Callers may score several candidate batches concurrently; implementations
// must be safe for concurrent use.
type Reranker interface {
	// Rerank scores candidates against the query using a cross-encoder model.
	// Returns results sorted by score descending.
	// If an error occurs, callers should fall back to original scores.
	Rerank(ctx context.Context, query string, candidates []RerankCandidate) ([]RerankResult, error)

	// ModelName returns the model identifier for logging/debugging.
	ModelName() string
}
