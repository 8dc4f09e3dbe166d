package domain

import "context"

// QueryEnhancer rewrites a raw question into a query optimized for retrieval
// (expansion, conversational context folding). Enhancement failures must not
// block retrieval; callers fall back to the original question.
type QueryEnhancer interface {
	Enhance(ctx context.Context, question string) (string, error)
}
