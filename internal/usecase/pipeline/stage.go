package pipeline

import "context"

// Stage is one step of the staged search pipeline.
//
// A stage must only mutate the context fields it owns and must be idempotent
// with respect to everything else. A non-fatal problem (e.g. reranker down)
// returns Success=true with a note and leaves the relevant field unchanged; a
// fatal problem (e.g. no pipeline resolved) returns Success=false and the
// executor halts.
type Stage interface {
	Name() string
	Execute(ctx context.Context, sc *SearchContext) StageResult
}
