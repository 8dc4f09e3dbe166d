package pipeline

import (
	"rag-modulo/internal/domain"
)

// Per-request configuration keys accepted in the search request's config map.
const (
	ConfigDisableRerank = "disable_rerank"
	ConfigTopK          = "top_k"
	ConfigTopKRerank    = "top_k_rerank"
	ConfigCoTEnabled    = "cot_enabled"
	ConfigCoTDisabled   = "cot_disabled"
)

// SearchContext carries state between pipeline stages. One instance is created
// per search request, owned exclusively by the executor, and discarded once the
// response has been built.
type SearchContext struct {
	// Immutable inputs
	Question     string
	UserID       string
	CollectionID string
	Config       map[string]any

	// Stage-populated fields
	PipelineID      string
	CollectionName  string
	RewrittenQuery  string
	QueryResults    []domain.QueryResult
	Reasoning       *domain.ReasoningOutput
	GeneratedAnswer string

	// StageMetadata records timing and outcome per stage, keyed by stage name.
	StageMetadata map[string]StageMetadata

	// Errors accumulates non-fatal problems encountered along the way.
	Errors []string

	// FatalErr is set by the executor when a required stage fails; callers use
	// it to classify the failure (not found, misconfigured, upstream timeout).
	FatalErr error
}

// NewSearchContext builds the context for one inbound search request.
func NewSearchContext(question, userID, collectionID string, config map[string]any) *SearchContext {
	return &SearchContext{
		Question:      question,
		UserID:        userID,
		CollectionID:  collectionID,
		Config:        config,
		StageMetadata: make(map[string]StageMetadata),
	}
}

// Stage outcome statuses recorded into StageMetadata.
const (
	StageCompleted = "completed"
	StageSkipped   = "skipped"
	StageDegraded  = "degraded"
	StageFailed    = "failed"
)

// StageMetadata is the per-stage entry in the context metadata map.
type StageMetadata struct {
	Status    string
	ElapsedMs int64
	Error     string
	// Extra holds stage-specific annotations (skip reasons, counts, model names).
	Extra map[string]string
}

// AddWarning appends a non-fatal error note to the context.
func (sc *SearchContext) AddWarning(note string) {
	sc.Errors = append(sc.Errors, note)
}

// BoolOption reads a boolean per-request override. Missing or malformed values
// return false; overrides never fail a request.
func (sc *SearchContext) BoolOption(key string) bool {
	v, ok := sc.Config[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// IntOption reads an integer per-request override. Returns (0, false) when the
// key is absent or not a usable number.
func (sc *SearchContext) IntOption(key string) (int, bool) {
	v, ok := sc.Config[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// StageResult is the transient outcome of a single stage execution, consumed
// immediately by the executor.
type StageResult struct {
	Success bool
	Context *SearchContext
	Err     error
	// Metadata holds stage-specific annotations merged into the context metadata.
	Metadata map[string]string
}

// Succeed returns a successful result for the given context.
func Succeed(sc *SearchContext) StageResult {
	return StageResult{Success: true, Context: sc}
}

// SucceedWith returns a successful result carrying metadata annotations.
func SucceedWith(sc *SearchContext, meta map[string]string) StageResult {
	return StageResult{Success: true, Context: sc, Metadata: meta}
}

// Fail returns a fatal result; the executor halts the pipeline.
func Fail(sc *SearchContext, err error) StageResult {
	return StageResult{Success: false, Context: sc, Err: err}
}
