package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"rag-modulo/internal/domain"
)

const StageNameEnhancement = "query_enhancement"

// EnhancementStage rewrites the raw question into a query optimized for
// retrieval. A failed rewrite falls back to the original question; retrieval
// is never blocked by enhancement.
type EnhancementStage struct {
	enhancer domain.QueryEnhancer
	logger   *slog.Logger
}

// NewEnhancementStage creates the query enhancement stage. A nil enhancer
// means enhancement is not deployed; the stage passes the question through.
func NewEnhancementStage(enhancer domain.QueryEnhancer, logger *slog.Logger) *EnhancementStage {
	return &EnhancementStage{enhancer: enhancer, logger: logger}
}

func (s *EnhancementStage) Name() string { return StageNameEnhancement }

func (s *EnhancementStage) Execute(ctx context.Context, sc *SearchContext) StageResult {
	sc.RewrittenQuery = sc.Question

	if s.enhancer == nil {
		return SucceedWith(sc, map[string]string{"status": StageSkipped, "skip_reason": "no enhancer configured"})
	}

	rewritten, err := s.enhancer.Enhance(ctx, sc.Question)
	if err != nil {
		s.logger.Warn("query_enhancement_failed_using_original",
			slog.String("question", sc.Question),
			slog.String("error", err.Error()))
		sc.AddWarning("query enhancement failed: " + err.Error())
		return SucceedWith(sc, map[string]string{"status": StageDegraded, "fallback": "original question"})
	}

	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		sc.AddWarning("query enhancement returned empty rewrite")
		return SucceedWith(sc, map[string]string{"status": StageDegraded, "fallback": "original question"})
	}

	sc.RewrittenQuery = rewritten
	return SucceedWith(sc, map[string]string{"rewritten": rewritten})
}
