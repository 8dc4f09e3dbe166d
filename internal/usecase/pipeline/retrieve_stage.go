package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"rag-modulo/internal/domain"
)

const StageNameRetrieval = "retrieval"

// RetrievalStage fetches candidate chunks from the vector store, ranked by
// descending similarity. An unreachable store is fatal: there is nothing to
// answer from without retrieval.
type RetrievalStage struct {
	store  domain.VectorStore
	config Config
	logger *slog.Logger
}

// NewRetrievalStage creates the retrieval stage.
func NewRetrievalStage(store domain.VectorStore, config Config, logger *slog.Logger) *RetrievalStage {
	return &RetrievalStage{store: store, config: config, logger: logger}
}

func (s *RetrievalStage) Name() string { return StageNameRetrieval }

func (s *RetrievalStage) Execute(ctx context.Context, sc *SearchContext) StageResult {
	query := sc.RewrittenQuery
	if query == "" {
		query = sc.Question
	}

	topK := s.config.RetrievalTopK
	if requested, ok := sc.IntOption(ConfigTopK); ok {
		topK = ClampTopK(requested, s.config.RetrievalTopK, MaxTopK)
	}

	results, err := s.store.Retrieve(ctx, query, sc.CollectionName, topK)
	if err != nil {
		s.logger.Error("retrieval_failed",
			slog.String("collection", sc.CollectionName),
			slog.Int("top_k", topK),
			slog.String("error", err.Error()))
		return Fail(sc, fmt.Errorf("vector store retrieval failed: %w", err))
	}

	// Stores are expected to return descending order; enforce it so the
	// contract holds even if an adapter misbehaves.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	sc.QueryResults = results

	s.logger.Info("retrieval_completed",
		slog.String("collection", sc.CollectionName),
		slog.Int("top_k", topK),
		slog.Int("result_count", len(results)))

	return SucceedWith(sc, map[string]string{
		"result_count": strconv.Itoa(len(results)),
		"top_k":        strconv.Itoa(topK),
	})
}
