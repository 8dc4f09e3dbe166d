package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"rag-modulo/internal/domain"
)

const StageNameReranking = "reranking"

// RerankingStage reorders and truncates the retrieved candidates using a
// cross-encoder reranker.
//
// Skip conditions: reranking disabled by configuration, disabled by the
// per-request override, or empty query results. Skipping leaves the results
// untouched and never invokes the reranker.
//
// Batches are scored concurrently so stage latency approaches the slowest
// single batch rather than the sum of all batches. If the reranker is
// unavailable the stage degrades: original results are kept unchanged and a
// metadata note is recorded. Reranking never fails the whole search.
type RerankingStage struct {
	reranker domain.Reranker
	config   Config
	logger   *slog.Logger
}

// NewRerankingStage creates the reranking stage.
func NewRerankingStage(reranker domain.Reranker, config Config, logger *slog.Logger) *RerankingStage {
	return &RerankingStage{reranker: reranker, config: config, logger: logger}
}

func (s *RerankingStage) Name() string { return StageNameReranking }

func (s *RerankingStage) Execute(ctx context.Context, sc *SearchContext) StageResult {
	if !s.config.Rerank.Enabled {
		return SucceedWith(sc, map[string]string{"status": StageSkipped, "skip_reason": "reranking disabled"})
	}
	if sc.BoolOption(ConfigDisableRerank) {
		return SucceedWith(sc, map[string]string{"status": StageSkipped, "skip_reason": "disabled by request"})
	}
	if len(sc.QueryResults) == 0 {
		return SucceedWith(sc, map[string]string{"status": StageSkipped, "skip_reason": "no results to rerank"})
	}
	if s.reranker == nil {
		sc.AddWarning("reranker not configured")
		return SucceedWith(sc, map[string]string{"status": StageSkipped, "skip_reason": "no reranker configured"})
	}

	topK := s.config.Rerank.TopK
	if requested, ok := sc.IntOption(ConfigTopKRerank); ok {
		topK = ClampTopK(requested, s.config.Rerank.TopK, len(sc.QueryResults))
	}
	if topK > len(sc.QueryResults) {
		topK = len(sc.QueryResults)
	}

	query := sc.RewrittenQuery
	if query == "" {
		query = sc.Question
	}

	start := time.Now()
	scores, err := s.scoreBatches(ctx, query, sc.QueryResults)
	elapsed := time.Since(start)

	if err != nil {
		s.logger.Warn("reranking_failed_using_original_scores",
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", elapsed.Milliseconds()))
		sc.AddWarning("reranking unavailable: " + err.Error())
		return SucceedWith(sc, map[string]string{"status": StageDegraded, "fallback": "original ranking"})
	}

	// Re-score a copy so the original ordering survives until the full
	// reranked set is assembled.
	reranked := make([]domain.QueryResult, len(sc.QueryResults))
	copy(reranked, sc.QueryResults)
	for i := range reranked {
		if score, ok := scores[reranked[i].ChunkID]; ok {
			reranked[i].Score = score
		}
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})
	if len(reranked) > topK {
		reranked = reranked[:topK]
	}
	sc.QueryResults = reranked

	s.logger.Info("reranking_completed",
		slog.Int("candidate_count", len(scores)),
		slog.Int("kept", len(reranked)),
		slog.String("model", s.reranker.ModelName()),
		slog.Int64("duration_ms", elapsed.Milliseconds()))

	return SucceedWith(sc, map[string]string{
		"kept":  strconv.Itoa(len(reranked)),
		"model": s.reranker.ModelName(),
	})
}

// scoreBatches fans out one scoring call per batch and joins them all.
// Cancelling the parent context cancels every in-flight batch.
func (s *RerankingStage) scoreBatches(ctx context.Context, query string, results []domain.QueryResult) (map[string]float32, error) {
	batchSize := s.config.Rerank.BatchSize
	if batchSize <= 0 {
		batchSize = len(results)
	}

	rerankCtx, cancel := context.WithTimeout(ctx, s.config.Rerank.Timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(rerankCtx)

	var mu sync.Mutex
	scores := make(map[string]float32, len(results))

	for startIdx := 0; startIdx < len(results); startIdx += batchSize {
		end := startIdx + batchSize
		if end > len(results) {
			end = len(results)
		}
		batch := results[startIdx:end]

		g.Go(func() error {
			candidates := make([]domain.RerankCandidate, len(batch))
			for i, r := range batch {
				candidates[i] = domain.RerankCandidate{
					ID:      r.ChunkID,
					Content: r.Text,
					Score:   r.Score,
				}
			}

			batchScores, err := s.reranker.Rerank(gctx, query, candidates)
			if err != nil {
				return err
			}

			mu.Lock()
			for _, bs := range batchScores {
				scores[bs.ID] = bs.Score
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}
