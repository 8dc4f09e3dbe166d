package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"rag-modulo/internal/domain"
	"rag-modulo/internal/usecase/pipeline"
)

// executeLegacy is the monolithic pre-staged search path. It honors the same
// input/output contract as the staged pipeline and remains the default until
// the rollout reaches 100%.
func (u *searchUsecase) executeLegacy(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	metadata := make(map[string]pipeline.StageMetadata)
	var warnings []string

	// Resolution
	resolved, err := u.resolver.Resolve(ctx, input.UserID, input.CollectionID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve pipeline for collection %s: %w", input.CollectionID, err)
	}

	// Enhancement, best effort
	rewritten := input.Question
	if u.enhancer != nil {
		if enhanced, enhErr := u.enhancer.Enhance(ctx, input.Question); enhErr == nil && strings.TrimSpace(enhanced) != "" {
			rewritten = strings.TrimSpace(enhanced)
		} else if enhErr != nil {
			u.logger.Warn("legacy_enhancement_failed_using_original", slog.String("error", enhErr.Error()))
			warnings = append(warnings, "query enhancement failed: "+enhErr.Error())
		}
	}

	// Retrieval, same override clamping as the staged path
	topK := u.config.RetrievalTopK
	if requested, ok := intOption(input.ConfigMetadata, pipeline.ConfigTopK); ok {
		topK = pipeline.ClampTopK(requested, u.config.RetrievalTopK, pipeline.MaxTopK)
	}
	results, err := u.store.Retrieve(ctx, rewritten, resolved.CollectionName, topK)
	if err != nil {
		return nil, fmt.Errorf("vector store retrieval failed: %w", err)
	}

	// Reranking, single sequential call
	rerankDisabled := boolOption(input.ConfigMetadata, pipeline.ConfigDisableRerank)
	if u.config.Rerank.Enabled && !rerankDisabled && len(results) > 0 && u.reranker != nil {
		results = u.legacyRerank(ctx, rewritten, results, input.ConfigMetadata, &warnings)
		metadata[pipeline.StageNameReranking] = pipeline.StageMetadata{Status: pipeline.StageCompleted}
	} else {
		metadata[pipeline.StageNameReranking] = pipeline.StageMetadata{Status: pipeline.StageSkipped}
	}

	// Chain-of-thought, same detection heuristics as the staged path. Zero
	// results skip reasoning outright so the no-context check below fires.
	var reasoning *domain.ReasoningOutput
	cotEnabled := boolOption(input.ConfigMetadata, pipeline.ConfigCoTEnabled)
	cotDisabled := boolOption(input.ConfigMetadata, pipeline.ConfigCoTDisabled)
	if !cotDisabled && u.reasoner != nil && len(results) > 0 {
		auto, _ := pipeline.AutoDetectCoT(input.Question, u.config.Reasoning)
		if cotEnabled || auto {
			if out, cotErr := u.reasoner.Execute(ctx, input.Question, results); cotErr == nil {
				out.Enabled = true
				reasoning = out
				metadata[pipeline.StageNameReasoning] = pipeline.StageMetadata{Status: pipeline.StageCompleted}
			} else {
				u.logger.Warn("legacy_reasoning_failed_continuing", slog.String("error", cotErr.Error()))
				warnings = append(warnings, "chain-of-thought failed: "+cotErr.Error())
				metadata[pipeline.StageNameReasoning] = pipeline.StageMetadata{Status: pipeline.StageDegraded}
			}
		} else {
			metadata[pipeline.StageNameReasoning] = pipeline.StageMetadata{Status: pipeline.StageSkipped}
		}
	} else {
		metadata[pipeline.StageNameReasoning] = pipeline.StageMetadata{Status: pipeline.StageSkipped}
	}

	// Generation: prefer the CoT synthesis, else generate from results
	var answer string
	switch {
	case reasoning != nil && strings.TrimSpace(reasoning.FinalSynthesis) != "":
		answer = pipeline.CleanAnswer(reasoning.FinalSynthesis)
	case len(results) == 0:
		return nil, fmt.Errorf("cannot generate answer: %w", domain.ErrNoContext)
	default:
		genCtx, cancel := context.WithTimeout(ctx, u.config.GenerationTimeout)
		defer cancel()
		resp, genErr := u.llmClient.Generate(genCtx, legacyGenerationPrompt(input.Question, results), u.config.GenerationMaxTokens)
		if genErr != nil {
			return nil, fmt.Errorf("generation failed: %w", genErr)
		}
		if resp == nil || strings.TrimSpace(resp.Text) == "" {
			return nil, fmt.Errorf("generation returned empty answer")
		}
		answer = pipeline.CleanAnswer(resp.Text)
	}

	for _, w := range warnings {
		u.logger.Debug("legacy_search_warning", slog.String("warning", w))
	}

	return &SearchOutput{
		Answer:         answer,
		Documents:      documentIDs(results),
		QueryResults:   results,
		RewrittenQuery: rewritten,
		Reasoning:      reasoning,
		TokenWarning:   tokenWarning(results, u.config.GenerationMaxTokens),
		Metadata:       metadata,
	}, nil
}

// legacyRerank scores the whole candidate set in one call and truncates.
// Failures fall back to the original ordering.
func (u *searchUsecase) legacyRerank(ctx context.Context, query string, results []domain.QueryResult, config map[string]any, warnings *[]string) []domain.QueryResult {
	candidates := make([]domain.RerankCandidate, len(results))
	for i, r := range results {
		candidates[i] = domain.RerankCandidate{ID: r.ChunkID, Content: r.Text, Score: r.Score}
	}

	rerankCtx, cancel := context.WithTimeout(ctx, u.config.Rerank.Timeout)
	defer cancel()

	scored, err := u.reranker.Rerank(rerankCtx, query, candidates)
	if err != nil {
		u.logger.Warn("legacy_reranking_failed_using_original_scores", slog.String("error", err.Error()))
		*warnings = append(*warnings, "reranking unavailable: "+err.Error())
		return results
	}

	scores := make(map[string]float32, len(scored))
	for _, s := range scored {
		scores[s.ID] = s.Score
	}

	reranked := make([]domain.QueryResult, len(results))
	copy(reranked, results)
	for i := range reranked {
		if score, ok := scores[reranked[i].ChunkID]; ok {
			reranked[i].Score = score
		}
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	topK := u.config.Rerank.TopK
	if requested, ok := intOption(config, pipeline.ConfigTopKRerank); ok && requested > 0 && requested < topK {
		topK = requested
	}
	if len(reranked) > topK {
		reranked = reranked[:topK]
	}
	return reranked
}

func legacyGenerationPrompt(question string, results []domain.QueryResult) string {
	var sb strings.Builder
	sb.WriteString("Answer the question using ONLY the documents below. ")
	sb.WriteString("If the documents do not contain the answer, say so.\n\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "Document %d:\n%s\n\n", i+1, r.Text)
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\nAnswer:")
	return sb.String()
}

func boolOption(config map[string]any, key string) bool {
	v, ok := config[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func intOption(config map[string]any, key string) (int, bool) {
	v, ok := config[key]
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
