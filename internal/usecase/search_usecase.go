package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"rag-modulo/internal/domain"
	"rag-modulo/internal/usecase/pipeline"
)

// SearchInput encapsulates the parameters that drive one search request.
type SearchInput struct {
	Question       string
	CollectionID   string
	UserID         string
	ConfigMetadata map[string]any
}

// SearchOutput is the normalized search response returned to API clients.
// The contract is identical for the staged and legacy execution paths.
type SearchOutput struct {
	Answer          string
	Documents       []string
	QueryResults    []domain.QueryResult
	RewrittenQuery  string
	Reasoning       *domain.ReasoningOutput
	ExecutionTimeMs int64
	TokenWarning    string
	Metadata        map[string]pipeline.StageMetadata
}

// SearchUsecase defines the contract for answering search requests.
type SearchUsecase interface {
	Execute(ctx context.Context, input SearchInput) (*SearchOutput, error)
}

type searchUsecase struct {
	resolver  domain.PipelineResolver
	store     domain.VectorStore
	enhancer  domain.QueryEnhancer
	reranker  domain.Reranker
	reasoner  domain.Reasoner
	llmClient domain.LLMClient

	config   pipeline.Config
	flags    pipeline.FeatureFlags
	executor *pipeline.Executor
	logger   *slog.Logger

	cache *expirable.LRU[string, *SearchOutput]
}

// SearchOption customizes optional usecase behavior.
type SearchOption func(*searchUsecase)

// WithAnswerCache enables an in-memory LRU cache of completed answers.
func WithAnswerCache(size int, ttl time.Duration) SearchOption {
	return func(u *searchUsecase) {
		if size > 0 {
			u.cache = expirable.NewLRU[string, *SearchOutput](size, nil, ttl)
		}
	}
}

// NewSearchUsecase wires together the components needed to answer searches.
func NewSearchUsecase(
	resolver domain.PipelineResolver,
	store domain.VectorStore,
	enhancer domain.QueryEnhancer,
	reranker domain.Reranker,
	reasoner domain.Reasoner,
	llmClient domain.LLMClient,
	config pipeline.Config,
	flags pipeline.FeatureFlags,
	logger *slog.Logger,
	opts ...SearchOption,
) SearchUsecase {
	u := &searchUsecase{
		resolver:  resolver,
		store:     store,
		enhancer:  enhancer,
		reranker:  reranker,
		reasoner:  reasoner,
		llmClient: llmClient,
		config:    config,
		flags:     flags,
		executor:  pipeline.NewExecutor(logger),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *searchUsecase) Execute(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	if strings.TrimSpace(input.Question) == "" {
		return nil, fmt.Errorf("question is required")
	}
	if input.CollectionID == "" {
		return nil, fmt.Errorf("collection id is required")
	}

	cacheKey := u.cacheKey(input)
	if u.cache != nil {
		if cached, ok := u.cache.Get(cacheKey); ok {
			u.logger.Info("search_cache_hit", slog.String("collection_id", input.CollectionID))
			return cached, nil
		}
	}

	searchID := uuid.NewString()
	start := time.Now()

	var (
		output *SearchOutput
		err    error
		path   string
	)
	if u.flags.UseStagedPipeline(input.UserID) {
		path = "staged"
		output, err = u.executeStaged(ctx, input)
	} else {
		path = "legacy"
		output, err = u.executeLegacy(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	output.ExecutionTimeMs = time.Since(start).Milliseconds()
	if output.Metadata == nil {
		output.Metadata = make(map[string]pipeline.StageMetadata)
	}
	output.Metadata["execution_path"] = pipeline.StageMetadata{
		Status: pipeline.StageCompleted,
		Extra:  map[string]string{"path": path, "search_id": searchID},
	}

	if u.cache != nil {
		u.cache.Add(cacheKey, output)
	}

	u.logger.Info("search_completed",
		slog.String("search_id", searchID),
		slog.String("path", path),
		slog.String("collection_id", input.CollectionID),
		slog.Int("result_count", len(output.QueryResults)),
		slog.Int64("duration_ms", output.ExecutionTimeMs))

	return output, nil
}

// executeStaged runs the staged pipeline over a fresh SearchContext.
func (u *searchUsecase) executeStaged(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	stages := []pipeline.Stage{
		pipeline.NewResolutionStage(u.resolver, u.logger),
		pipeline.NewEnhancementStage(u.enhancer, u.logger),
		pipeline.NewRetrievalStage(u.store, u.config, u.logger),
		pipeline.NewRerankingStage(u.reranker, u.config, u.logger),
		pipeline.NewReasoningStage(u.reasoner, u.config, u.logger),
		pipeline.NewGenerationStage(u.llmClient, u.config, u.logger),
	}

	sc := pipeline.NewSearchContext(input.Question, input.UserID, input.CollectionID, input.ConfigMetadata)
	sc = u.executor.Execute(ctx, stages, sc)

	if sc.GeneratedAnswer == "" {
		if sc.FatalErr != nil {
			return nil, sc.FatalErr
		}
		return nil, fmt.Errorf("pipeline produced no answer")
	}

	return u.projectContext(sc), nil
}

// projectContext maps the final pipeline context onto the response contract.
func (u *searchUsecase) projectContext(sc *pipeline.SearchContext) *SearchOutput {
	metadata := make(map[string]pipeline.StageMetadata, len(sc.StageMetadata))
	for name, meta := range sc.StageMetadata {
		metadata[name] = meta
	}

	return &SearchOutput{
		Answer:         sc.GeneratedAnswer,
		Documents:      documentIDs(sc.QueryResults),
		QueryResults:   sc.QueryResults,
		RewrittenQuery: sc.RewrittenQuery,
		Reasoning:      sc.Reasoning,
		TokenWarning:   tokenWarning(sc.QueryResults, u.config.GenerationMaxTokens),
		Metadata:       metadata,
	}
}

// documentIDs extracts the unique document ids backing the answer, preserving
// result order.
func documentIDs(results []domain.QueryResult) []string {
	seen := make(map[string]struct{}, len(results))
	var ids []string
	for _, r := range results {
		if _, ok := seen[r.DocumentID]; ok {
			continue
		}
		seen[r.DocumentID] = struct{}{}
		ids = append(ids, r.DocumentID)
	}
	return ids
}

// tokenWarning flags context that likely overflows the generation budget.
// Rough heuristic: four characters per token.
func tokenWarning(results []domain.QueryResult, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	var chars int
	for _, r := range results {
		chars += len(r.Text)
	}
	estimated := chars / 4
	if estimated > maxTokens*4 {
		return fmt.Sprintf("retrieved context (~%d tokens) may exceed the generation budget", estimated)
	}
	return ""
}

// cacheKey builds a stable key from the request, including per-request
// overrides so differently-configured requests never share an entry.
func (u *searchUsecase) cacheKey(input SearchInput) string {
	keys := make([]string, 0, len(input.ConfigMetadata))
	for k := range input.ConfigMetadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(input.UserID)
	sb.WriteByte('|')
	sb.WriteString(input.CollectionID)
	sb.WriteByte('|')
	sb.WriteString(input.Question)
	for _, k := range keys {
		fmt.Fprintf(&sb, "|%s=%v", k, input.ConfigMetadata[k])
	}
	return sb.String()
}
