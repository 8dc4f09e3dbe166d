package di

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"rag-modulo/internal/adapter/llm"
	"rag-modulo/internal/adapter/resolver"
	"rag-modulo/internal/adapter/vectorstore"
	"rag-modulo/internal/domain"
	"rag-modulo/internal/infra/config"
	"rag-modulo/internal/infra/httpclient"
	"rag-modulo/internal/usecase"
	"rag-modulo/internal/usecase/pipeline"
)

// ApplicationComponents holds all wired dependencies for the application.
type ApplicationComponents struct {
	SearchUsecase usecase.SearchUsecase

	// Indexer backs the chunk indexing endpoint; both vector backends
	// implement it.
	Indexer domain.ChunkIndexer
}

// NewApplicationComponents wires all dependencies from config. pool may be nil
// when the chromem backend is selected.
func NewApplicationComponents(cfg *config.Config, pool *pgxpool.Pool, log *slog.Logger) (*ApplicationComponents, error) {
	// Shared HTTP clients with connection pooling
	ollamaHTTP := httpclient.NewPooledClient(time.Duration(cfg.OllamaTimeout) * time.Second)
	rerankHTTP := httpclient.NewPooledClient(time.Duration(cfg.Rerank.Timeout) * time.Second)
	resolverHTTP := httpclient.NewPooledClient(time.Duration(cfg.ResolverTimeout) * time.Second)

	// External clients
	embedder := llm.NewOllamaEmbedder(cfg.OllamaURL, cfg.EmbeddingModel,
		time.Duration(cfg.OllamaTimeout)*time.Second, log, ollamaHTTP)
	generator := llm.NewOllamaGenerator(cfg.OllamaURL, cfg.GenerationModel,
		time.Duration(cfg.OllamaTimeout)*time.Second, cfg.GenerateRPS, log, ollamaHTTP)
	pipelineResolver := resolver.NewHTTPResolver(cfg.ResolverURL,
		time.Duration(cfg.ResolverTimeout)*time.Second, log, resolverHTTP)

	// Vector store backend
	var (
		store   domain.VectorStore
		indexer domain.ChunkIndexer
	)
	switch cfg.VectorBackend {
	case "pgvector":
		if pool == nil {
			return nil, fmt.Errorf("pgvector backend requires a database pool")
		}
		pgStore := vectorstore.NewPgvectorStore(pool, embedder, log)
		store = pgStore
		indexer = pgStore
	case "chromem":
		chromemStore, err := vectorstore.NewChromemStore(cfg.ChromemDir, embedder, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open chromem store: %w", err)
		}
		store = chromemStore
		indexer = chromemStore
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}

	// Optional reranker
	var reranker domain.Reranker
	if cfg.Rerank.Enabled {
		reranker = llm.NewRerankerClient(
			cfg.Rerank.URL,
			cfg.Rerank.Model,
			time.Duration(cfg.Rerank.Timeout)*time.Second,
			log,
			rerankHTTP,
		)
		log.Info("reranker_enabled",
			slog.String("url", cfg.Rerank.URL),
			slog.String("model", cfg.Rerank.Model))
	}

	enhancer := llm.NewLLMQueryEnhancer(generator, log)
	reasoner := usecase.NewChainOfThoughtReasoner(generator, log)

	pipelineConfig := pipeline.Config{
		RetrievalTopK: cfg.RetrievalTopK,
		Rerank: pipeline.RerankConfig{
			Enabled:   cfg.Rerank.Enabled,
			TopK:      cfg.Rerank.TopK,
			BatchSize: cfg.Rerank.BatchSize,
			Timeout:   time.Duration(cfg.Rerank.Timeout) * time.Second,
		},
		Reasoning: pipeline.ReasoningConfig{
			MaxQuestionWords: cfg.CoTMaxWords,
			Conjunctions:     cfg.CoTConjunctions,
			Timeout:          time.Duration(cfg.ReasoningTimeout) * time.Second,
		},
		GenerationTimeout:   time.Duration(cfg.GenerationTimeout) * time.Second,
		GenerationMaxTokens: cfg.GenerationMaxTokens,
	}
	if err := pipelineConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	flags := pipeline.FeatureFlags{
		StagedPipelineEnabled: cfg.Flags.StagedEnabled,
		StagedRolloutPercent:  cfg.Flags.RolloutPercent,
	}

	searchUsecase := usecase.NewSearchUsecase(
		pipelineResolver, store, enhancer, reranker, reasoner, generator,
		pipelineConfig, flags, log,
		usecase.WithAnswerCache(cfg.CacheSize, time.Duration(cfg.CacheTTL)*time.Minute),
	)

	return &ApplicationComponents{
		SearchUsecase: searchUsecase,
		Indexer:       indexer,
	}, nil
}
