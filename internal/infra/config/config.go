package config

import (
	"os"
	"strconv"
	"strings"
)

// DBConfig holds PostgreSQL connection settings (pgvector backend).
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// RerankSettings holds reranker service settings.
type RerankSettings struct {
	Enabled   bool
	URL       string
	Model     string
	TopK      int
	BatchSize int
	Timeout   int // seconds
}

// FlagSettings holds the staged-pipeline rollout flags.
type FlagSettings struct {
	StagedEnabled  bool
	RolloutPercent int
}

type Config struct {
	Env  string
	Port string

	DB DBConfig

	// VectorBackend selects the retrieval index: "pgvector" or "chromem".
	VectorBackend string
	ChromemDir    string

	OllamaURL       string
	EmbeddingModel  string
	GenerationModel string
	OllamaTimeout   int // seconds
	GenerateRPS     float64

	ResolverURL     string
	ResolverTimeout int // seconds

	Rerank RerankSettings
	Flags  FlagSettings

	RetrievalTopK    int
	CoTMaxWords      int
	CoTConjunctions  []string
	ReasoningTimeout int // seconds

	GenerationTimeout   int // seconds
	GenerationMaxTokens int

	CacheSize int
	CacheTTL  int // minutes
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "rag-db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "rag_user"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "rag_password"),
			Name:     getEnv("DB_NAME", "rag_db"),
		},
		VectorBackend:   getEnv("VECTOR_BACKEND", "pgvector"),
		ChromemDir:      getEnv("CHROMEM_DIR", ""),
		OllamaURL:       getEnv("OLLAMA_URL", "http://ollama:11434"),
		EmbeddingModel:  getEnv("EMBEDDING_MODEL", "embeddinggemma"),
		GenerationModel: getEnv("GENERATION_MODEL", "granite3-dense"),
		OllamaTimeout:   getEnvInt("OLLAMA_TIMEOUT", 120),
		GenerateRPS:     getEnvFloat("GENERATE_RPS", 0),
		ResolverURL:     getEnv("RESOLVER_URL", "http://pipeline-service:9021"),
		ResolverTimeout: getEnvInt("RESOLVER_TIMEOUT", 10),
		Rerank: RerankSettings{
			Enabled:   getEnvBool("RERANK_ENABLED", true),
			URL:       getEnv("RERANK_URL", "http://reranker:8001"),
			Model:     getEnv("RERANK_MODEL", "bge-reranker-v2-m3"),
			TopK:      getEnvInt("RERANK_TOP_K", 5),
			BatchSize: getEnvInt("RERANK_BATCH_SIZE", 10),
			Timeout:   getEnvInt("RERANK_TIMEOUT", 30),
		},
		Flags: FlagSettings{
			StagedEnabled:  getEnvBool("STAGED_PIPELINE_ENABLED", false),
			RolloutPercent: getEnvInt("STAGED_PIPELINE_ROLLOUT_PCT", 0),
		},
		RetrievalTopK:       getEnvInt("RETRIEVAL_TOP_K", 10),
		CoTMaxWords:         getEnvInt("COT_MAX_WORDS", 15),
		CoTConjunctions:     getEnvList("COT_CONJUNCTIONS", []string{"and", "also", "then"}),
		ReasoningTimeout:    getEnvInt("REASONING_TIMEOUT", 60),
		GenerationTimeout:   getEnvInt("GENERATION_TIMEOUT", 120),
		GenerationMaxTokens: getEnvInt("GENERATION_MAX_TOKENS", 768),
		CacheSize:           getEnvInt("SEARCH_CACHE_SIZE", 256),
		CacheTTL:            getEnvInt("SEARCH_CACHE_TTL", 10),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if value, ok := os.LookupEnv(key); ok {
		var items []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				items = append(items, trimmed)
			}
		}
		if len(items) > 0 {
			return items
		}
	}
	return fallback
}
