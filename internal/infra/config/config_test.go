package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"rag-modulo/internal/infra/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()

	assert.Equal(t, "9020", cfg.Port)
	assert.Equal(t, "pgvector", cfg.VectorBackend)
	assert.Equal(t, 10, cfg.RetrievalTopK)
	assert.Equal(t, 5, cfg.Rerank.TopK)
	assert.Equal(t, 10, cfg.Rerank.BatchSize)
	assert.True(t, cfg.Rerank.Enabled)
	assert.Equal(t, 15, cfg.CoTMaxWords)
	assert.Equal(t, []string{"and", "also", "then"}, cfg.CoTConjunctions)
	assert.False(t, cfg.Flags.StagedEnabled)
	assert.Equal(t, 0, cfg.Flags.RolloutPercent)
	assert.Equal(t, 120, cfg.GenerationTimeout)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("VECTOR_BACKEND", "chromem")
	t.Setenv("RETRIEVAL_TOP_K", "25")
	t.Setenv("RERANK_ENABLED", "false")
	t.Setenv("STAGED_PIPELINE_ENABLED", "true")
	t.Setenv("STAGED_PIPELINE_ROLLOUT_PCT", "40")
	t.Setenv("COT_CONJUNCTIONS", "and, plus ,versus")

	cfg := config.Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "chromem", cfg.VectorBackend)
	assert.Equal(t, 25, cfg.RetrievalTopK)
	assert.False(t, cfg.Rerank.Enabled)
	assert.True(t, cfg.Flags.StagedEnabled)
	assert.Equal(t, 40, cfg.Flags.RolloutPercent)
	assert.Equal(t, []string{"and", "plus", "versus"}, cfg.CoTConjunctions)
}

func TestLoad_MalformedNumbersFallBack(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "lots")
	t.Setenv("STAGED_PIPELINE_ROLLOUT_PCT", "")

	cfg := config.Load()

	assert.Equal(t, 10, cfg.RetrievalTopK)
	assert.Equal(t, 0, cfg.Flags.RolloutPercent)
}

func TestLoad_SecretFromFile(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "db_password")
	assert.NoError(t, os.WriteFile(secretFile, []byte("s3cret\n"), 0o600))

	t.Setenv("DB_PASSWORD_FILE", secretFile)

	cfg := config.Load()

	assert.Equal(t, "s3cret", cfg.DB.Password)
}
