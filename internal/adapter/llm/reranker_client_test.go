package llm_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rag-modulo/internal/adapter/llm"
	"rag-modulo/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestRerankerClient_Rerank_MapsIndicesToCandidateIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/rerank", r.URL.Path)

		var req llm.RerankRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "query", req.Query)
		assert.Equal(t, []string{"first text", "second text"}, req.Candidates)

		_ = json.NewEncoder(w).Encode(llm.RerankResponse{
			Results: []llm.RerankResponseResult{
				{Index: 1, Score: 0.9},
				{Index: 0, Score: 0.4},
			},
			Model: "test-model",
		})
	}))
	defer server.Close()

	client := llm.NewRerankerClient(server.URL, "test-model", 5*time.Second, testLogger())

	results, err := client.Rerank(context.Background(), "query", []domain.RerankCandidate{
		{ID: "chunk-a", Content: "first text"},
		{ID: "chunk-b", Content: "second text"},
	})

	assert.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, "chunk-b", results[0].ID)
	assert.Equal(t, float32(0.9), results[0].Score)
	assert.Equal(t, "chunk-a", results[1].ID)
}

func TestRerankerClient_Rerank_EmptyCandidates(t *testing.T) {
	client := llm.NewRerankerClient("http://unused", "m", time.Second, testLogger())

	results, err := client.Rerank(context.Background(), "query", nil)

	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestRerankerClient_Rerank_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := llm.NewRerankerClient(server.URL, "m", 5*time.Second, testLogger())

	results, err := client.Rerank(context.Background(), "query", []domain.RerankCandidate{{ID: "a", Content: "x"}})

	assert.Nil(t, results)
	assert.Error(t, err)
}

func TestRerankerClient_Rerank_InvalidIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(llm.RerankResponse{
			Results: []llm.RerankResponseResult{{Index: 7, Score: 0.5}},
		})
	}))
	defer server.Close()

	client := llm.NewRerankerClient(server.URL, "m", 5*time.Second, testLogger())

	results, err := client.Rerank(context.Background(), "query", []domain.RerankCandidate{{ID: "a", Content: "x"}})

	assert.Nil(t, results)
	assert.Error(t, err)
}
