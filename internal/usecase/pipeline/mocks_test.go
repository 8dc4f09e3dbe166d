package pipeline_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"rag-modulo/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// MockPipelineResolver
type MockPipelineResolver struct {
	mock.Mock
}

func (m *MockPipelineResolver) Resolve(ctx context.Context, userID, collectionID string) (*domain.ResolvedPipeline, error) {
	args := m.Called(ctx, userID, collectionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResolvedPipeline), args.Error(1)
}

// MockVectorStore
type MockVectorStore struct {
	mock.Mock
}

func (m *MockVectorStore) Retrieve(ctx context.Context, query, collectionName string, topK int) ([]domain.QueryResult, error) {
	args := m.Called(ctx, query, collectionName, topK)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.QueryResult), args.Error(1)
}

// MockQueryEnhancer
type MockQueryEnhancer struct {
	mock.Mock
}

func (m *MockQueryEnhancer) Enhance(ctx context.Context, question string) (string, error) {
	args := m.Called(ctx, question)
	return args.String(0), args.Error(1)
}

// MockReranker
type MockReranker struct {
	mock.Mock
}

func (m *MockReranker) Rerank(ctx context.Context, query string, candidates []domain.RerankCandidate) ([]domain.RerankResult, error) {
	args := m.Called(ctx, query, candidates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RerankResult), args.Error(1)
}

func (m *MockReranker) ModelName() string {
	return "mock-reranker"
}

// MockReasoner
type MockReasoner struct {
	mock.Mock
}

func (m *MockReasoner) Execute(ctx context.Context, question string, docs []domain.QueryResult) (*domain.ReasoningOutput, error) {
	args := m.Called(ctx, question, docs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReasoningOutput), args.Error(1)
}

// mockLLMClient
type mockLLMClient struct {
	mock.Mock
}

func (m *mockLLMClient) Generate(ctx context.Context, prompt string, maxTokens int) (*domain.LLMResponse, error) {
	args := m.Called(ctx, prompt, maxTokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LLMResponse), args.Error(1)
}

func (m *mockLLMClient) Version() string {
	return "mock-llm"
}
