package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"rag-modulo/internal/domain"
	"rag-modulo/internal/usecase/pipeline"
)

func reasoningTestConfig() pipeline.ReasoningConfig {
	return pipeline.DefaultConfig().Reasoning
}

func TestAutoDetectCoT(t *testing.T) {
	cfg := reasoningTestConfig()

	tests := []struct {
		name     string
		question string
		want     bool
	}{
		{
			name:     "short simple question",
			question: "What is RAG?",
			want:     false,
		},
		{
			name:     "exactly at word threshold stays off",
			question: "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen",
			want:     false,
		},
		{
			name:     "one word over threshold turns on",
			question: "one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen",
			want:     true,
		},
		{
			name:     "conjunction and",
			question: "Compare revenue and churn",
			want:     true,
		},
		{
			name:     "conjunction also",
			question: "Summarize pricing, also competitors",
			want:     true,
		},
		{
			name:     "conjunction then",
			question: "List features, then rank them",
			want:     true,
		},
		{
			name:     "conjunction inside a word does not trigger",
			question: "Which android handset sells best?",
			want:     false,
		},
		{
			name:     "conjunction with trailing punctuation",
			question: "Show revenue and, margins",
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := pipeline.AutoDetectCoT(tt.question, cfg)
			assert.Equal(t, tt.want, got, "reason: %s", reason)
		})
	}
}

func TestAutoDetectCoT_CustomThreshold(t *testing.T) {
	cfg := reasoningTestConfig()
	cfg.MaxQuestionWords = 3

	on, _ := pipeline.AutoDetectCoT("this has four words", cfg)
	assert.True(t, on)

	off, _ := pipeline.AutoDetectCoT("just three words", cfg)
	assert.False(t, off)
}

func TestReasoningStage_SkipsSimpleQuestion(t *testing.T) {
	mockReasoner := new(MockReasoner)

	cfg := pipeline.DefaultConfig()
	stage := pipeline.NewReasoningStage(mockReasoner, cfg, testLogger())
	sc := pipeline.NewSearchContext("What is RAG?", "u", "c", nil)
	sc.QueryResults = makeResults(3)

	result := stage.Execute(context.Background(), sc)

	assert.True(t, result.Success)
	assert.Equal(t, pipeline.StageSkipped, result.Metadata["status"])
	assert.Nil(t, sc.Reasoning)
	mockReasoner.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
}

func TestReasoningStage_RequestOverrideEnables(t *testing.T) {
	mockReasoner := new(MockReasoner)
	mockReasoner.On("Execute", mock.Anything, "What is RAG?", mock.Anything).Return(&domain.ReasoningOutput{
		Steps:          []domain.ReasoningStep{{Step: 1, SubQuestion: "sub", SubAnswer: "ans"}},
		FinalSynthesis: "synthesized",
	}, nil)

	cfg := pipeline.DefaultConfig()
	stage := pipeline.NewReasoningStage(mockReasoner, cfg, testLogger())
	sc := pipeline.NewSearchContext("What is RAG?", "u", "c", map[string]any{pipeline.ConfigCoTEnabled: true})
	sc.QueryResults = makeResults(3)

	result := stage.Execute(context.Background(), sc)

	assert.True(t, result.Success)
	assert.NotNil(t, sc.Reasoning)
	assert.True(t, sc.Reasoning.Enabled)
	assert.Equal(t, "synthesized", sc.Reasoning.FinalSynthesis)
	assert.Equal(t, "enabled by request", result.Metadata["trigger"])
}

func TestReasoningStage_RequestOverrideDisablesAutoDetection(t *testing.T) {
	mockReasoner := new(MockReasoner)

	cfg := pipeline.DefaultConfig()
	stage := pipeline.NewReasoningStage(mockReasoner, cfg, testLogger())
	// Complex question, but the request forces CoT off.
	sc := pipeline.NewSearchContext("Compare revenue and churn and margins", "u", "c",
		map[string]any{pipeline.ConfigCoTDisabled: true})
	sc.QueryResults = makeResults(3)

	result := stage.Execute(context.Background(), sc)

	assert.True(t, result.Success)
	assert.Equal(t, pipeline.StageSkipped, result.Metadata["status"])
	assert.Nil(t, sc.Reasoning)
	mockReasoner.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
}

func TestReasoningStage_DegradesOnReasonerFailure(t *testing.T) {
	mockReasoner := new(MockReasoner)
	mockReasoner.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("model overloaded"))

	cfg := pipeline.DefaultConfig()
	stage := pipeline.NewReasoningStage(mockReasoner, cfg, testLogger())
	sc := pipeline.NewSearchContext("Compare revenue and churn", "u", "c", nil)
	sc.QueryResults = makeResults(3)

	result := stage.Execute(context.Background(), sc)

	assert.True(t, result.Success, "a reasoning failure must not abort the search")
	assert.Equal(t, pipeline.StageDegraded, result.Metadata["status"])
	assert.Equal(t, "direct generation", result.Metadata["fallback"])
	assert.Nil(t, sc.Reasoning)
	assert.NotEmpty(t, sc.Errors)
}

func TestReasoningStage_SkipsWithoutRetrievedContext(t *testing.T) {
	mockReasoner := new(MockReasoner)

	cfg := pipeline.DefaultConfig()
	stage := pipeline.NewReasoningStage(mockReasoner, cfg, testLogger())
	// Conjunction-bearing question with CoT forced on, but retrieval found
	// nothing: reasoning must not fabricate an answer from zero documents.
	sc := pipeline.NewSearchContext("How did revenue change and what drove churn?", "u", "c",
		map[string]any{pipeline.ConfigCoTEnabled: true})

	result := stage.Execute(context.Background(), sc)

	assert.True(t, result.Success)
	assert.Equal(t, pipeline.StageSkipped, result.Metadata["status"])
	assert.Equal(t, "no retrieved context", result.Metadata["skip_reason"])
	assert.Nil(t, sc.Reasoning)
	mockReasoner.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
}
