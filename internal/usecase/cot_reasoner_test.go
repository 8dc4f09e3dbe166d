package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"rag-modulo/internal/domain"
	"rag-modulo/internal/usecase"
)

func TestChainOfThoughtReasoner_DecomposesAnswersAndSynthesizes(t *testing.T) {
	mockLLM := new(mockLLMClient)

	// 1. Decomposition returns two sub-questions
	mockLLM.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "simpler sub-questions")
	}), mock.Anything).Return(&domain.LLMResponse{
		Text: "How did revenue develop?\nWhat drove churn?",
	}, nil).Once()

	// 2. One answer per sub-question
	mockLLM.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "How did revenue develop?")
	}), mock.Anything).Return(&domain.LLMResponse{Text: "Revenue grew 12%."}, nil).Once()
	mockLLM.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "What drove churn?")
	}), mock.Anything).Return(&domain.LLMResponse{Text: "Churn rose after the price change."}, nil).Once()

	// 3. Synthesis combines the findings
	mockLLM.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Combine the findings") &&
			strings.Contains(prompt, "Revenue grew 12%.")
	}), mock.Anything).Return(&domain.LLMResponse{
		Text: "Revenue grew 12% while churn rose after the price change.",
	}, nil).Once()

	reasoner := usecase.NewChainOfThoughtReasoner(mockLLM, testLogger())

	docs := sampleResults()
	output, err := reasoner.Execute(context.Background(), "How did revenue develop and what drove churn?", docs)

	assert.NoError(t, err)
	assert.Len(t, output.Steps, 2)
	assert.Equal(t, 1, output.Steps[0].Step)
	assert.Equal(t, "How did revenue develop?", output.Steps[0].SubQuestion)
	assert.Equal(t, "Revenue grew 12%.", output.Steps[0].SubAnswer)
	assert.Equal(t, len(docs), output.Steps[0].SourceCount)
	assert.Equal(t, "Revenue grew 12% while churn rose after the price change.", output.FinalSynthesis)
	mockLLM.AssertExpectations(t)
}

func TestChainOfThoughtReasoner_EmptyDecompositionFallsBackToOriginalQuestion(t *testing.T) {
	mockLLM := new(mockLLMClient)

	mockLLM.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "simpler sub-questions")
	}), mock.Anything).Return(&domain.LLMResponse{Text: "\n\n"}, nil).Once()

	mockLLM.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Question: original question")
	}), mock.Anything).Return(&domain.LLMResponse{Text: "direct sub-answer"}, nil).Once()

	mockLLM.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Combine the findings")
	}), mock.Anything).Return(&domain.LLMResponse{Text: "final"}, nil).Once()

	reasoner := usecase.NewChainOfThoughtReasoner(mockLLM, testLogger())

	output, err := reasoner.Execute(context.Background(), "original question", sampleResults())

	assert.NoError(t, err)
	assert.Len(t, output.Steps, 1)
	assert.Equal(t, "original question", output.Steps[0].SubQuestion)
}

func TestChainOfThoughtReasoner_CapsSubQuestions(t *testing.T) {
	mockLLM := new(mockLLMClient)

	// Decomposition tries to return six sub-questions; only four survive.
	mockLLM.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "simpler sub-questions")
	}), mock.Anything).Return(&domain.LLMResponse{
		Text: "q1\nq2\nq3\nq4\nq5\nq6",
	}, nil).Once()

	mockLLM.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Answer the question concisely")
	}), mock.Anything).Return(&domain.LLMResponse{Text: "sub-answer"}, nil).Times(4)

	mockLLM.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Combine the findings")
	}), mock.Anything).Return(&domain.LLMResponse{Text: "final"}, nil).Once()

	reasoner := usecase.NewChainOfThoughtReasoner(mockLLM, testLogger())

	output, err := reasoner.Execute(context.Background(), "a very involved question", sampleResults())

	assert.NoError(t, err)
	assert.Len(t, output.Steps, 4)
	mockLLM.AssertExpectations(t)
}

func TestChainOfThoughtReasoner_PropagatesDecompositionFailure(t *testing.T) {
	mockLLM := new(mockLLMClient)
	mockLLM.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("model overloaded"))

	reasoner := usecase.NewChainOfThoughtReasoner(mockLLM, testLogger())

	output, err := reasoner.Execute(context.Background(), "question", sampleResults())

	assert.Nil(t, output)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "decompose")
}
