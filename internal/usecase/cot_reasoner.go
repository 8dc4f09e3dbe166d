package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rag-modulo/internal/domain"
)

const (
	// maxReasoningSteps caps how many sub-questions one question decomposes into.
	maxReasoningSteps = 4
	// maxContextDocsPerStep limits how many chunks feed each sub-answer.
	maxContextDocsPerStep = 5

	decomposeMaxTokens = 200
	subAnswerMaxTokens = 300
	synthesisMaxTokens = 600
)

// ChainOfThoughtReasoner implements domain.Reasoner on top of an LLM client:
// decompose the question, answer each sub-question against the retrieved
// context, then synthesize a final answer from the accumulated steps.
type ChainOfThoughtReasoner struct {
	llmClient domain.LLMClient
	logger    *slog.Logger
}

// NewChainOfThoughtReasoner creates a reasoner backed by the given LLM client.
func NewChainOfThoughtReasoner(llmClient domain.LLMClient, logger *slog.Logger) *ChainOfThoughtReasoner {
	return &ChainOfThoughtReasoner{llmClient: llmClient, logger: logger}
}

var _ domain.Reasoner = (*ChainOfThoughtReasoner)(nil)

// Execute runs the full decompose/answer/synthesize loop.
func (r *ChainOfThoughtReasoner) Execute(ctx context.Context, question string, docs []domain.QueryResult) (*domain.ReasoningOutput, error) {
	subQuestions, err := r.decompose(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to decompose question: %w", err)
	}
	if len(subQuestions) == 0 {
		subQuestions = []string{question}
	}

	contextDocs := docs
	if len(contextDocs) > maxContextDocsPerStep {
		contextDocs = contextDocs[:maxContextDocsPerStep]
	}

	steps := make([]domain.ReasoningStep, 0, len(subQuestions))
	for i, sub := range subQuestions {
		answer, err := r.answerSubQuestion(ctx, sub, contextDocs)
		if err != nil {
			return nil, fmt.Errorf("failed to answer sub-question %d: %w", i+1, err)
		}
		steps = append(steps, domain.ReasoningStep{
			Step:        i + 1,
			SubQuestion: sub,
			SubAnswer:   answer,
			SourceCount: len(contextDocs),
		})
	}

	synthesis, err := r.synthesize(ctx, question, steps)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize answer: %w", err)
	}

	r.logger.Info("cot_reasoning_completed",
		slog.Int("step_count", len(steps)),
		slog.Int("context_docs", len(contextDocs)))

	return &domain.ReasoningOutput{
		Steps:          steps,
		FinalSynthesis: synthesis,
	}, nil
}

func (r *ChainOfThoughtReasoner) decompose(ctx context.Context, question string) ([]string, error) {
	prompt := fmt.Sprintf(`Break the following question into at most %d simpler sub-questions that together answer it.
Output ONLY the sub-questions, one per line. Do not add numbering, bullets, or explanations.

Question: %s`, maxReasoningSteps, question)

	resp, err := r.llmClient.Generate(ctx, prompt, decomposeMaxTokens)
	if err != nil {
		return nil, err
	}

	var subQuestions []string
	for _, line := range strings.Split(resp.Text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		subQuestions = append(subQuestions, trimmed)
		if len(subQuestions) == maxReasoningSteps {
			break
		}
	}
	return subQuestions, nil
}

func (r *ChainOfThoughtReasoner) answerSubQuestion(ctx context.Context, subQuestion string, docs []domain.QueryResult) (string, error) {
	var sb strings.Builder
	sb.WriteString("Answer the question concisely using ONLY the documents below.\n\n")
	for i, d := range docs {
		fmt.Fprintf(&sb, "Document %d:\n%s\n\n", i+1, d.Text)
	}
	sb.WriteString("Question: ")
	sb.WriteString(subQuestion)

	resp, err := r.llmClient.Generate(ctx, sb.String(), subAnswerMaxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func (r *ChainOfThoughtReasoner) synthesize(ctx context.Context, question string, steps []domain.ReasoningStep) (string, error) {
	var sb strings.Builder
	sb.WriteString("Combine the findings below into one coherent answer to the original question.\n\n")
	for _, step := range steps {
		fmt.Fprintf(&sb, "Finding %d (%s): %s\n", step.Step, step.SubQuestion, step.SubAnswer)
	}
	sb.WriteString("\nOriginal question: ")
	sb.WriteString(question)

	resp, err := r.llmClient.Generate(ctx, sb.String(), synthesisMaxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
