package domain

import "context"

// ReasoningStep is one unit of chain-of-thought: a decomposed sub-question,
// its answer, and how many sources backed it.
type ReasoningStep struct {
	Step        int
	SubQuestion string
	SubAnswer   string
	SourceCount int
	// Trace optionally carries the raw reasoning text for observability.
	Trace string
}

// ReasoningOutput is the full chain-of-thought result for one question.
type ReasoningOutput struct {
	Enabled        bool
	Steps          []ReasoningStep
	FinalSynthesis string
}

// Reasoner decomposes a complex question into sub-questions, answers each
// against the supplied context documents, and synthesizes a final answer.
type Reasoner interface {
	Execute(ctx context.Context, question string, docs []QueryResult) (*ReasoningOutput, error)
}
