package pipeline

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"rag-modulo/internal/domain"
)

const StageNameReasoning = "reasoning"

// ReasoningStage optionally runs chain-of-thought decomposition for complex
// questions.
//
// When neither cot_enabled nor cot_disabled is set, CoT auto-enables for
// questions longer than the configured word threshold or containing multi-part
// conjunctions. Skipping is a normal path, not a degradation. An internal
// reasoning failure degrades to "no CoT" rather than aborting the search.
//
// Reasoning requires retrieved context. With zero query results the stage
// skips unconditionally, even when CoT is forced on by request, so generation
// fails with its no-context error instead of synthesizing from nothing.
type ReasoningStage struct {
	reasoner domain.Reasoner
	config   Config
	logger   *slog.Logger
}

// NewReasoningStage creates the reasoning stage.
func NewReasoningStage(reasoner domain.Reasoner, config Config, logger *slog.Logger) *ReasoningStage {
	return &ReasoningStage{reasoner: reasoner, config: config, logger: logger}
}

func (s *ReasoningStage) Name() string { return StageNameReasoning }

func (s *ReasoningStage) Execute(ctx context.Context, sc *SearchContext) StageResult {
	if len(sc.QueryResults) == 0 {
		return SucceedWith(sc, map[string]string{"status": StageSkipped, "skip_reason": "no retrieved context"})
	}

	enabled, reason := s.shouldReason(sc)
	if !enabled {
		return SucceedWith(sc, map[string]string{"status": StageSkipped, "skip_reason": reason})
	}
	if s.reasoner == nil {
		sc.AddWarning("reasoning requested but no reasoner configured")
		return SucceedWith(sc, map[string]string{"status": StageSkipped, "skip_reason": "no reasoner configured"})
	}

	reasonCtx, cancel := context.WithTimeout(ctx, s.config.Reasoning.Timeout)
	defer cancel()

	output, err := s.reasoner.Execute(reasonCtx, sc.Question, sc.QueryResults)
	if err != nil {
		s.logger.Warn("reasoning_failed_continuing_without_cot",
			slog.String("question", sc.Question),
			slog.String("error", err.Error()))
		sc.AddWarning("chain-of-thought failed: " + err.Error())
		return SucceedWith(sc, map[string]string{"status": StageDegraded, "fallback": "direct generation"})
	}

	output.Enabled = true
	sc.Reasoning = output

	s.logger.Info("reasoning_completed",
		slog.Int("step_count", len(output.Steps)),
		slog.String("trigger", reason))

	return SucceedWith(sc, map[string]string{
		"step_count": strconv.Itoa(len(output.Steps)),
		"trigger":    reason,
	})
}

// shouldReason applies the explicit overrides first, then the auto-detection
// heuristics. Returns the decision and the reason behind it.
func (s *ReasoningStage) shouldReason(sc *SearchContext) (bool, string) {
	if sc.BoolOption(ConfigCoTDisabled) {
		return false, "disabled by request"
	}
	if sc.BoolOption(ConfigCoTEnabled) {
		return true, "enabled by request"
	}

	return AutoDetectCoT(sc.Question, s.config.Reasoning)
}

// AutoDetectCoT applies the chain-of-thought heuristics: long questions and
// multi-part conjunctions trigger reasoning. Shared with the legacy path so
// both paths make the same decision.
func AutoDetectCoT(question string, cfg ReasoningConfig) (bool, string) {
	words := strings.Fields(question)
	if len(words) > cfg.MaxQuestionWords {
		return true, "question length over threshold"
	}

	for _, w := range words {
		normalized := strings.ToLower(strings.Trim(w, ".,;:?!"))
		for _, conj := range cfg.Conjunctions {
			if normalized == conj {
				return true, "multi-part question"
			}
		}
	}

	return false, "simple question"
}
