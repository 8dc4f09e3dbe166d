package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"rag-modulo/internal/domain"
)

const StageNameGeneration = "generation"

// GenerationStage produces the final answer. A usable chain-of-thought
// synthesis wins over direct generation; otherwise the answer is generated
// from the (reranked) query results. Having neither is fatal: generating with
// no context would be hallucination.
type GenerationStage struct {
	llmClient domain.LLMClient
	config    Config
	logger    *slog.Logger
}

// NewGenerationStage creates the generation stage.
func NewGenerationStage(llmClient domain.LLMClient, config Config, logger *slog.Logger) *GenerationStage {
	return &GenerationStage{llmClient: llmClient, config: config, logger: logger}
}

func (s *GenerationStage) Name() string { return StageNameGeneration }

func (s *GenerationStage) Execute(ctx context.Context, sc *SearchContext) StageResult {
	if sc.Reasoning != nil && strings.TrimSpace(sc.Reasoning.FinalSynthesis) != "" {
		sc.GeneratedAnswer = CleanAnswer(sc.Reasoning.FinalSynthesis)
		return SucceedWith(sc, map[string]string{"answer_source": "cot_synthesis"})
	}

	if len(sc.QueryResults) == 0 {
		return Fail(sc, fmt.Errorf("cannot generate answer: %w", domain.ErrNoContext))
	}

	genCtx, cancel := context.WithTimeout(ctx, s.config.GenerationTimeout)
	defer cancel()

	prompt := buildGenerationPrompt(sc.Question, sc.QueryResults)
	resp, err := s.llmClient.Generate(genCtx, prompt, s.config.GenerationMaxTokens)
	if err != nil {
		s.logger.Error("generation_failed",
			slog.String("question", sc.Question),
			slog.String("error", err.Error()))
		return Fail(sc, fmt.Errorf("generation failed: %w", err))
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return Fail(sc, fmt.Errorf("generation returned empty answer"))
	}

	sc.GeneratedAnswer = CleanAnswer(resp.Text)

	return SucceedWith(sc, map[string]string{
		"answer_source": "direct_generation",
		"model":         s.llmClient.Version(),
	})
}

// buildGenerationPrompt composes the grounded-answer prompt from the retrieved chunks.
func buildGenerationPrompt(question string, results []domain.QueryResult) string {
	var sb strings.Builder
	sb.WriteString("Answer the question using ONLY the documents below. ")
	sb.WriteString("If the documents do not contain the answer, say so.\n\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "Document %d (doc %s, chunk %d):\n%s\n\n", i+1, r.DocumentID, r.ChunkIndex, r.Text)
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\nAnswer:")
	return sb.String()
}

var (
	answerPrefixes = []string{"answer:", "response:", "result:"}

	// Internal reasoning delimiters that must never leak to the user.
	thinkingTagRe = regexp.MustCompile(`(?s)<think(?:ing)?>.*?</think(?:ing)?>`)

	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	newlineRunRe = regexp.MustCompile(`\n{3,}`)
)

// CleanAnswer strips boilerplate prefixes and internal thinking delimiters and
// normalizes whitespace. Cleaning an already-clean answer is a no-op.
func CleanAnswer(raw string) string {
	cleaned := thinkingTagRe.ReplaceAllString(raw, "")
	cleaned = strings.ReplaceAll(cleaned, "\r\n", "\n")
	cleaned = strings.TrimSpace(cleaned)

	for stripped := true; stripped; {
		stripped = false
		lower := strings.ToLower(cleaned)
		for _, prefix := range answerPrefixes {
			if strings.HasPrefix(lower, prefix) {
				cleaned = strings.TrimSpace(cleaned[len(prefix):])
				stripped = true
				break
			}
		}
	}

	cleaned = spaceRunRe.ReplaceAllString(cleaned, " ")
	cleaned = newlineRunRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}
