package searchhttp

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"rag-modulo/internal/domain"
	"rag-modulo/internal/usecase"
)

// SearchRequest is the inbound search payload.
type SearchRequest struct {
	Question       string         `json:"question"`
	CollectionID   string         `json:"collection_id"`
	UserID         string         `json:"user_id"`
	ConfigMetadata map[string]any `json:"config_metadata,omitempty"`
}

// QueryResultItem is one retrieved chunk in the response.
type QueryResultItem struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	Score      float32 `json:"score"`
	PageNumber int     `json:"page_number,omitempty"`
	ChunkIndex int     `json:"chunk_index,omitempty"`
}

// ReasoningStepItem is one chain-of-thought step in the response.
type ReasoningStepItem struct {
	Step        int    `json:"step"`
	SubQuestion string `json:"sub_question"`
	SubAnswer   string `json:"sub_answer"`
	SourceCount int    `json:"source_count"`
}

// CoTOutput is the optional chain-of-thought block in the response.
type CoTOutput struct {
	Enabled        bool                `json:"enabled"`
	Steps          []ReasoningStepItem `json:"steps"`
	FinalSynthesis string              `json:"final_synthesis,omitempty"`
}

// StageInfo summarizes one pipeline stage for observability.
type StageInfo struct {
	Status    string            `json:"status"`
	ElapsedMs int64             `json:"elapsed_ms,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// SearchResponse is the outbound search payload.
type SearchResponse struct {
	Answer          string               `json:"answer"`
	Documents       []string             `json:"documents"`
	QueryResults    []QueryResultItem    `json:"query_results"`
	RewrittenQuery  string               `json:"rewritten_query,omitempty"`
	ExecutionTimeMs int64                `json:"execution_time_ms"`
	CoTOutput       *CoTOutput           `json:"cot_output,omitempty"`
	TokenWarning    string               `json:"token_warning,omitempty"`
	Metadata        map[string]StageInfo `json:"metadata,omitempty"`
}

// Handler exposes the search usecase over HTTP.
type Handler struct {
	searchUsecase usecase.SearchUsecase
}

// NewHandler creates the search HTTP handler.
func NewHandler(searchUsecase usecase.SearchUsecase) *Handler {
	return &Handler{searchUsecase: searchUsecase}
}

// Register attaches the search routes to the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/v1/search", h.Search)
}

// Search answers a question against a collection.
// (POST /v1/search)
func (h *Handler) Search(ctx echo.Context) error {
	var req SearchRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.Question == "" || req.CollectionID == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "question and collection_id are required"})
	}

	output, err := h.searchUsecase.Execute(ctx.Request().Context(), usecase.SearchInput{
		Question:       req.Question,
		CollectionID:   req.CollectionID,
		UserID:         req.UserID,
		ConfigMetadata: req.ConfigMetadata,
	})
	if err != nil {
		return ctx.JSON(statusForError(err), map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, toResponse(output))
}

// statusForError maps pipeline failures onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrMisconfigured), errors.Is(err, domain.ErrNoContext):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func toResponse(output *usecase.SearchOutput) SearchResponse {
	results := make([]QueryResultItem, 0, len(output.QueryResults))
	for _, r := range output.QueryResults {
		results = append(results, QueryResultItem{
			ChunkID:    r.ChunkID,
			DocumentID: r.DocumentID,
			Text:       r.Text,
			Score:      r.Score,
			PageNumber: r.PageNumber,
			ChunkIndex: r.ChunkIndex,
		})
	}

	var cot *CoTOutput
	if output.Reasoning != nil && output.Reasoning.Enabled {
		steps := make([]ReasoningStepItem, 0, len(output.Reasoning.Steps))
		for _, s := range output.Reasoning.Steps {
			steps = append(steps, ReasoningStepItem{
				Step:        s.Step,
				SubQuestion: s.SubQuestion,
				SubAnswer:   s.SubAnswer,
				SourceCount: s.SourceCount,
			})
		}
		cot = &CoTOutput{
			Enabled:        true,
			Steps:          steps,
			FinalSynthesis: output.Reasoning.FinalSynthesis,
		}
	}

	metadata := make(map[string]StageInfo, len(output.Metadata))
	for name, meta := range output.Metadata {
		metadata[name] = StageInfo{
			Status:    meta.Status,
			ElapsedMs: meta.ElapsedMs,
			Error:     meta.Error,
			Extra:     meta.Extra,
		}
	}

	return SearchResponse{
		Answer:          output.Answer,
		Documents:       output.Documents,
		QueryResults:    results,
		RewrittenQuery:  output.RewrittenQuery,
		ExecutionTimeMs: output.ExecutionTimeMs,
		CoTOutput:       cot,
		TokenWarning:    output.TokenWarning,
		Metadata:        metadata,
	}
}
