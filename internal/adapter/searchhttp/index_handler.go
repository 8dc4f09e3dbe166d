package searchhttp

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"rag-modulo/internal/domain"
)

// IndexRequest is the inbound indexing payload.
type IndexRequest struct {
	CollectionName string      `json:"collection_name"`
	Chunks         []ChunkItem `json:"chunks"`
}

// ChunkItem is one document chunk to index.
type ChunkItem struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
	PageNumber int    `json:"page_number,omitempty"`
	ChunkIndex int    `json:"chunk_index,omitempty"`
}

// IndexResponse reports the outcome of an indexing request.
type IndexResponse struct {
	CollectionName string `json:"collection_name"`
	Indexed        int    `json:"indexed"`
}

// IndexHandler exposes chunk indexing over HTTP.
type IndexHandler struct {
	indexer domain.ChunkIndexer
}

// NewIndexHandler creates the indexing HTTP handler.
func NewIndexHandler(indexer domain.ChunkIndexer) *IndexHandler {
	return &IndexHandler{indexer: indexer}
}

// Register attaches the indexing routes to the echo instance.
func (h *IndexHandler) Register(e *echo.Echo) {
	e.POST("/v1/index", h.Index)
}

// Index embeds and upserts chunks into a collection.
// (POST /v1/index)
func (h *IndexHandler) Index(ctx echo.Context) error {
	var req IndexRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if req.CollectionName == "" || len(req.Chunks) == 0 {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "collection_name and chunks are required"})
	}

	chunks := make([]domain.Chunk, len(req.Chunks))
	for i, c := range req.Chunks {
		if c.ChunkID == "" || c.Text == "" {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "every chunk needs a chunk_id and text"})
		}
		chunks[i] = domain.Chunk{
			ChunkID:    c.ChunkID,
			DocumentID: c.DocumentID,
			Text:       c.Text,
			PageNumber: c.PageNumber,
			ChunkIndex: c.ChunkIndex,
		}
	}

	if err := h.indexer.AddChunks(ctx.Request().Context(), req.CollectionName, chunks); err != nil {
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return ctx.JSON(http.StatusOK, IndexResponse{
		CollectionName: req.CollectionName,
		Indexed:        len(chunks),
	})
}
