package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rag-modulo/internal/domain"
)

// resolveResponse is the payload returned by the pipeline service.
type resolveResponse struct {
	PipelineID     string `json:"pipeline_id"`
	CollectionName string `json:"collection_name"`
}

// HTTPResolver implements domain.PipelineResolver against the pipeline/collection service.
type HTTPResolver struct {
	BaseURL string
	Client  *http.Client
	logger  *slog.Logger
}

// NewHTTPResolver constructs a resolver client. If client is nil, a default
// http.Client with the given timeout is created.
func NewHTTPResolver(baseURL string, timeout time.Duration, logger *slog.Logger, client ...*http.Client) *HTTPResolver {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}
	return &HTTPResolver{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  c,
		logger:  logger,
	}
}

var _ domain.PipelineResolver = (*HTTPResolver)(nil)

// Resolve looks up the user's configured pipeline for the collection.
// A 404 maps to domain.ErrNotFound, a 422 to domain.ErrMisconfigured.
func (r *HTTPResolver) Resolve(ctx context.Context, userID, collectionID string) (*domain.ResolvedPipeline, error) {
	url := fmt.Sprintf("%s/api/v1/users/%s/collections/%s/pipeline", r.BaseURL, userID, collectionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolve request: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call pipeline service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusNotFound:
		return nil, fmt.Errorf("collection %s: %w", collectionID, domain.ErrNotFound)
	case http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrMisconfigured)
	default:
		body, _ := io.ReadAll(resp.Body)
		r.logger.Warn("pipeline_resolve_bad_status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", truncateString(string(body), 200)))
		return nil, fmt.Errorf("pipeline service returned %d", resp.StatusCode)
	}

	var payload resolveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode resolve response: %w", err)
	}
	if payload.PipelineID == "" {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrMisconfigured)
	}

	return &domain.ResolvedPipeline{
		PipelineID:     payload.PipelineID,
		CollectionName: payload.CollectionName,
	}, nil
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
