package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"rag-modulo/internal/domain"
)

const StageNameResolution = "pipeline_resolution"

// ResolutionStage resolves the user's configured pipeline and the collection
// display name. A missing collection or unusable pipeline configuration is
// fatal: nothing downstream can run without them.
type ResolutionStage struct {
	resolver domain.PipelineResolver
	logger   *slog.Logger
}

// NewResolutionStage creates the resolution stage.
func NewResolutionStage(resolver domain.PipelineResolver, logger *slog.Logger) *ResolutionStage {
	return &ResolutionStage{resolver: resolver, logger: logger}
}

func (s *ResolutionStage) Name() string { return StageNameResolution }

func (s *ResolutionStage) Execute(ctx context.Context, sc *SearchContext) StageResult {
	resolved, err := s.resolver.Resolve(ctx, sc.UserID, sc.CollectionID)
	if err != nil {
		s.logger.Warn("pipeline_resolution_failed",
			slog.String("user_id", sc.UserID),
			slog.String("collection_id", sc.CollectionID),
			slog.String("error", err.Error()))
		return Fail(sc, fmt.Errorf("failed to resolve pipeline for collection %s: %w", sc.CollectionID, err))
	}
	if resolved.PipelineID == "" {
		return Fail(sc, fmt.Errorf("user %s has no pipeline for collection %s: %w", sc.UserID, sc.CollectionID, domain.ErrMisconfigured))
	}

	sc.PipelineID = resolved.PipelineID
	sc.CollectionName = resolved.CollectionName

	return SucceedWith(sc, map[string]string{
		"pipeline_id":     resolved.PipelineID,
		"collection_name": resolved.CollectionName,
	})
}
