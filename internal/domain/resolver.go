package domain

import "context"

// ResolvedPipeline carries the outcome of resolving a user's pipeline configuration.
type ResolvedPipeline struct {
	// PipelineID identifies the retrieval/generation pipeline configured for the user.
	PipelineID string
	// CollectionName is the display name of the collection being searched.
	CollectionName string
}

// PipelineResolver resolves the pipeline a user has configured for a collection.
// Implementations return ErrNotFound when the collection does not exist and
// ErrMisconfigured when the user has no usable pipeline.
type PipelineResolver interface {
	Resolve(ctx context.Context, userID, collectionID string) (*ResolvedPipeline, error)
}
