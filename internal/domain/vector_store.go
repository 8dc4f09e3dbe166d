package domain

import "context"

// QueryResult represents one retrieved candidate chunk.
// Created by retrieval, reordered/truncated/re-scored by reranking, read-only after that.
type QueryResult struct {
	// ChunkID is the unique identifier of the chunk.
	ChunkID string
	// DocumentID identifies the document the chunk belongs to.
	DocumentID string
	// Text is the chunk content.
	Text string
	// Score is the similarity score from retrieval, replaced by the rerank score when reranking runs.
	Score float32
	// PageNumber is the source page the chunk was extracted from, if known.
	PageNumber int
	// ChunkIndex is the position of the chunk within its document.
	ChunkIndex int
}

// VectorStore defines the retrieval contract against a vector index.
// Retrieve must be deterministic for identical inputs against a static index.
type VectorStore interface {
	// Retrieve returns up to topK chunks ranked by descending similarity to the query.
	Retrieve(ctx context.Context, query, collectionName string, topK int) ([]QueryResult, error)
}

// Chunk is one document chunk to be indexed into a collection.
type Chunk struct {
	ChunkID    string
	DocumentID string
	Text       string
	PageNumber int
	ChunkIndex int
}

// ChunkIndexer defines the indexing contract against a vector index.
type ChunkIndexer interface {
	// AddChunks embeds and upserts chunks into the named collection.
	AddChunks(ctx context.Context, collectionName string, chunks []Chunk) error
}
