package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"rag-modulo/internal/domain"
)

// PgvectorStore implements domain.VectorStore against a pgvector-enabled
// PostgreSQL database. Query embeddings come from the injected encoder.
type PgvectorStore struct {
	pool    *pgxpool.Pool
	encoder domain.VectorEncoder
	logger  *slog.Logger
}

// NewPgvectorStore creates a pgvector-backed store.
func NewPgvectorStore(pool *pgxpool.Pool, encoder domain.VectorEncoder, logger *slog.Logger) *PgvectorStore {
	return &PgvectorStore{pool: pool, encoder: encoder, logger: logger}
}

var _ domain.VectorStore = (*PgvectorStore)(nil)

// Retrieve embeds the query and runs a cosine-distance search over the
// collection's chunks, returning up to topK results by descending similarity.
func (s *PgvectorStore) Retrieve(ctx context.Context, query, collectionName string, topK int) ([]domain.QueryResult, error) {
	start := time.Now()

	embeddings, err := s.encoder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for query")
	}

	const sql = `
		SELECT chunk_id, document_id, content, 1 - (embedding <=> $1) AS score, page_number, chunk_index
		FROM collection_chunks
		WHERE collection_name = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`
	rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(embeddings[0]), collectionName, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.QueryResult
	for rows.Next() {
		var r domain.QueryResult
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Text, &r.Score, &r.PageNumber, &r.ChunkIndex); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	s.logger.Info("pgvector_retrieval_completed",
		slog.String("collection", collectionName),
		slog.Int("result_count", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return results, nil
}

var _ domain.ChunkIndexer = (*PgvectorStore)(nil)

// AddChunks embeds the chunk texts in one encoder call and upserts them in a
// single batch round trip.
func (s *PgvectorStore) AddChunks(ctx context.Context, collectionName string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	embeddings, err := s.encoder.Encode(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to encode chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("encoder returned %d embeddings for %d chunks", len(embeddings), len(chunks))
	}

	const sql = `
		INSERT INTO collection_chunks (chunk_id, document_id, content, embedding, page_number, chunk_index, collection_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (chunk_id) DO UPDATE
		SET content = EXCLUDED.content, embedding = EXCLUDED.embedding
	`
	batch := &pgx.Batch{}
	for i, c := range chunks {
		batch.Queue(sql, c.ChunkID, c.DocumentID, c.Text, pgvector.NewVector(embeddings[i]),
			c.PageNumber, c.ChunkIndex, collectionName)
	}

	results := s.pool.SendBatch(ctx, batch)
	for range chunks {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to upsert chunk: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	s.logger.Info("pgvector_indexing_completed",
		slog.String("collection", collectionName),
		slog.Int("chunk_count", len(chunks)))

	return nil
}
