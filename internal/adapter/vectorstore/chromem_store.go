package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"

	"rag-modulo/internal/domain"
)

// ChromemStore implements domain.VectorStore on the embedded chromem-go
// database. It serves local development and tests where no PostgreSQL with
// pgvector is available.
type ChromemStore struct {
	db     *chromem.DB
	embed  chromem.EmbeddingFunc
	logger *slog.Logger

	mu          sync.Mutex
	collections map[string]*chromem.Collection
}

// NewChromemStore creates an in-memory store. When persistDir is non-empty the
// index is persisted on disk and survives restarts.
func NewChromemStore(persistDir string, encoder domain.VectorEncoder, logger *slog.Logger) (*ChromemStore, error) {
	var db *chromem.DB
	if persistDir != "" {
		var err error
		db, err = chromem.NewPersistentDB(persistDir, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector db: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	embed := func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := encoder.Encode(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vectors) == 0 {
			return nil, fmt.Errorf("no embedding returned")
		}
		return vectors[0], nil
	}

	return &ChromemStore{
		db:          db,
		embed:       embed,
		logger:      logger,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

var _ domain.VectorStore = (*ChromemStore)(nil)

func (s *ChromemStore) collection(name string) (*chromem.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if col, ok := s.collections[name]; ok {
		return col, nil
	}
	col, err := s.db.GetOrCreateCollection(name, nil, s.embed)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}
	s.collections[name] = col
	return col, nil
}

// Retrieve queries the embedded index, ranked by descending similarity.
func (s *ChromemStore) Retrieve(ctx context.Context, query, collectionName string, topK int) ([]domain.QueryResult, error) {
	col, err := s.collection(collectionName)
	if err != nil {
		return nil, err
	}

	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if topK > count {
		topK = count
	}

	docs, err := col.Query(ctx, query, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}

	results := make([]domain.QueryResult, 0, len(docs))
	for _, d := range docs {
		r := domain.QueryResult{
			ChunkID:    d.ID,
			DocumentID: d.Metadata["document_id"],
			Text:       d.Content,
			Score:      d.Similarity,
		}
		if page, perr := strconv.Atoi(d.Metadata["page_number"]); perr == nil {
			r.PageNumber = page
		}
		if idx, ierr := strconv.Atoi(d.Metadata["chunk_index"]); ierr == nil {
			r.ChunkIndex = idx
		}
		results = append(results, r)
	}

	s.logger.Info("chromem_retrieval_completed",
		slog.String("collection", collectionName),
		slog.Int("result_count", len(results)))

	return results, nil
}

var _ domain.ChunkIndexer = (*ChromemStore)(nil)

// AddChunks indexes chunks into a collection, embedding them concurrently.
func (s *ChromemStore) AddChunks(ctx context.Context, collectionName string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	col, err := s.collection(collectionName)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = chromem.Document{
			ID:      c.ChunkID,
			Content: c.Text,
			Metadata: map[string]string{
				"document_id": c.DocumentID,
				"page_number": strconv.Itoa(c.PageNumber),
				"chunk_index": strconv.Itoa(c.ChunkIndex),
			},
		}
	}

	return col.AddDocuments(ctx, docs, runtime.NumCPU())
}
