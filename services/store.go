package services

import (
	"context"
	"log"

	"github.com/cloudymate/cloudymate/models"
)

// ingestBatchSize bounds the payload and duration of any single index call.
const ingestBatchSize = 10

// DocumentStore owns chunks once they are ingested. It converts chunks into
// indexed documents, hands them to the vector index in fixed-size batches,
// and answers similarity queries.
type DocumentStore struct {
	index VectorIndex
}

// NewDocumentStore wraps a vector index.
func NewDocumentStore(index VectorIndex) *DocumentStore {
	return &DocumentStore{index: index}
}

// Ingest indexes the chunks of one source document and returns the assigned
// ids. Batches are issued sequentially; the first failing batch aborts the
// call, and documents from earlier batches stay indexed. That partial-success
// behavior is accepted: the store is append-only and re-ingestion is cheap.
func (s *DocumentStore) Ingest(ctx context.Context, chunks []models.Chunk, sourceName string) ([]string, error) {
	docs := make([]models.IndexedDocument, 0, len(chunks))
	for _, chunk := range chunks {
		docs = append(docs, models.IndexedDocument{
			Text: chunk.Text,
			Metadata: models.ChunkMetadata{
				ChunkID:   chunk.Index,
				ChunkSize: chunk.CharLength,
				Source:    sourceName,
			},
		})
	}

	log.Printf("SERVICE: Adding %d documents from '%s' to the index...", len(docs), sourceName)

	var allIDs []string
	for start := 0; start < len(docs); start += ingestBatchSize {
		end := start + ingestBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		ids, err := s.index.Upsert(ctx, docs[start:end])
		if err != nil {
			return nil, err
		}
		allIDs = append(allIDs, ids...)
	}

	log.Printf("SERVICE: Successfully added %d documents from '%s'", len(allIDs), sourceName)
	return allIDs, nil
}

// Retrieve runs one similarity query and returns up to k passages in rank
// order. No deduplication or reranking happens here.
func (s *DocumentStore) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievedPassage, error) {
	return s.index.Search(ctx, query, k)
}

// Count reports the number of chunks currently indexed.
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	return s.index.Count(ctx)
}
