package services

import (
	"context"
	"log"
	"strings"
)

// IngestionService runs the full admission pipeline on one file: extract,
// normalize, gate, chunk, index.
type IngestionService struct {
	validator *ContentValidator
	store     *DocumentStore
	chunkSize int
	overlap   int
}

// NewIngestionService builds an ingestion pipeline over the given gate and
// store at a fixed chunking operating point. overlap must be smaller than
// chunkSize.
func NewIngestionService(validator *ContentValidator, store *DocumentStore, chunkSize, overlap int) *IngestionService {
	return &IngestionService{
		validator: validator,
		store:     store,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// ProcessFile ingests one document and returns the number of chunks indexed.
// Gate rejections come back as *ValidationError, unreadable or empty files
// as *ExtractionError, and index failures as *BackendError.
func (s *IngestionService) ProcessFile(ctx context.Context, path, sourceName string) (int, error) {
	raw, err := ExtractTextFromFile(path)
	if err != nil {
		return 0, err
	}

	text := NormalizeText(raw)
	if strings.TrimSpace(text) == "" {
		return 0, &ExtractionError{Path: path}
	}

	log.Printf("SERVICE: Validating document content for '%s'...", sourceName)
	verdict := s.validator.Validate(ctx, text)
	if !verdict.Accepted {
		return 0, &ValidationError{Reason: verdict.Reason}
	}
	log.Printf("SERVICE: Content validation passed: %s", verdict.Reason)

	chunks := ChunkText(text, s.chunkSize, s.overlap)
	if len(chunks) == 0 {
		return 0, &EmptyResultError{Op: "text chunking"}
	}
	log.Printf("SERVICE: Created %d chunks from '%s'", len(chunks), sourceName)

	if _, err := s.store.Ingest(ctx, chunks, sourceName); err != nil {
		return 0, err
	}
	return len(chunks), nil
}
