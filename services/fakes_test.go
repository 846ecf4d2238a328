package services

import (
	"context"
	"sync"

	"github.com/cloudymate/cloudymate/models"
)

// fakeGenerator records every prompt and returns a canned answer or error.
type fakeGenerator struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// fakeIndex records upsert batches and serves canned search results. The
// mutex lets watcher tests poll batchCount while the event loop ingests.
type fakeIndex struct {
	mu         sync.Mutex
	batches    [][]models.IndexedDocument
	upsertErr  error
	failAtCall int // 1-based call number that returns upsertErr; 0 = always
	passages   []models.RetrievedPassage
	searchErr  error
	count      int
}

func (f *fakeIndex) Upsert(_ context.Context, docs []models.IndexedDocument) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := len(f.batches) + 1
	f.batches = append(f.batches, docs)
	if f.upsertErr != nil && (f.failAtCall == 0 || f.failAtCall == call) {
		return nil, f.upsertErr
	}
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = "id"
	}
	return ids, nil
}

func (f *fakeIndex) batchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeIndex) Search(_ context.Context, _ string, _ int) ([]models.RetrievedPassage, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.passages, nil
}

func (f *fakeIndex) Count(_ context.Context) (int, error) {
	return f.count, nil
}

// fakeRetriever serves canned passages to the pipeline.
type fakeRetriever struct {
	passages []models.RetrievedPassage
	err      error
	calls    int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, _ int) ([]models.RetrievedPassage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}
