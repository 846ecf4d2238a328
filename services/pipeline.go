package services

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudymate/cloudymate/models"
)

const (
	// DefaultRetrievalK is used when a query does not specify k.
	DefaultRetrievalK = 4

	// Source previews are truncated to this many runes.
	sourcePreviewLength = 200

	// noDocumentsAnswer short-circuits queries against an empty index. The
	// generation capability is never invoked in that case.
	noDocumentsAnswer = "No documents have been uploaded yet. Please upload a PDF document first, then ask questions about its content."
)

// Retriever is the similarity-search capability the pipeline consumes.
// *DocumentStore satisfies it.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.RetrievedPassage, error)
}

// RAGPipeline answers a question from indexed content: retrieve passages,
// assemble the prompt, generate once, attribute sources. Each query is a
// single sequential pass with no internal retries.
type RAGPipeline struct {
	retriever Retriever
	generator Generator
}

// NewRAGPipeline wires the retrieval and generation capabilities together.
func NewRAGPipeline(retriever Retriever, generator Generator) *RAGPipeline {
	return &RAGPipeline{
		retriever: retriever,
		generator: generator,
	}
}

// Answer runs the pipeline for one query. A failure in any step surfaces as
// one wrapped error; an empty index is not an error but a fixed answer with
// zero sources.
func (p *RAGPipeline) Answer(ctx context.Context, query string, k int) (*models.QueryResponse, error) {
	if k <= 0 {
		k = DefaultRetrievalK
	}
	log.Printf("SERVICE: Querying RAG with: '%s' (k=%d)", query, k)

	passages, err := p.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, fmt.Errorf("rag pipeline failed: %w", err)
	}

	if len(passages) == 0 {
		log.Printf("SERVICE: No documents retrieved, returning fallback answer")
		return &models.QueryResponse{
			Answer:     noDocumentsAnswer,
			Sources:    []models.Source{},
			Query:      query,
			NumSources: 0,
		}, nil
	}

	prompt, err := BuildPrompt(FormatContext(passages), query)
	if err != nil {
		return nil, fmt.Errorf("rag pipeline failed: %w", err)
	}

	answer, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("rag pipeline failed: %w", err)
	}

	return &models.QueryResponse{
		Answer:     answer,
		Sources:    extractSources(passages),
		Query:      query,
		NumSources: len(passages),
	}, nil
}

// AnswerWithHistory runs Answer and appends the exchange to the caller's
// transcript. Prior turns are not fed into prompt assembly; each turn is
// answered statelessly and the history exists for the caller's benefit.
func (p *RAGPipeline) AnswerWithHistory(ctx context.Context, query string, history []models.ChatMessage, k int) (*models.ChatResponse, error) {
	result, err := p.Answer(ctx, query, k)
	if err != nil {
		return nil, err
	}

	history = append(history,
		models.ChatMessage{Role: "user", Content: query},
		models.ChatMessage{Role: "assistant", Content: result.Answer},
	)

	return &models.ChatResponse{
		QueryResponse:       *result,
		ConversationHistory: history,
	}, nil
}

// extractSources maps passages to source attributions: sequential 1-based
// ids in rank order, content truncated for display, metadata untouched.
func extractSources(passages []models.RetrievedPassage) []models.Source {
	sources := make([]models.Source, 0, len(passages))
	for i, p := range passages {
		content := p.Content
		if runes := []rune(content); len(runes) > sourcePreviewLength {
			content = string(runes[:sourcePreviewLength]) + "..."
		}
		sources = append(sources, models.Source{
			ID:       i + 1,
			Content:  content,
			Metadata: p.Metadata,
		})
	}
	return sources
}
