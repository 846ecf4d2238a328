package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/google/uuid"

	"github.com/cloudymate/cloudymate/models"
)

// VectorIndex is the opaque similarity-index capability the document store
// builds on: upsert documents, search the nearest k, count what is stored.
type VectorIndex interface {
	Upsert(ctx context.Context, docs []models.IndexedDocument) ([]string, error)
	Search(ctx context.Context, query string, k int) ([]models.RetrievedPassage, error)
	Count(ctx context.Context) (int, error)
}

// ChromaIndex implements VectorIndex on a Chroma collection, embedding texts
// through the injected Embedder. The collection handle is created on first
// use and shared by all callers. Only a successful initialization is cached;
// a failed attempt leaves the handle unset so the next call retries instead
// of pinning one transient outage for the life of the process.
type ChromaIndex struct {
	client         chromago.Client
	collectionName string
	embedder       Embedder

	mu  sync.Mutex
	col chromago.Collection
}

// NewChromaIndex wires a Chroma client and an embedder into an index. No
// network call happens until the first Upsert, Search, or Count.
func NewChromaIndex(client chromago.Client, collectionName string, embedder Embedder) *ChromaIndex {
	return &ChromaIndex{
		client:         client,
		collectionName: collectionName,
		embedder:       embedder,
	}
}

func (x *ChromaIndex) collection(ctx context.Context) (chromago.Collection, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.col != nil {
		return x.col, nil
	}

	log.Printf("SERVICE: Getting or creating collection '%s'...", x.collectionName)
	col, err := x.client.GetOrCreateCollection(
		ctx,
		x.collectionName,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "CloudyMate document collection"),
				chromago.NewStringAttribute("created_by", "cloudymate"),
			),
		),
	)
	if err != nil {
		return nil, &BackendError{Op: "chroma collection initialization", Err: err}
	}
	x.col = col
	return col, nil
}

// Upsert embeds every document and adds the whole slice to the collection in
// one call, returning the assigned ids.
func (x *ChromaIndex) Upsert(ctx context.Context, docs []models.IndexedDocument) ([]string, error) {
	col, err := x.collection(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]chromago.DocumentID, 0, len(docs))
	texts := make([]string, 0, len(docs))
	embs := make([]embeddings.Embedding, 0, len(docs))
	metas := make([]chromago.DocumentMetadata, 0, len(docs))

	for _, doc := range docs {
		vector, err := x.embedder.Embed(ctx, doc.Text)
		if err != nil {
			return nil, &BackendError{
				Op:  fmt.Sprintf("embedding chunk %d of %s", doc.Metadata.ChunkID, doc.Metadata.Source),
				Err: err,
			}
		}
		ids = append(ids, chromago.DocumentID(fmt.Sprintf("%s-chunk%d", uuid.New().String(), doc.Metadata.ChunkID)))
		texts = append(texts, doc.Text)
		embs = append(embs, embeddings.NewEmbeddingFromFloat32(vector))
		metas = append(metas, chromago.NewDocumentMetadata(
			chromago.NewIntAttribute("chunk_id", int64(doc.Metadata.ChunkID)),
			chromago.NewIntAttribute("chunk_size", int64(doc.Metadata.ChunkSize)),
			chromago.NewStringAttribute("source", doc.Metadata.Source),
		))
	}

	err = col.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(embs...),
		chromago.WithMetadatas(metas...),
	)
	if err != nil {
		return nil, &BackendError{Op: "chroma add", Err: err}
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out, nil
}

// Search embeds the query and returns the k nearest documents in rank order.
func (x *ChromaIndex) Search(ctx context.Context, query string, k int) ([]models.RetrievedPassage, error) {
	col, err := x.collection(ctx)
	if err != nil {
		return nil, err
	}

	vector, err := x.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &BackendError{Op: "embedding query", Err: err}
	}

	results, err := col.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, &BackendError{Op: "chroma query", Err: err}
	}

	var passages []models.RetrievedPassage
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()

	if len(documentGroups) > 0 {
		for i, doc := range documentGroups[0] {
			if doc.ContentString() == "" {
				continue
			}
			var meta chromago.DocumentMetadata
			if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
				meta = metadataGroups[0][i]
			}
			passages = append(passages, models.RetrievedPassage{
				Content:  doc.ContentString(),
				Metadata: metadataToMap(meta),
				Rank:     len(passages) + 1,
			})
		}
	}
	log.Printf("SERVICE: Retrieved %d documents", len(passages))
	return passages, nil
}

// Count reports how many chunks the collection holds.
func (x *ChromaIndex) Count(ctx context.Context) (int, error) {
	col, err := x.collection(ctx)
	if err != nil {
		return 0, err
	}
	count, err := col.Count(ctx)
	if err != nil {
		return 0, &BackendError{Op: "chroma count", Err: err}
	}
	return int(count), nil
}

// metadataToMap converts Chroma's DocumentMetadata into a plain map. The
// struct exposes no accessor for its values, so it round-trips through JSON.
func metadataToMap(meta chromago.DocumentMetadata) map[string]interface{} {
	if meta == nil {
		return map[string]interface{}{}
	}
	jsonBytes, err := json.Marshal(meta)
	if err != nil {
		log.Printf("WARN: could not marshal document metadata: %v", err)
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &m); err != nil {
		log.Printf("WARN: could not unmarshal document metadata: %v", err)
		return map[string]interface{}{}
	}
	return m
}
