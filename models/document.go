package models

// Chunk is a contiguous, boundary-trimmed segment of a document's text,
// sized for embedding and retrieval. Index is the 0-based emission order
// within the source document; CharLength counts runes of the trimmed text.
type Chunk struct {
	Text       string `json:"text"`
	Index      int    `json:"index"`
	CharLength int    `json:"char_length"`
}

// ChunkMetadata is the fixed metadata schema attached to every indexed
// document. Extra carries open extension fields without widening the
// known columns into an untyped mapping.
type ChunkMetadata struct {
	ChunkID   int               `json:"chunk_id"`
	ChunkSize int               `json:"chunk_size"`
	Source    string            `json:"source"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// IndexedDocument is a chunk prepared for vector-store ingestion. Its
// identity is the opaque id assigned by the store at upsert time.
type IndexedDocument struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// RetrievedPassage is one similarity-search hit, produced per query and
// never persisted. Rank is 1-based in retrieval order.
type RetrievedPassage struct {
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Rank     int                    `json:"rank"`
}

// Source attributes part of an answer to a retrieved passage.
type Source struct {
	ID       int                    `json:"id"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ValidationVerdict is the content gate's decision for one upload.
type ValidationVerdict struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason"`
}

// ChatMessage is one turn of a caller-held conversation transcript.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
