package models

// UploadResponse is returned by POST /upload_pdf on success.
type UploadResponse struct {
	Filename  string `json:"filename"`
	NumChunks int    `json:"num_chunks"`
	Message   string `json:"message"`
}

// QueryResponse is the structured result of one RAG query.
type QueryResponse struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Query      string   `json:"query"`
	NumSources int      `json:"num_sources"`
}

// ChatResponse is a QueryResponse plus the updated conversation transcript.
type ChatResponse struct {
	QueryResponse
	ConversationHistory []ChatMessage `json:"conversation_history"`
}

// DocumentsResponse is returned by GET /documents.
type DocumentsResponse struct {
	NumChunks int `json:"num_chunks"`
}
