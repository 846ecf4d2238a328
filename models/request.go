package models

// QueryRequest is the body of POST /ask. K defaults to 4 when omitted.
type QueryRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// ChatRequest is the body of POST /chat. History is the caller-held
// transcript of prior turns; the server appends to it but does not read it.
type ChatRequest struct {
	Query   string        `json:"query"`
	History []ChatMessage `json:"history"`
	K       int           `json:"k"`
}
