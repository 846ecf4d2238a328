package models

// TitanEmbedRequest is the InvokeModel body for amazon.titan-embed-text models.
type TitanEmbedRequest struct {
	InputText string `json:"inputText"`
}

// TitanEmbedResponse carries the embedding vector back from Titan.
type TitanEmbedResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}
