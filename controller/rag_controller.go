package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cloudymate/cloudymate/models"
	"github.com/cloudymate/cloudymate/services"
)

// Ingestor runs the upload admission pipeline on a saved file.
type Ingestor interface {
	ProcessFile(ctx context.Context, path, sourceName string) (int, error)
}

// Answerer runs the RAG pipeline for a query.
type Answerer interface {
	Answer(ctx context.Context, query string, k int) (*models.QueryResponse, error)
	AnswerWithHistory(ctx context.Context, query string, history []models.ChatMessage, k int) (*models.ChatResponse, error)
}

// ChunkCounter reports how many chunks are indexed.
type ChunkCounter interface {
	Count(ctx context.Context) (int, error)
}

// RAGController handles the HTTP requests for the document Q&A API. It
// depends on the service layer to perform the actual business logic.
type RAGController struct {
	ingestor  Ingestor
	answerer  Answerer
	counter   ChunkCounter
	uploadDir string
}

// NewRAGController is called from main to inject the service dependencies.
func NewRAGController(ingestor Ingestor, answerer Answerer, counter ChunkCounter, uploadDir string) *RAGController {
	return &RAGController{
		ingestor:  ingestor,
		answerer:  answerer,
		counter:   counter,
		uploadDir: uploadDir,
	}
}

// UploadPDF is the handler for POST /upload_pdf. It saves the multipart file,
// runs the ingestion pipeline, and maps pipeline errors onto HTTP statuses.
func (c *RAGController) UploadPDF(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload: " + err.Error()})
		return
	}

	filename := filepath.Base(file.Filename)
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files are supported"})
		return
	}

	dst := filepath.Join(c.uploadDir, filename)
	if err := ctx.SaveUploadedFile(file, dst); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save uploaded file: " + err.Error()})
		return
	}

	numChunks, err := c.ingestor.ProcessFile(ctx.Request.Context(), dst, filename)
	if err != nil {
		c.respondUploadError(ctx, dst, err)
		return
	}

	ctx.JSON(http.StatusOK, models.UploadResponse{
		Filename:  filename,
		NumChunks: numChunks,
		Message:   fmt.Sprintf("Successfully processed and stored %d chunks from %s", numChunks, filename),
	})
}

func (c *RAGController) respondUploadError(ctx *gin.Context, dst string, err error) {
	var (
		validationErr *services.ValidationError
		extractionErr *services.ExtractionError
		emptyErr      *services.EmptyResultError
	)
	switch {
	case errors.As(err, &validationErr):
		// Rejected uploads are not kept around.
		if rmErr := os.Remove(dst); rmErr != nil {
			log.Printf("WARN: could not remove rejected upload %s: %v", dst, rmErr)
		}
		ctx.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Reason})
	case errors.As(err, &extractionErr), errors.As(err, &emptyErr):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process PDF: " + err.Error()})
	}
}

// Ask is the handler for POST /ask.
func (c *RAGController) Ask(ctx *gin.Context) {
	var req models.QueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query cannot be empty"})
		return
	}

	response, err := c.answerer.Answer(ctx.Request.Context(), req.Query, req.K)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process query: " + err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// Chat is the handler for POST /chat, the history-carrying variant of /ask.
func (c *RAGController) Chat(ctx *gin.Context) {
	var req models.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Query cannot be empty"})
		return
	}

	response, err := c.answerer.AnswerWithHistory(ctx.Request.Context(), req.Query, req.History, req.K)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process query: " + err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// GetDocuments is the handler for GET /documents.
func (c *RAGController) GetDocuments(ctx *gin.Context) {
	count, err := c.counter.Count(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count indexed documents: " + err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, models.DocumentsResponse{NumChunks: count})
}
