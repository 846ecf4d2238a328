package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudymate/cloudymate/models"
	"github.com/cloudymate/cloudymate/services"
)

type fakeIngestor struct {
	numChunks  int
	err        error
	lastPath   string
	lastSource string
}

func (f *fakeIngestor) ProcessFile(_ context.Context, path, sourceName string) (int, error) {
	f.lastPath = path
	f.lastSource = sourceName
	if f.err != nil {
		return 0, f.err
	}
	return f.numChunks, nil
}

type fakeAnswerer struct {
	resp     *models.QueryResponse
	chatResp *models.ChatResponse
	err      error
	gotQuery string
	gotK     int
}

func (f *fakeAnswerer) Answer(_ context.Context, query string, k int) (*models.QueryResponse, error) {
	f.gotQuery, f.gotK = query, k
	return f.resp, f.err
}

func (f *fakeAnswerer) AnswerWithHistory(_ context.Context, query string, _ []models.ChatMessage, k int) (*models.ChatResponse, error) {
	f.gotQuery, f.gotK = query, k
	return f.chatResp, f.err
}

type fakeCounter struct {
	n   int
	err error
}

func (f *fakeCounter) Count(_ context.Context) (int, error) {
	return f.n, f.err
}

func newTestRouter(t *testing.T, ingestor Ingestor, answerer Answerer, counter ChunkCounter) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	uploadDir := t.TempDir()
	ctrl := NewRAGController(ingestor, answerer, counter, uploadDir)

	router := gin.New()
	router.POST("/upload_pdf", ctrl.UploadPDF)
	router.POST("/ask", ctrl.Ask)
	router.POST("/chat", ctrl.Chat)
	router.GET("/documents", ctrl.GetDocuments)
	return router, uploadDir
}

func multipartPDF(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake content"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadPDFSuccess(t *testing.T) {
	ingestor := &fakeIngestor{numChunks: 12}
	router, uploadDir := newTestRouter(t, ingestor, &fakeAnswerer{}, &fakeCounter{})

	body, contentType := multipartPDF(t, "ec2-guide.pdf")
	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ec2-guide.pdf", resp.Filename)
	assert.Equal(t, 12, resp.NumChunks)
	assert.Contains(t, resp.Message, "12 chunks")

	assert.Equal(t, "ec2-guide.pdf", ingestor.lastSource)
	assert.Equal(t, filepath.Join(uploadDir, "ec2-guide.pdf"), ingestor.lastPath)
	_, err := os.Stat(ingestor.lastPath)
	assert.NoError(t, err, "accepted uploads are kept on disk")
}

func TestUploadPDFRejectsNonPDF(t *testing.T) {
	router, _ := newTestRouter(t, &fakeIngestor{}, &fakeAnswerer{}, &fakeCounter{})

	body, contentType := multipartPDF(t, "notes.txt")
	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Only PDF files are supported")
}

func TestUploadPDFValidationRejectionRemovesFile(t *testing.T) {
	ingestor := &fakeIngestor{err: &services.ValidationError{
		Reason: "This document does not appear to be AWS-related.",
	}}
	router, uploadDir := newTestRouter(t, ingestor, &fakeAnswerer{}, &fakeCounter{})

	body, contentType := multipartPDF(t, "cookbook.pdf")
	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "does not appear to be AWS-related")
	_, err := os.Stat(filepath.Join(uploadDir, "cookbook.pdf"))
	assert.True(t, os.IsNotExist(err), "rejected uploads must be deleted")
}

func TestUploadPDFEmptyChunking(t *testing.T) {
	ingestor := &fakeIngestor{err: &services.EmptyResultError{Op: "text chunking"}}
	router, _ := newTestRouter(t, ingestor, &fakeAnswerer{}, &fakeCounter{})

	body, contentType := multipartPDF(t, "blank.pdf")
	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadPDFBackendFailure(t *testing.T) {
	ingestor := &fakeIngestor{err: &services.BackendError{Op: "chroma add", Err: errors.New("boom")}}
	router, _ := newTestRouter(t, ingestor, &fakeAnswerer{}, &fakeCounter{})

	body, contentType := multipartPDF(t, "guide.pdf")
	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to process PDF")
}

func TestAskEmptyQuery(t *testing.T) {
	router, _ := newTestRouter(t, &fakeIngestor{}, &fakeAnswerer{}, &fakeCounter{})

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query": "   "}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Query cannot be empty")
}

func TestAskSuccess(t *testing.T) {
	answerer := &fakeAnswerer{resp: &models.QueryResponse{
		Answer:     "EC2 is elastic compute.",
		Sources:    []models.Source{{ID: 1, Content: "EC2 overview"}},
		Query:      "what is ec2?",
		NumSources: 1,
	}}
	router, _ := newTestRouter(t, &fakeIngestor{}, answerer, &fakeCounter{})

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query": "what is ec2?", "k": 2}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "what is ec2?", answerer.gotQuery)
	assert.Equal(t, 2, answerer.gotK)

	var resp models.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.NumSources)
	assert.Equal(t, "EC2 is elastic compute.", resp.Answer)
}

func TestAskBackendFailure(t *testing.T) {
	answerer := &fakeAnswerer{err: errors.New("rag pipeline failed: model throttled")}
	router, _ := newTestRouter(t, &fakeIngestor{}, answerer, &fakeCounter{})

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query": "q"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to process query")
}

func TestChatReturnsHistory(t *testing.T) {
	answerer := &fakeAnswerer{chatResp: &models.ChatResponse{
		QueryResponse: models.QueryResponse{Answer: "S3 is object storage.", NumSources: 1},
		ConversationHistory: []models.ChatMessage{
			{Role: "user", Content: "what is s3?"},
			{Role: "assistant", Content: "S3 is object storage."},
		},
	}}
	router, _ := newTestRouter(t, &fakeIngestor{}, answerer, &fakeCounter{})

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"query": "what is s3?"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.ConversationHistory, 2)
}

func TestGetDocuments(t *testing.T) {
	router, _ := newTestRouter(t, &fakeIngestor{}, &fakeAnswerer{}, &fakeCounter{n: 37})

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.DocumentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 37, resp.NumChunks)
}
