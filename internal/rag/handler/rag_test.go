package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-docqa/internal/rag/biz"
	"github.com/kart-io/sentinel-docqa/internal/rag/handler"
	"github.com/kart-io/sentinel-docqa/internal/rag/router"
	"github.com/kart-io/sentinel-docqa/pkg/errors"
	"github.com/kart-io/sentinel-docqa/pkg/infra/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	mu        sync.Mutex
	docs      []string
	texts     map[string]string
	answer    string
	answerErr error
	failFiles map[string]bool

	ingested  []string
	files     []string
	questions []string
}

var _ biz.Service = (*fakeService)(nil)

func (f *fakeService) Ingest(_ context.Context, documentID, rawText string) (*biz.IngestReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingested = append(f.ingested, documentID)
	n := len(rawText)
	return &biz.IngestReport{DocumentID: documentID, Chunks: n, Stored: n}, nil
}

func (f *fakeService) IngestFile(_ context.Context, path string) (*biz.IngestReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = append(f.files, path)
	if f.failFiles[filepath.Base(path)] {
		return nil, errors.ErrExtraction.WithMessage("broken pdf")
	}
	id, err := biz.DocumentID(path)
	if err != nil {
		return nil, err
	}
	return &biz.IngestReport{DocumentID: id, Chunks: 1, Stored: 1}, nil
}

func (f *fakeService) Answer(_ context.Context, question, documentName string) (string, error) {
	f.questions = append(f.questions, question+"@"+documentName)
	if f.answerErr != nil {
		return "", f.answerErr
	}
	return f.answer, nil
}

func (f *fakeService) Documents(context.Context) ([]string, error) {
	return f.docs, nil
}

func (f *fakeService) DocumentText(_ context.Context, filename string) (string, error) {
	text, ok := f.texts[filename]
	if !ok {
		return "", errors.ErrDocumentNotFound
	}
	return text, nil
}

type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
}

func newEngine(t *testing.T, svc *fakeService, limit int64) (*gin.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	e := gin.New()
	e.Use(middleware.RequestID(nil), middleware.BodyLimit(limit))
	router.Register(e, handler.NewRAGHandler(svc, dir, "v0.0.1"), "", nil)
	return e, dir
}

func do(t *testing.T, e *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestListDocuments(t *testing.T) {
	e, _ := newEngine(t, &fakeService{docs: []string{"alpha", "beta"}}, 1<<20)

	w, env := do(t, e, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"name":"alpha"},{"name":"beta"}]`, string(env.Data))
	assert.NotEmpty(t, env.RequestID)
}

func TestGetFile(t *testing.T) {
	e, _ := newEngine(t, &fakeService{texts: map[string]string{"a.pdf": "hello"}}, 1<<20)

	w, env := do(t, e, httptest.NewRequest(http.MethodGet, "/file/a.pdf", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"a.pdf","text":"hello"}`, string(env.Data))

	w, env = do(t, e, httptest.NewRequest(http.MethodGet, "/file/missing.pdf", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.ErrDocumentNotFound.Code, env.Code)
}

func TestPrompt(t *testing.T) {
	svc := &fakeService{answer: "42"}
	e, _ := newEngine(t, svc, 1<<20)

	w, env := do(t, e, jsonRequest("/prompt", `{"user_query":"meaning?","doc_name":"guide.pdf"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"answer":"42"}`, string(env.Data))
	assert.Equal(t, []string{"meaning?@guide.pdf"}, svc.questions)
}

func TestPromptValidation(t *testing.T) {
	e, _ := newEngine(t, &fakeService{}, 1<<20)

	w, env := do(t, e, jsonRequest("/prompt", `{"user_query":"meaning?"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrInvalidParam.Code, env.Code)

	w, _ = do(t, e, jsonRequest("/prompt", `not json`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPromptServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"bad identifier", errors.ErrBadIdentifier, http.StatusBadRequest},
		{"store read", errors.ErrStoreRead, http.StatusInternalServerError},
		{"transport", errors.ErrTransport, http.StatusBadGateway},
		{"embedding", errors.ErrEmbeddingFailed, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newEngine(t, &fakeService{answerErr: tt.err}, 1<<20)
			w, env := do(t, e, jsonRequest("/prompt", `{"user_query":"q","doc_name":"d.pdf"}`))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, errors.GetCode(tt.err), env.Code)
		})
	}
}

func TestUpload(t *testing.T) {
	svc := &fakeService{}
	e, dir := newEngine(t, svc, 1<<20)

	w, env := do(t, e, multipartRequest(t, map[string]string{
		"a.pdf":     "%PDF-a",
		"notes.txt": "ignored",
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var results []handler.UploadResult
	require.NoError(t, json.Unmarshal(env.Data, &results))
	require.Len(t, results, 1)
	assert.Equal(t, "a.pdf", results[0].File)
	assert.Equal(t, "a", results[0].Report.DocumentID)

	saved, err := os.ReadFile(filepath.Join(dir, "a.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-a", string(saved))
	assert.NoFileExists(t, filepath.Join(dir, "notes.txt"))
}

func TestUploadPartialFailure(t *testing.T) {
	svc := &fakeService{failFiles: map[string]bool{"b.pdf": true}}
	e, _ := newEngine(t, svc, 1<<20)

	w, env := do(t, e, multipartRequest(t, map[string]string{"a.pdf": "x", "b.pdf": "y"}))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var results []handler.UploadResult
	require.NoError(t, json.Unmarshal(env.Data, &results))
	require.Len(t, results, 2)

	byFile := map[string]handler.UploadResult{}
	for _, r := range results {
		byFile[r.File] = r
	}
	assert.NotNil(t, byFile["a.pdf"].Report)
	assert.NotEmpty(t, byFile["b.pdf"].Error)
}

func TestUploadWithoutPDF(t *testing.T) {
	e, _ := newEngine(t, &fakeService{}, 1<<20)

	w, env := do(t, e, multipartRequest(t, map[string]string{"notes.txt": "x"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrNoDocuments.Code, env.Code)

	w, env = do(t, e, jsonRequest("/upload", `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrNoDocuments.Code, env.Code)
}

func TestUploadTooLarge(t *testing.T) {
	e, _ := newEngine(t, &fakeService{}, 64)

	w, env := do(t, e, multipartRequest(t, map[string]string{"big.pdf": strings.Repeat("x", 4096)}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, errors.ErrRequestTooLarge.Code, env.Code)
}

func TestIngestText(t *testing.T) {
	svc := &fakeService{}
	e, _ := newEngine(t, svc, 1<<20)

	w, env := do(t, e, jsonRequest("/documents", `{"doc_name":"notes.pdf","text":"hello world"}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"document_id":"notes","chunks":11,"stored":11,"dropped":0}`, string(env.Data))
	assert.Equal(t, []string{"notes"}, svc.ingested)

	w, env = do(t, e, jsonRequest("/documents", `{"doc_name":"notes.txt","text":"x"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrBadIdentifier.Code, env.Code)
}

func TestHealthz(t *testing.T) {
	e, _ := newEngine(t, &fakeService{}, 1<<20)

	w, env := do(t, e, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"v0.0.1"}`, string(env.Data))
}
