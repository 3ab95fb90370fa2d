// Package handler provides HTTP handlers for the document Q&A service.
package handler

import (
	stderrors "errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-docqa/internal/pkg/rag/docutil"
	"github.com/kart-io/sentinel-docqa/internal/rag/biz"
	"github.com/kart-io/sentinel-docqa/pkg/errors"
	"github.com/kart-io/sentinel-docqa/pkg/utils/response"
)

// RAGHandler handles document Q&A HTTP requests.
type RAGHandler struct {
	service   biz.Service
	uploadDir string
	version   string
}

// NewRAGHandler creates a new RAGHandler.
func NewRAGHandler(service biz.Service, uploadDir, version string) *RAGHandler {
	return &RAGHandler{
		service:   service,
		uploadDir: uploadDir,
		version:   version,
	}
}

// DocumentItem is one entry of the document list.
type DocumentItem struct {
	Name string `json:"name"`
}

// FileResponse carries the extracted text of an uploaded file.
type FileResponse struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// UploadResult is the per-file outcome of an upload.
type UploadResult struct {
	File   string            `json:"file"`
	Report *biz.IngestReport `json:"report,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// PromptRequest represents a question about one document.
type PromptRequest struct {
	UserQuery string `json:"user_query" binding:"required"`
	DocName   string `json:"doc_name" binding:"required"`
}

// PromptResponse carries the generated answer.
type PromptResponse struct {
	Answer string `json:"answer"`
}

// IngestRequest ingests raw text under a document name.
type IngestRequest struct {
	DocName string `json:"doc_name" binding:"required"`
	Text    string `json:"text"`
}

// ListDocuments lists ingested documents.
func (h *RAGHandler) ListDocuments(c *gin.Context) {
	names, err := h.service.Documents(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}

	items := make([]DocumentItem, 0, len(names))
	for _, name := range names {
		items = append(items, DocumentItem{Name: name})
	}
	response.OK(c, items)
}

// GetFile returns the text of an uploaded file.
func (h *RAGHandler) GetFile(c *gin.Context) {
	name := c.Param("fileName")
	text, err := h.service.DocumentText(c.Request.Context(), name)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, FileResponse{Name: name, Text: text})
}

// Upload saves the uploaded pdf files and ingests each of them.
// Files without a .pdf name are ignored.
func (h *RAGHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			response.Fail(c, errors.ErrRequestTooLarge)
			return
		}
		response.Fail(c, errors.ErrNoDocuments.WithCause(err))
		return
	}

	// 表单字段名不限，按字段名排序保证处理顺序稳定
	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var pdfs []*multipart.FileHeader
	for _, field := range fields {
		for _, fh := range form.File[field] {
			if !docutil.IsPDF(filepath.Base(fh.Filename)) {
				logger.Debugw("non-pdf upload ignored", "file", fh.Filename)
				continue
			}
			pdfs = append(pdfs, fh)
		}
	}
	if len(pdfs) == 0 {
		response.Fail(c, errors.ErrNoDocuments)
		return
	}

	if err := docutil.EnsureDir(h.uploadDir); err != nil {
		response.Fail(c, errors.ErrInternal.WithCause(err))
		return
	}

	results := make([]UploadResult, 0, len(pdfs))
	failed := 0
	for _, fh := range pdfs {
		result := UploadResult{File: filepath.Base(fh.Filename)}
		report, err := h.saveAndIngest(c, fh)
		if err != nil {
			failed++
			result.Error = err.Error()
			logger.Warnw("upload ingestion failed", "file", result.File, "error", err)
		} else {
			result.Report = report
		}
		results = append(results, result)
	}

	if failed > 0 {
		response.Write(c, response.ErrorWithData(
			errors.ErrInternal.WithMessagef("%d of %d uploads failed", failed, len(results)), results))
		return
	}
	response.OK(c, results)
}

func (h *RAGHandler) saveAndIngest(c *gin.Context, fh *multipart.FileHeader) (*biz.IngestReport, error) {
	dst, err := docutil.SafeJoin(h.uploadDir, fh.Filename)
	if err != nil {
		return nil, errors.ErrBadIdentifier.WithCause(err)
	}
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return nil, errors.ErrInternal.WithCause(err)
	}
	return h.service.IngestFile(c.Request.Context(), dst)
}

// Prompt answers a question about one document.
func (h *RAGHandler) Prompt(c *gin.Context) {
	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, errors.ErrInvalidParam.WithMessage(err.Error()))
		return
	}

	answer, err := h.service.Answer(c.Request.Context(), req.UserQuery, req.DocName)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, PromptResponse{Answer: answer})
}

// IngestText ingests raw text. doc_name follows the same naming rule as uploads.
func (h *RAGHandler) IngestText(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, errors.ErrInvalidParam.WithMessage(err.Error()))
		return
	}

	documentID, err := biz.DocumentID(req.DocName)
	if err != nil {
		response.Fail(c, err)
		return
	}

	report, err := h.service.Ingest(c.Request.Context(), documentID, req.Text)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, report)
}

// Healthz reports liveness.
func (h *RAGHandler) Healthz(c *gin.Context) {
	response.OK(c, gin.H{"status": "ok", "version": h.version})
}
