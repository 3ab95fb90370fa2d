// Package router provides document Q&A service routing.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-docqa/internal/rag/handler"
)

// Register registers the document Q&A routes on the engine.
// metricsPath and metricsHandler may be empty/nil to skip the scrape endpoint.
func Register(engine *gin.Engine, h *handler.RAGHandler, metricsPath string, metricsHandler http.Handler) {
	engine.GET("/", h.ListDocuments)
	engine.GET("/file/:fileName", h.GetFile)
	engine.POST("/upload", h.Upload)
	engine.POST("/prompt", h.Prompt)
	engine.POST("/documents", h.IngestText)
	engine.GET("/healthz", h.Healthz)

	if metricsPath != "" && metricsHandler != nil {
		engine.GET(metricsPath, gin.WrapH(metricsHandler))
	}

	logger.Infow("HTTP routes registered", "routes", len(engine.Routes()))
}
