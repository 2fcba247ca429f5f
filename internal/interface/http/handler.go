package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/paper-summarizer/internal/domain/catalog"
	"github.com/yanqian/paper-summarizer/internal/domain/paper"
	"github.com/yanqian/paper-summarizer/internal/domain/summarizer"
	"github.com/yanqian/paper-summarizer/internal/infra/inference"
	apperrors "github.com/yanqian/paper-summarizer/pkg/errors"
)

// catalogStatus reports index outages as a bad gateway.
var catalogStatus = map[string]int{
	apperrors.CodeFetchFailed: http.StatusBadGateway,
}

// ModelStatus describes the loaded model for the health endpoint.
type ModelStatus interface {
	Status() inference.Status
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	summarizerSvc summarizer.Service
	paperSvc      paper.Service
	catalogSvc    catalog.Service
	model         ModelStatus
	logger        *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(summarySvc summarizer.Service, paperSvc paper.Service, catalogSvc catalog.Service, model ModelStatus, logger *slog.Logger) *Handler {
	return &Handler{
		summarizerSvc: summarySvc,
		paperSvc:      paperSvc,
		catalogSvc:    catalogSvc,
		model:         model,
		logger:        logger.With("component", "http.handler"),
	}
}

// Health reports liveness and the model in use.
func (h *Handler) Health(c *gin.Context) {
	status := h.model.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Server is running",
		"variant": status.Variant,
		"model":   status.Model,
		"device":  status.Device,
		"dtype":   status.DType,
	})
}

// Summarize handles free text summarization.
func (h *Handler) Summarize(c *gin.Context) {
	var req summarizer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, msgInvalidBody, err))
		return
	}

	resp, err := h.summarizerSvc.Summarize(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err, nil))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SummarizePaper fetches a paper PDF and summarizes its first pages.
func (h *Handler) SummarizePaper(c *gin.Context) {
	resp, err := h.paperSvc.Summarize(c.Request.Context(), c.Param("paper_id"))
	if err != nil {
		abortWithError(c, fromAppError(err, nil))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// StreamPDF returns the raw paper PDF for inline viewing.
func (h *Handler) StreamPDF(c *gin.Context) {
	doc, err := h.paperSvc.FetchPDF(c.Request.Context(), c.Param("paper_id"))
	if err != nil {
		abortWithError(c, fromAppError(err, nil))
		return
	}

	c.Header("Content-Disposition", "inline; filename="+doc.Filename)
	c.Header("Content-Length", strconv.Itoa(len(doc.Content)))
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}

// Search queries the paper index.
func (h *Handler) Search(c *gin.Context) {
	var req catalog.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, msgInvalidBody, err))
		return
	}

	resp, err := h.catalogSvc.Search(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromAppError(err, catalogStatus))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Lookup returns the metadata of a single paper.
func (h *Handler) Lookup(c *gin.Context) {
	entry, err := h.catalogSvc.Lookup(c.Request.Context(), c.Param("paper_id"))
	if err != nil {
		abortWithError(c, fromAppError(err, catalogStatus))
		return
	}

	c.JSON(http.StatusOK, entry)
}
