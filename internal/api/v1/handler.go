// Package v1 exposes the report processing HTTP API.
package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"mmrhub/internal/jobs"
	"mmrhub/internal/store"
)

// Handler is the V1 API handler.
type Handler struct {
	svc        *jobs.Service
	archive    *store.Store
	uploadsDir string
	log        zerolog.Logger
}

// NewHandler creates the V1 API handler. archive may be nil when the report
// store is disabled.
func NewHandler(svc *jobs.Service, archive *store.Store, uploadsDir string, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, archive: archive, uploadsDir: uploadsDir, log: log}
}

// RegisterRoutes registers the V1 routes onto the group.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/status", h.GetStatus)

	router.POST("/reports/process", h.ProcessReport)
	router.POST("/reports/process/batch", h.ProcessBatch)

	router.GET("/jobs", h.ListJobs)
	router.GET("/jobs/:id", h.GetJob)
	router.POST("/jobs/:id/cancel", h.CancelJob)
	router.DELETE("/jobs/:id", h.DeleteJob)

	router.GET("/reports", h.ListReports)
	router.GET("/reports/:id", h.GetReport)
}

// userID extracts the caller's identity header, writing a 401 when absent.
func userID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
		return "", false
	}
	return id, true
}

// writeError maps service errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
	case errors.Is(err, jobs.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "job belongs to another user"})
	case errors.Is(err, jobs.ErrTerminalState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, jobs.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
	case errors.Is(err, jobs.ErrUnsupportedType),
		errors.Is(err, jobs.ErrBatchTooLarge),
		errors.Is(err, jobs.ErrFileNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
