package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mmrhub/internal/store"
)

// ListReports pages the archived reports, optionally scoped to a project.
// GET /api/v1/reports?projectId=&limit=&offset=
func (h *Handler) ListReports(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report archive disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, err := h.archive.ListReports(c.Request.Context(), c.Query("projectId"), limit, offset)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list reports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": records, "count": len(records)})
}

// GetReport returns one archived report document.
// GET /api/v1/reports/:id
func (h *Handler) GetReport(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report archive disabled"})
		return
	}
	report, err := h.archive.GetReport(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrReportNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, report)
}
