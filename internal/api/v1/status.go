package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// StatusResponse is the service health report.
type StatusResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	ArchiveReady  bool   `json:"archiveReady"`
}

// GetStatus reports service health.
// GET /api/v1/status
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, StatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		ArchiveReady:  h.archive != nil,
	})
}
