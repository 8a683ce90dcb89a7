package v1

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"mmrhub/internal/jobs"
	"mmrhub/internal/model"
)

// ProcessResponse is returned when a file has been accepted for parsing.
type ProcessResponse struct {
	JobID   string `json:"jobId"`
	Message string `json:"message"`
}

// BatchResponse is returned for an accepted batch submission.
type BatchResponse struct {
	JobIDs  []string `json:"jobIds"`
	Message string   `json:"message"`
}

// ProcessReport accepts one workbook upload and queues it for parsing.
// POST /api/v1/reports/process
func (h *Handler) ProcessReport(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}

	req, err := h.saveUpload(c, uid, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}

	jobID, err := h.svc.ProcessFile(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, ProcessResponse{
		JobID:   jobID,
		Message: "file queued for processing",
	})
}

// ProcessBatch accepts several workbooks in one multipart request.
// POST /api/v1/reports/process/batch
func (h *Handler) ProcessBatch(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	requests := make([]jobs.ProcessRequest, 0, len(files))
	for _, file := range files {
		req, err := h.saveUpload(c, uid, file)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
			return
		}
		requests = append(requests, req)
	}

	jobIDs, err := h.svc.ProcessBatch(c.Request.Context(), requests)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, BatchResponse{
		JobIDs:  jobIDs,
		Message: fmt.Sprintf("%d files queued for processing", len(jobIDs)),
	})
}

// GetJob returns one of the caller's jobs.
// GET /api/v1/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	job, err := h.svc.GetJob(c.Request.Context(), uid, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// ListJobs pages the caller's jobs newest-first, optionally by status.
// GET /api/v1/jobs?limit=&offset=&status=
func (h *Handler) ListJobs(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	var (
		list []*model.Job
		err  error
	)
	if status := c.Query("status"); status != "" {
		list, err = h.svc.ListJobsByStatus(c.Request.Context(), uid, model.JobStatus(status), limit, offset)
	} else {
		list, err = h.svc.ListJobs(c.Request.Context(), uid, limit, offset)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": list, "count": len(list)})
}

// CancelJob cancels a pending or in-flight job.
// POST /api/v1/jobs/:id/cancel
func (h *Handler) CancelJob(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), uid, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "job cancelled"})
}

// DeleteJob removes a job record entirely.
// DELETE /api/v1/jobs/:id
func (h *Handler) DeleteJob(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), uid, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "job deleted"})
}

// saveUpload writes one multipart file into the uploads directory under a
// collision-free name.
func (h *Handler) saveUpload(c *gin.Context, uid string, file *multipart.FileHeader) (jobs.ProcessRequest, error) {
	uploadID := uuid.New().String()
	dest := filepath.Join(h.uploadsDir, fmt.Sprintf("%d_%s_%s", time.Now().Unix(), uploadID, filepath.Base(file.Filename)))
	if err := c.SaveUploadedFile(file, dest); err != nil {
		return jobs.ProcessRequest{}, err
	}
	return jobs.ProcessRequest{
		UserID:   uid,
		FileName: file.Filename,
		FilePath: dest,
		FileSize: file.Size,
		UploadID: uploadID,
	}, nil
}
