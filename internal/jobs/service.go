package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mmrhub/internal/model"
)

// Ingress errors. All are raised before any job record exists, so a rejected
// submission never leaves a phantom job behind.
var (
	ErrNotOwner        = errors.New("job belongs to another user")
	ErrFileNotFound    = errors.New("file not found")
	ErrFileTooLarge    = errors.New("file size exceeds maximum")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrBatchTooLarge   = errors.New("batch size exceeds maximum")
)

// Limits bound what the ingress accepts.
type Limits struct {
	MaxFileSize  int64
	AllowedExts  []string
	MaxBatchSize int
	MaxRetries   int
}

// DefaultLimits mirrors the platform's upload policy.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize:  100 << 20,
		AllowedExts:  []string{".xlsx", ".xls"},
		MaxBatchSize: 10,
		MaxRetries:   3,
	}
}

// ProcessRequest is one file submission.
type ProcessRequest struct {
	UserID   string
	FileName string
	FilePath string
	FileSize int64
	UploadID string
}

// Service is the orchestration facade: it owns submission validation, job
// creation, and the owner-scoped query operations.
type Service struct {
	tracker Tracker
	queue   Queue
	limits  Limits
	log     zerolog.Logger
}

// NewService wires the facade with its collaborators.
func NewService(tracker Tracker, queue Queue, limits Limits, log zerolog.Logger) *Service {
	if limits.MaxBatchSize == 0 {
		limits = DefaultLimits()
	}
	return &Service{tracker: tracker, queue: queue, limits: limits, log: log}
}

// discard removes a rejected submission's uploaded file so rejections do
// not accumulate orphans in the uploads directory.
func (s *Service) discard(req ProcessRequest) {
	if req.FilePath == "" {
		return
	}
	if err := os.Remove(req.FilePath); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Str("file", req.FilePath).Err(err).Msg("could not remove rejected upload")
	}
}

// validate applies the fail-fast ingress rules for one file.
func (s *Service) validate(req ProcessRequest) error {
	if _, err := os.Stat(req.FilePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFileNotFound, req.FilePath)
	}
	if req.FileSize > s.limits.MaxFileSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, req.FileSize)
	}
	ext := strings.ToLower(filepath.Ext(req.FileName))
	for _, allowed := range s.limits.AllowedExts {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
}

// ProcessFile validates a submission, creates the tracking record and
// enqueues the parse task. Returns the new job id.
func (s *Service) ProcessFile(ctx context.Context, req ProcessRequest) (string, error) {
	if err := s.validate(req); err != nil {
		s.discard(req)
		return "", err
	}

	jobID := uuid.New().String()
	job := &model.Job{
		JobID:      jobID,
		UserID:     req.UserID,
		FileName:   req.FileName,
		FileSize:   req.FileSize,
		Status:     model.JobPending,
		Progress:   model.JobProgress{Total: 100},
		CreatedAt:  time.Now(),
		MaxRetries: s.limits.MaxRetries,
	}
	if err := s.tracker.Create(ctx, job); err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	task := Task{
		JobID:    jobID,
		UserID:   req.UserID,
		FileName: req.FileName,
		FilePath: req.FilePath,
		FileSize: req.FileSize,
		UploadID: req.UploadID,
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		// Do not leave a pending record that no worker will ever claim.
		_ = s.tracker.Delete(ctx, jobID)
		s.discard(req)
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}

	s.log.Info().Str("job_id", jobID).Str("file", req.FileName).Msg("parse job created")
	return jobID, nil
}

// ProcessBatch submits several files at once. The batch ceiling is enforced
// before any job is created; unreadable files within an accepted batch are
// skipped with a warning rather than failing the rest.
func (s *Service) ProcessBatch(ctx context.Context, requests []ProcessRequest) ([]string, error) {
	if len(requests) > s.limits.MaxBatchSize {
		for _, req := range requests {
			s.discard(req)
		}
		return nil, fmt.Errorf("%w: %d files", ErrBatchTooLarge, len(requests))
	}

	jobIDs := make([]string, 0, len(requests))
	tasks := make([]Task, 0, len(requests))
	for _, req := range requests {
		if err := s.validate(req); err != nil {
			s.log.Warn().Str("file", req.FileName).Err(err).Msg("skipping batch file")
			s.discard(req)
			continue
		}
		jobID := uuid.New().String()
		job := &model.Job{
			JobID:      jobID,
			UserID:     req.UserID,
			FileName:   req.FileName,
			FileSize:   req.FileSize,
			Status:     model.JobPending,
			Progress:   model.JobProgress{Total: 100},
			CreatedAt:  time.Now(),
			MaxRetries: s.limits.MaxRetries,
		}
		if err := s.tracker.Create(ctx, job); err != nil {
			return jobIDs, fmt.Errorf("failed to create job: %w", err)
		}
		jobIDs = append(jobIDs, jobID)
		tasks = append(tasks, Task{
			JobID:    jobID,
			UserID:   req.UserID,
			FileName: req.FileName,
			FilePath: req.FilePath,
			FileSize: req.FileSize,
			UploadID: req.UploadID,
		})
	}

	if len(tasks) > 0 {
		if err := s.queue.EnqueueBatch(ctx, tasks); err != nil {
			return jobIDs, fmt.Errorf("failed to enqueue batch: %w", err)
		}
	}
	return jobIDs, nil
}

// owned fetches a job and enforces ownership, distinguishing "doesn't exist"
// from "exists but isn't yours".
func (s *Service) owned(ctx context.Context, userID, jobID string) (*model.Job, error) {
	job, err := s.tracker.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, ErrNotOwner
	}
	return job, nil
}

// GetJob returns one job owned by the caller.
func (s *Service) GetJob(ctx context.Context, userID, jobID string) (*model.Job, error) {
	return s.owned(ctx, userID, jobID)
}

// ListJobs returns the caller's jobs newest-first.
func (s *Service) ListJobs(ctx context.Context, userID string, limit, offset int) ([]*model.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.tracker.ListByUser(ctx, userID, limit, offset)
}

// ListJobsByStatus pages the caller's jobs filtered by lifecycle state.
// Limit and offset count matching jobs, so a page of completed jobs is
// stable regardless of how many other records sit between them.
func (s *Service) ListJobsByStatus(ctx context.Context, userID string, status model.JobStatus, limit, offset int) ([]*model.Job, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const page = 200
	matched := make([]*model.Job, 0, limit)
	skip := offset
	for from := 0; ; from += page {
		jobs, err := s.tracker.ListByUser(ctx, userID, page, from)
		if err != nil {
			return nil, err
		}
		for _, job := range jobs {
			if job.Status != status {
				continue
			}
			if skip > 0 {
				skip--
				continue
			}
			matched = append(matched, job)
			if len(matched) == limit {
				return matched, nil
			}
		}
		if len(jobs) < page {
			return matched, nil
		}
	}
}

// Cancel marks an owned, non-terminal job cancelled. Cancellation is
// cooperative: an in-flight parse notices at its next checkpoint.
func (s *Service) Cancel(ctx context.Context, userID, jobID string) error {
	if _, err := s.owned(ctx, userID, jobID); err != nil {
		return err
	}
	return s.tracker.UpdateStatus(ctx, jobID, model.JobCancelled, "")
}

// Delete removes an owned job record and its history entirely.
func (s *Service) Delete(ctx context.Context, userID, jobID string) error {
	if _, err := s.owned(ctx, userID, jobID); err != nil {
		return err
	}
	return s.tracker.Delete(ctx, jobID)
}
