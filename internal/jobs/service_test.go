package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"mmrhub/internal/model"
)

func writeTempFile(t *testing.T, name string, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func newTestService(t *testing.T) (*Service, Tracker, Queue) {
	t.Helper()
	tracker := NewMemoryTracker()
	queue := NewMemoryQueue()
	t.Cleanup(func() { _ = queue.Close() })
	svc := NewService(tracker, queue, DefaultLimits(), zerolog.Nop())
	return svc, tracker, queue
}

func request(t *testing.T, user, name string, size int) ProcessRequest {
	t.Helper()
	return ProcessRequest{
		UserID:   user,
		FileName: name,
		FilePath: writeTempFile(t, name, size),
		FileSize: int64(size),
	}
}

func TestProcessFile_CreatesPendingJob(t *testing.T) {
	t.Parallel()

	svc, tracker, queue := newTestService(t)
	ctx := context.Background()

	jobID, err := svc.ProcessFile(ctx, request(t, "u1", "report.xlsx", 1024))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	job, err := tracker.Get(ctx, jobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != model.JobPending {
		t.Fatalf("status want=pending got=%s", job.Status)
	}
	if job.MaxRetries != 3 {
		t.Fatalf("max retries want=3 got=%d", job.MaxRetries)
	}

	task, err := queue.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if task.JobID != jobID {
		t.Fatalf("queued task mismatch: %s vs %s", task.JobID, jobID)
	}
}

func TestProcessFile_RejectsMissingFile(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.ProcessFile(context.Background(), ProcessRequest{
		UserID:   "u1",
		FileName: "ghost.xlsx",
		FilePath: "/nonexistent/ghost.xlsx",
	})
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("want ErrFileNotFound got %v", err)
	}
}

func TestProcessFile_RejectsOversize(t *testing.T) {
	t.Parallel()

	tracker := NewMemoryTracker()
	queue := NewMemoryQueue()
	defer queue.Close()
	limits := DefaultLimits()
	limits.MaxFileSize = 1024
	svc := NewService(tracker, queue, limits, zerolog.Nop())

	req := request(t, "u1", "big.xlsx", 2048)
	_, err := svc.ProcessFile(context.Background(), req)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("want ErrFileTooLarge got %v", err)
	}
}

func TestProcessFile_RejectsExtension(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.ProcessFile(context.Background(), request(t, "u1", "report.pdf", 100))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("want ErrUnsupportedType got %v", err)
	}
}

func TestProcessFile_RejectedUploadRemoved(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	req := request(t, "u1", "report.pdf", 100)
	if _, err := svc.ProcessFile(context.Background(), req); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("want ErrUnsupportedType got %v", err)
	}
	if _, err := os.Stat(req.FilePath); !os.IsNotExist(err) {
		t.Fatalf("rejected upload must be removed, stat: %v", err)
	}
}

func TestProcessBatch_RejectsOversizeBatchBeforeAnyJob(t *testing.T) {
	t.Parallel()

	svc, tracker, _ := newTestService(t)
	ctx := context.Background()

	requests := make([]ProcessRequest, 11)
	for i := range requests {
		requests[i] = request(t, "u1", fmt.Sprintf("r%d.xlsx", i), 100)
	}

	if _, err := svc.ProcessBatch(ctx, requests); !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("want ErrBatchTooLarge got %v", err)
	}
	jobs, _ := tracker.ListByUser(ctx, "u1", 100, 0)
	if len(jobs) != 0 {
		t.Fatalf("rejected batch must not create jobs, got %d", len(jobs))
	}
	for _, req := range requests {
		if _, err := os.Stat(req.FilePath); !os.IsNotExist(err) {
			t.Fatalf("rejected batch upload %s must be removed, stat: %v", req.FileName, err)
		}
	}
}

func TestProcessBatch_SkipsInvalidFiles(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	requests := []ProcessRequest{
		request(t, "u1", "ok.xlsx", 100),
		request(t, "u1", "bad.pdf", 100),
	}
	jobIDs, err := svc.ProcessBatch(ctx, requests)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(jobIDs) != 1 {
		t.Fatalf("want 1 accepted job, got %d", len(jobIDs))
	}
	if _, err := os.Stat(requests[0].FilePath); err != nil {
		t.Fatalf("accepted upload must remain: %v", err)
	}
	if _, err := os.Stat(requests[1].FilePath); !os.IsNotExist(err) {
		t.Fatalf("skipped upload must be removed, stat: %v", err)
	}
}

func TestGetJob_OwnershipDistinction(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	jobID, err := svc.ProcessFile(ctx, request(t, "u1", "report.xlsx", 100))
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if _, err := svc.GetJob(ctx, "u2", jobID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("foreign job want ErrNotOwner got %v", err)
	}
	if _, err := svc.GetJob(ctx, "u1", "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("missing job want ErrJobNotFound got %v", err)
	}
	if _, err := svc.GetJob(ctx, "u1", jobID); err != nil {
		t.Fatalf("owner access: %v", err)
	}
}

func TestCancel_PendingJob(t *testing.T) {
	t.Parallel()

	svc, tracker, _ := newTestService(t)
	ctx := context.Background()

	jobID, _ := svc.ProcessFile(ctx, request(t, "u1", "report.xlsx", 100))
	if err := svc.Cancel(ctx, "u1", jobID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	job, _ := tracker.Get(ctx, jobID)
	if job.Status != model.JobCancelled {
		t.Fatalf("status want=cancelled got=%s", job.Status)
	}
	if job.CompletedAt == nil {
		t.Fatalf("cancelled job must carry a completion time")
	}
}

func TestCancel_TerminalJobRejected(t *testing.T) {
	t.Parallel()

	svc, tracker, _ := newTestService(t)
	ctx := context.Background()

	jobID, _ := svc.ProcessFile(ctx, request(t, "u1", "report.xlsx", 100))
	_ = tracker.UpdateStatus(ctx, jobID, model.JobCompleted, "")

	if err := svc.Cancel(ctx, "u1", jobID); !errors.Is(err, ErrTerminalState) {
		t.Fatalf("want ErrTerminalState got %v", err)
	}
}

func TestListJobsByStatus(t *testing.T) {
	t.Parallel()

	svc, tracker, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.ProcessFile(ctx, request(t, "u1", "a.xlsx", 100))
	b, _ := svc.ProcessFile(ctx, request(t, "u1", "b.xlsx", 100))
	_ = tracker.UpdateStatus(ctx, b, model.JobCancelled, "")

	pending, err := svc.ListJobsByStatus(ctx, "u1", model.JobPending, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pending) != 1 || pending[0].JobID != a {
		t.Fatalf("unexpected pending list: %v", ids(pending))
	}
}

func TestListJobsByStatus_Paged(t *testing.T) {
	t.Parallel()

	svc, tracker, _ := newTestService(t)
	ctx := context.Background()

	// Interleave cancelled jobs between pending ones so paging has to count
	// matches, not raw records.
	var pending []string
	for i := 0; i < 6; i++ {
		id, err := svc.ProcessFile(ctx, request(t, "u1", fmt.Sprintf("p%d.xlsx", i), 100))
		if err != nil {
			t.Fatalf("process: %v", err)
		}
		if i%2 == 0 {
			_ = tracker.UpdateStatus(ctx, id, model.JobCancelled, "")
			continue
		}
		pending = append(pending, id)
	}

	page, err := svc.ListJobsByStatus(ctx, "u1", model.JobPending, 2, 0)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(page) != 2 || page[0].JobID != pending[2] || page[1].JobID != pending[1] {
		t.Fatalf("unexpected first page: %v", ids(page))
	}

	page, err = svc.ListJobsByStatus(ctx, "u1", model.JobPending, 2, 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(page) != 1 || page[0].JobID != pending[0] {
		t.Fatalf("unexpected second page: %v", ids(page))
	}
}

func TestDelete_RemovesJob(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	jobID, _ := svc.ProcessFile(ctx, request(t, "u1", "report.xlsx", 100))
	if err := svc.Delete(ctx, "u2", jobID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("foreign delete want ErrNotOwner got %v", err)
	}
	if err := svc.Delete(ctx, "u1", jobID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetJob(ctx, "u1", jobID); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("deleted job must be gone, got %v", err)
	}
}
