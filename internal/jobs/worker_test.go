package jobs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"mmrhub/internal/model"
	"mmrhub/internal/parser"
)

func summaryWorkbookFile(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	rows := [][]any{
		{"Project Name:", "Highway Construction Project"},
		{"Project Code:", "HC-2024-001"},
		{"Total Budget", "50,000,000"},
		{"Actual Expenditure", "35,000,000"},
		{"Physical Progress (%)", 65},
		{"Financial Progress (%)", 70},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue("Summary", cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "PRJ001_MMR_Mar2024.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func newTestPool(t *testing.T, queue Queue, tracker Tracker, opts PoolOptions) *Pool {
	t.Helper()
	pipeline, err := parser.New(parser.Options{Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("build pipeline: %v", err)
	}
	opts.Logger = zerolog.Nop()
	return NewPool(queue, tracker, pipeline, nil, opts)
}

func waitForStatus(t *testing.T, tracker Tracker, jobID string, want model.JobStatus) *model.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := tracker.Get(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	job, _ := tracker.Get(context.Background(), jobID)
	t.Fatalf("job %s never reached %s, last=%+v", jobID, want, job)
	return nil
}

func TestPool_CompletesSummaryJob(t *testing.T) {
	t.Parallel()

	queue := NewMemoryQueue()
	tracker := NewMemoryTracker()
	pool := newTestPool(t, queue, tracker, PoolOptions{Concurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = pool.Run(ctx) }()

	path := summaryWorkbookFile(t)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat workbook: %v", err)
	}

	job := newJob("j1", "u1")
	if err := tracker.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := queue.Enqueue(ctx, Task{JobID: "j1", UserID: "u1", FilePath: path, FileSize: info.Size()}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	done := waitForStatus(t, tracker, "j1", model.JobCompleted)
	if done.Result == nil || !done.Result.Success {
		t.Fatalf("expected successful result, got %+v", done.Result)
	}
	if done.Progress.Percentage != 100 {
		t.Fatalf("progress want=100 got=%d", done.Progress.Percentage)
	}
	if done.StartedAt == nil || done.CompletedAt == nil {
		t.Fatalf("timestamps missing: %+v", done)
	}
}

func TestPool_UnreadableWorkbookCompletesWithFailedResult(t *testing.T) {
	t.Parallel()

	queue := NewMemoryQueue()
	tracker := NewMemoryTracker()
	pool := newTestPool(t, queue, tracker, PoolOptions{Concurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = pool.Run(ctx) }()

	path := filepath.Join(t.TempDir(), "broken.xlsx")
	if err := os.WriteFile(path, []byte("not a workbook"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_ = tracker.Create(ctx, newJob("j1", "u1"))
	_ = queue.Enqueue(ctx, Task{JobID: "j1", UserID: "u1", FilePath: path})

	done := waitForStatus(t, tracker, "j1", model.JobCompleted)
	if done.Result == nil || done.Result.Success {
		t.Fatalf("expected failed parse result, got %+v", done.Result)
	}
	if done.Result.Confidence != 0 {
		t.Fatalf("failed parse must report zero confidence")
	}
}

func TestPool_TimeoutExhaustsRetriesThenFails(t *testing.T) {
	t.Parallel()

	queue := NewMemoryQueue()
	tracker := NewMemoryTracker()
	pool := newTestPool(t, queue, tracker, PoolOptions{Concurrency: 1, Timeout: time.Nanosecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = pool.Run(ctx) }()

	path := summaryWorkbookFile(t)
	job := newJob("j1", "u1")
	job.MaxRetries = 2
	_ = tracker.Create(ctx, job)
	_ = queue.Enqueue(ctx, Task{JobID: "j1", UserID: "u1", FilePath: path})

	done := waitForStatus(t, tracker, "j1", model.JobFailed)
	if done.RetryCount != 2 {
		t.Fatalf("retry count want=2 got=%d", done.RetryCount)
	}
	if done.Error == "" {
		t.Fatalf("failed job must carry an error message")
	}
}

func TestPool_CancelledJobIsNotProcessed(t *testing.T) {
	t.Parallel()

	queue := NewMemoryQueue()
	tracker := NewMemoryTracker()
	pool := newTestPool(t, queue, tracker, PoolOptions{Concurrency: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := summaryWorkbookFile(t)
	_ = tracker.Create(ctx, newJob("j1", "u1"))
	_ = tracker.UpdateStatus(ctx, "j1", model.JobCancelled, "")
	_ = queue.Enqueue(ctx, Task{JobID: "j1", UserID: "u1", FilePath: path})

	go func() { _ = pool.Run(ctx) }()

	// The worker must skip the claimed task and leave the job cancelled.
	time.Sleep(300 * time.Millisecond)
	job, err := tracker.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != model.JobCancelled {
		t.Fatalf("status want=cancelled got=%s", job.Status)
	}
	if job.Result != nil {
		t.Fatalf("cancelled job must not carry a result")
	}
}
