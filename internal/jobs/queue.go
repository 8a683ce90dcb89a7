// Package jobs is the orchestration layer around the parse pipeline: a
// priority queue of parse tasks, a tracker holding per-job status with TTL,
// a bounded worker pool draining the queue, and a service facade enforcing
// the ingress rules.
package jobs

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Task is one queued unit of work: parse this one uploaded file.
type Task struct {
	JobID    string `json:"jobId"`
	UserID   string `json:"userId"`
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
	FileSize int64  `json:"fileSize"`
	UploadID string `json:"uploadId"`
}

// Priority maps file size to a dequeue tier. Smaller files go first; the
// tier is monotonic in size.
func Priority(fileSize int64) int {
	const mb = 1 << 20
	switch {
	case fileSize < mb:
		return 1
	case fileSize < 5*mb:
		return 2
	case fileSize < 10*mb:
		return 3
	default:
		return 4
	}
}

// ErrQueueClosed is returned by Dequeue after Close.
var ErrQueueClosed = errors.New("queue closed")

// Queue is a durable priority work queue.
type Queue interface {
	// Enqueue adds one task.
	Enqueue(ctx context.Context, task Task) error
	// EnqueueBatch adds several tasks at once.
	EnqueueBatch(ctx context.Context, tasks []Task) error
	// Dequeue blocks until a task is available, the context is done, or the
	// queue is closed. Lower priority tiers dequeue first, FIFO within a tier.
	Dequeue(ctx context.Context) (Task, error)
	// Close releases the queue; pending Dequeue calls return ErrQueueClosed.
	Close() error
}

// memoryQueue is the in-process Queue used in tests and single-node runs.
type memoryQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []memoryItem
	seq    uint64
	closed bool
}

type memoryItem struct {
	task     Task
	priority int
	seq      uint64
}

// NewMemoryQueue creates an in-process queue.
func NewMemoryQueue() Queue {
	q := &memoryQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *memoryQueue) Enqueue(_ context.Context, task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.seq++
	q.items = append(q.items, memoryItem{task: task, priority: Priority(task.FileSize), seq: q.seq})
	sort.SliceStable(q.items, func(i, j int) bool {
		if q.items[i].priority != q.items[j].priority {
			return q.items[i].priority < q.items[j].priority
		}
		return q.items[i].seq < q.items[j].seq
	})
	q.cond.Signal()
	return nil
}

func (q *memoryQueue) EnqueueBatch(ctx context.Context, tasks []Task) error {
	for _, t := range tasks {
		if err := q.Enqueue(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (q *memoryQueue) Dequeue(ctx context.Context) (Task, error) {
	// Wake the waiter when the context is cancelled.
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			return Task{}, err
		}
		if q.closed {
			return Task{}, ErrQueueClosed
		}
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			return item.task, nil
		}
		q.cond.Wait()
	}
}

func (q *memoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
	return nil
}
