package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "mmr:queue"
	queueTaskKey   = "mmr:queue:task:"
	dequeuePollGap = 500 * time.Millisecond
)

// RedisQueue is a durable Queue on a Redis sorted set. The score encodes
// priority tier then enqueue time, so smaller files dequeue first and order
// is FIFO within a tier.
type RedisQueue struct {
	client    *redis.Client
	retention time.Duration
	closed    chan struct{}
}

// NewRedisQueue creates a Redis-backed queue. Task payloads expire with the
// same retention as job records.
func NewRedisQueue(client *redis.Client, retention time.Duration) *RedisQueue {
	return &RedisQueue{client: client, retention: retention, closed: make(chan struct{})}
}

func (q *RedisQueue) score(priority int) float64 {
	return float64(priority)*1e12 + float64(time.Now().UnixNano())/1e6
}

// Enqueue stores the task payload and adds its id to the sorted set.
func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}
	pipe := q.client.TxPipeline()
	pipe.Set(ctx, queueTaskKey+task.JobID, payload, q.retention)
	pipe.ZAdd(ctx, queueKey, redis.Z{Score: q.score(Priority(task.FileSize)), Member: task.JobID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// EnqueueBatch adds several tasks in one round trip.
func (q *RedisQueue) EnqueueBatch(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	pipe := q.client.TxPipeline()
	for _, task := range tasks {
		payload, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("failed to marshal task: %w", err)
		}
		pipe.Set(ctx, queueTaskKey+task.JobID, payload, q.retention)
		pipe.ZAdd(ctx, queueKey, redis.Z{Score: q.score(Priority(task.FileSize)), Member: task.JobID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue batch: %w", err)
	}
	return nil
}

// Dequeue pops the lowest-scored task, polling until one appears.
func (q *RedisQueue) Dequeue(ctx context.Context) (Task, error) {
	ticker := time.NewTicker(dequeuePollGap)
	defer ticker.Stop()
	for {
		select {
		case <-q.closed:
			return Task{}, ErrQueueClosed
		case <-ctx.Done():
			return Task{}, ctx.Err()
		default:
		}

		entries, err := q.client.ZPopMin(ctx, queueKey, 1).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return Task{}, fmt.Errorf("failed to pop queue: %w", err)
		}
		if len(entries) > 0 {
			jobID, _ := entries[0].Member.(string)
			payload, err := q.client.Get(ctx, queueTaskKey+jobID).Bytes()
			if err != nil {
				// Payload expired out from under the index entry; skip it.
				continue
			}
			var task Task
			if err := json.Unmarshal(payload, &task); err != nil {
				return Task{}, fmt.Errorf("failed to unmarshal task %s: %w", jobID, err)
			}
			return task, nil
		}

		select {
		case <-q.closed:
			return Task{}, ErrQueueClosed
		case <-ctx.Done():
			return Task{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close stops pending Dequeue calls.
func (q *RedisQueue) Close() error {
	select {
	case <-q.closed:
	default:
		close(q.closed)
	}
	return nil
}
