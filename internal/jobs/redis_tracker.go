package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mmrhub/internal/model"
)

const (
	jobKeyPrefix      = "mmr:job:"
	userJobsKeyPrefix = "mmr:user:jobs:"
)

// RedisTracker keeps job records as JSON values with a retention TTL, plus a
// per-user sorted index scored by creation time for newest-first listing.
type RedisTracker struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisTracker creates a Redis-backed tracker.
func NewRedisTracker(client *redis.Client, retention time.Duration) *RedisTracker {
	return &RedisTracker{client: client, retention: retention}
}

func jobKey(jobID string) string { return jobKeyPrefix + jobID }

func userJobsKey(userID string) string { return userJobsKeyPrefix + userID }

func (t *RedisTracker) Create(ctx context.Context, job *model.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	pipe := t.client.TxPipeline()
	pipe.Set(ctx, jobKey(job.JobID), payload, t.retention)
	pipe.ZAdd(ctx, userJobsKey(job.UserID), redis.Z{
		Score:  float64(job.CreatedAt.UnixMilli()),
		Member: job.JobID,
	})
	pipe.Expire(ctx, userJobsKey(job.UserID), t.retention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create job record: %w", err)
	}
	return nil
}

func (t *RedisTracker) Get(ctx context.Context, jobID string) (*model.Job, error) {
	payload, err := t.client.Get(ctx, jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read job record: %w", err)
	}
	var job model.Job
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", jobID, err)
	}
	return &job, nil
}

// maxMutateAttempts bounds optimistic-lock retries under write contention.
const maxMutateAttempts = 5

// mutate is the per-key read-modify-write every update goes through. The
// record is WATCHed so a concurrent writer invalidates the transaction
// instead of losing its update; on conflict the whole read-modify-write
// reruns against the fresh record.
func (t *RedisTracker) mutate(ctx context.Context, jobID string, fn func(*model.Job) error) error {
	key := jobKey(jobID)
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		err := t.client.Watch(ctx, func(tx *redis.Tx) error {
			payload, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrJobNotFound
			}
			if err != nil {
				return fmt.Errorf("failed to read job record: %w", err)
			}
			var job model.Job
			if err := json.Unmarshal(payload, &job); err != nil {
				return fmt.Errorf("failed to unmarshal job %s: %w", jobID, err)
			}
			if err := fn(&job); err != nil {
				return err
			}
			out, err := json.Marshal(&job)
			if err != nil {
				return fmt.Errorf("failed to marshal job: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, out, t.retention)
				return nil
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("job %s: update contention not resolved after %d attempts", jobID, maxMutateAttempts)
}

func (t *RedisTracker) UpdateStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error {
	return t.mutate(ctx, jobID, func(job *model.Job) error {
		return applyStatus(job, status, errMsg)
	})
}

func (t *RedisTracker) UpdateProgress(ctx context.Context, jobID string, current, total int, message string) error {
	return t.mutate(ctx, jobID, func(job *model.Job) error {
		return applyProgress(job, current, total, message)
	})
}

func (t *RedisTracker) SetResult(ctx context.Context, jobID string, result *model.ParseResult) error {
	return t.mutate(ctx, jobID, func(job *model.Job) error {
		return applyResult(job, result)
	})
}

func (t *RedisTracker) IncrementRetry(ctx context.Context, jobID string) error {
	return t.mutate(ctx, jobID, func(job *model.Job) error {
		return applyRetry(job)
	})
}

func (t *RedisTracker) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Job, error) {
	ids, err := t.client.ZRevRange(ctx, userJobsKey(userID), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list user jobs: %w", err)
	}
	jobs := make([]*model.Job, 0, len(ids))
	for _, id := range ids {
		job, err := t.Get(ctx, id)
		if errors.Is(err, ErrJobNotFound) {
			// Record expired but the index entry has not; skip.
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (t *RedisTracker) Delete(ctx context.Context, jobID string) error {
	job, err := t.Get(ctx, jobID)
	if err != nil {
		return err
	}
	pipe := t.client.TxPipeline()
	pipe.Del(ctx, jobKey(jobID))
	pipe.ZRem(ctx, userJobsKey(job.UserID), jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete job record: %w", err)
	}
	return nil
}
