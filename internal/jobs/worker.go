package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"mmrhub/internal/model"
	"mmrhub/internal/parser"
)

// errCancelledByUser aborts an in-flight parse when the owner cancelled the
// job between checkpoints.
var errCancelledByUser = errors.New("job cancelled by user")

// Archive persists successfully parsed reports. Optional for the pool.
type Archive interface {
	SaveReport(ctx context.Context, report *model.Report) error
}

// PoolOptions bound one worker pool.
type PoolOptions struct {
	Concurrency int
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// Pool drains the parse queue with a bounded set of workers.
type Pool struct {
	queue    Queue
	tracker  Tracker
	pipeline *parser.Pipeline
	archive  Archive
	opts     PoolOptions
	log      zerolog.Logger
}

// NewPool wires a worker pool. archive may be nil.
func NewPool(queue Queue, tracker Tracker, pipeline *parser.Pipeline, archive Archive, opts PoolOptions) *Pool {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	return &Pool{
		queue:    queue,
		tracker:  tracker,
		pipeline: pipeline,
		archive:  archive,
		opts:     opts,
		log:      opts.Logger,
	}
}

// Run blocks draining the queue until ctx is cancelled or the queue closes.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.opts.Concurrency; i++ {
		worker := i
		g.Go(func() error {
			log := p.log.With().Int("worker", worker).Logger()
			for {
				task, err := p.queue.Dequeue(ctx)
				if err != nil {
					if errors.Is(err, ErrQueueClosed) || errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				p.process(ctx, log, task)
			}
		})
	}
	return g.Wait()
}

// process runs one claimed task end to end.
func (p *Pool) process(ctx context.Context, log zerolog.Logger, task Task) {
	job, err := p.tracker.Get(ctx, task.JobID)
	if err != nil {
		log.Warn().Str("job_id", task.JobID).Err(err).Msg("skipping task without job record")
		return
	}
	if err := p.tracker.UpdateStatus(ctx, task.JobID, model.JobProcessing, ""); err != nil {
		// Cancelled or otherwise finished while queued.
		log.Info().Str("job_id", task.JobID).Err(err).Msg("skipping claimed task")
		return
	}
	_ = p.tracker.UpdateProgress(ctx, task.JobID, 10, 100, "processing started")

	parseCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	hooks := parser.Hooks{
		Progress: func(current, total int, message string) {
			if total <= 0 {
				return
			}
			// Parsing spans the 20..90 band of the overall job progress.
			pct := 20 + current*70/total
			_ = p.tracker.UpdateProgress(ctx, task.JobID, pct, 100, message)
		},
		Checkpoint: func(cctx context.Context) error {
			current, err := p.tracker.Get(cctx, task.JobID)
			if err != nil {
				return nil
			}
			if current.Status == model.JobCancelled {
				return errCancelledByUser
			}
			return nil
		},
	}

	result, err := p.pipeline.ParseFile(parseCtx, task.FilePath, hooks)
	switch {
	case errors.Is(err, errCancelledByUser):
		log.Info().Str("job_id", task.JobID).Msg("parse abandoned after cancellation")
		return
	case errors.Is(err, context.DeadlineExceeded):
		p.fail(ctx, log, task, job, "job timed out")
		return
	case errors.Is(err, context.Canceled):
		// Pool shutdown; leave the job pending-shaped for the next run.
		return
	case err != nil:
		p.fail(ctx, log, task, job, err.Error())
		return
	}

	_ = p.tracker.UpdateProgress(ctx, task.JobID, 95, 100, "saving result")
	if err := p.tracker.SetResult(ctx, task.JobID, result); err != nil {
		// A cancellation that landed after the last checkpoint still wins:
		// the tracker rejects results for terminal records.
		if errors.Is(err, ErrTerminalState) {
			log.Info().Str("job_id", task.JobID).Msg("discarding result of cancelled job")
			return
		}
		log.Error().Str("job_id", task.JobID).Err(err).Msg("failed to store result")
	}
	_ = p.tracker.UpdateProgress(ctx, task.JobID, 100, 100, "completed")
	if err := p.tracker.UpdateStatus(ctx, task.JobID, model.JobCompleted, ""); err != nil {
		log.Warn().Str("job_id", task.JobID).Err(err).Msg("could not mark job completed")
		return
	}

	if result.Success && result.Report != nil && p.archive != nil {
		if err := p.archive.SaveReport(ctx, result.Report); err != nil {
			log.Error().Str("job_id", task.JobID).Err(err).Msg("failed to archive report")
		}
	}

	log.Info().
		Str("job_id", task.JobID).
		Bool("success", result.Success).
		Int("confidence", result.Confidence).
		Msg("job finished")
}

// fail either re-enqueues the task for another attempt or marks the job
// failed once retries are exhausted.
func (p *Pool) fail(ctx context.Context, log zerolog.Logger, task Task, job *model.Job, msg string) {
	if job.RetryCount < job.MaxRetries {
		if err := p.tracker.IncrementRetry(ctx, task.JobID); err != nil {
			log.Warn().Str("job_id", task.JobID).Err(err).Msg("could not record retry")
			return
		}
		if err := p.queue.Enqueue(ctx, task); err != nil {
			log.Error().Str("job_id", task.JobID).Err(err).Msg("re-enqueue failed")
			_ = p.tracker.UpdateStatus(ctx, task.JobID, model.JobFailed, msg)
			return
		}
		log.Warn().
			Str("job_id", task.JobID).
			Int("attempt", job.RetryCount+1).
			Str("reason", msg).
			Msg("retrying job")
		return
	}
	_ = p.tracker.UpdateStatus(ctx, task.JobID, model.JobFailed, msg)
	log.Error().Str("job_id", task.JobID).Str("reason", msg).Msg("job failed")
}
