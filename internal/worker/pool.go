// Package worker runs the asynchronous half of the system: a pool of queue
// consumers driving the reconciliation engine, and a periodic scanner that
// turns overdue pending records into expiry jobs.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"walletbridge/internal/core/ports"
	"walletbridge/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// dequeueTimeout bounds each blocking pop so consumers notice shutdown.
const dequeueTimeout = time.Second

// Pool consumes jobs from the queue and dispatches them to the reconciler.
// Lock contention is the one retryable outcome: the job goes back on the
// queue with a linear backoff until its attempt budget runs out.
type Pool struct {
	queue        ports.JobQueue
	reconciler   ports.Reconciler
	recordRepo   ports.RecordRepository
	count        int
	maxAttempts  int
	retryBackoff time.Duration
	jobTimeout   time.Duration
	log          zerolog.Logger

	wg sync.WaitGroup
}

// NewPool creates a new Pool. jobTimeout bounds each job's processing,
// including the adapter network calls made by the reconciler; zero disables
// the bound.
func NewPool(
	queue ports.JobQueue,
	reconciler ports.Reconciler,
	recordRepo ports.RecordRepository,
	count int,
	maxAttempts int,
	retryBackoff time.Duration,
	jobTimeout time.Duration,
	log zerolog.Logger,
) *Pool {
	return &Pool{
		queue:        queue,
		reconciler:   reconciler,
		recordRepo:   recordRepo,
		count:        count,
		maxAttempts:  maxAttempts,
		retryBackoff: retryBackoff,
		jobTimeout:   jobTimeout,
		log:          log,
	}
}

// Start launches the consumers. They run until ctx is canceled.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.consume(ctx, id)
		}(i)
	}
	p.log.Info().Int("consumers", p.count).Msg("worker pool started")
}

// Wait blocks until every consumer has drained and exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) consume(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := p.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Error().Err(err).Int("consumer", id).Msg("dequeue failed")
			continue
		}
		if job == nil {
			continue
		}
		p.handle(ctx, job)
	}
}

func (p *Pool) handle(ctx context.Context, job *ports.Job) {
	err := p.dispatch(ctx, job)
	if err == nil {
		return
	}

	if apperror.IsLockContention(err) {
		p.retry(ctx, job, err)
		return
	}

	// Terminal failure: retrying would reproduce it.
	p.log.Error().Err(err).
		Str("kind", string(job.Kind)).
		Int("attempt", job.Attempt).
		Msg("job failed")
}

func (p *Pool) dispatch(ctx context.Context, job *ports.Job) error {
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}

	switch job.Kind {
	case ports.JobReconcile:
		if job.Transaction == nil {
			return fmt.Errorf("reconcile job without transaction")
		}
		return p.reconciler.ProcessTransaction(ctx, job.Transaction)
	case ports.JobExpire:
		if job.RecordID == uuid.Nil {
			return fmt.Errorf("expire job without record id")
		}
		return p.reconciler.CancelOverdue(ctx, job.RecordID)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

// retry requeues a contended job with linear backoff, or flags the record
// once the attempt budget is spent.
func (p *Pool) retry(ctx context.Context, job *ports.Job, cause error) {
	next := job.Attempt + 1
	if next >= p.maxAttempts {
		p.exhaust(ctx, job, cause)
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(p.retryBackoff * time.Duration(next)):
	}

	requeued := *job
	requeued.Attempt = next
	if err := p.queue.Enqueue(ctx, requeued); err != nil {
		p.log.Error().Err(err).Str("kind", string(job.Kind)).Msg("requeue failed")
		return
	}
	p.log.Debug().
		Str("kind", string(job.Kind)).
		Int("attempt", next).
		Msg("contended job requeued")
}

func (p *Pool) exhaust(ctx context.Context, job *ports.Job, cause error) {
	p.log.Error().Err(cause).
		Str("kind", string(job.Kind)).
		Int("attempts", p.maxAttempts).
		Msg("retry budget exhausted")

	if job.Kind != ports.JobExpire || job.RecordID == uuid.Nil {
		return
	}
	reason := fmt.Sprintf("expiry retries exhausted after %d attempts: %v", p.maxAttempts, cause)
	if err := p.recordRepo.Flag(ctx, job.RecordID, reason); err != nil {
		p.log.Error().Err(err).Str("record_id", job.RecordID.String()).Msg("flagging record failed")
	}
}
