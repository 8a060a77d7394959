package worker

import (
	"context"
	"time"

	"walletbridge/internal/core/ports"

	"github.com/rs/zerolog"
)

// overdueBatchSize caps how many records one scan enqueues. Anything beyond
// the cap is picked up by the next tick.
const overdueBatchSize = 200

// OverdueScanner periodically finds pending records past their deadline and
// enqueues one expiry job per record. Cancellation itself happens in the
// worker pool under the record lease, so a scan racing a live completion is
// harmless.
type OverdueScanner struct {
	recordRepo ports.RecordRepository
	queue      ports.JobQueue
	interval   time.Duration
	log        zerolog.Logger
}

// NewOverdueScanner creates a new OverdueScanner.
func NewOverdueScanner(
	recordRepo ports.RecordRepository,
	queue ports.JobQueue,
	interval time.Duration,
	log zerolog.Logger,
) *OverdueScanner {
	return &OverdueScanner{
		recordRepo: recordRepo,
		queue:      queue,
		interval:   interval,
		log:        log,
	}
}

// Run scans until ctx is canceled.
func (s *OverdueScanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("overdue scanner started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

func (s *OverdueScanner) scan(ctx context.Context) {
	records, err := s.recordRepo.ListOverdue(ctx, time.Now().UTC(), overdueBatchSize)
	if err != nil {
		s.log.Error().Err(err).Msg("overdue scan failed")
		return
	}
	if len(records) == 0 {
		return
	}

	var enqueued int
	for i := range records {
		job := ports.Job{Kind: ports.JobExpire, RecordID: records[i].ID}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.log.Error().Err(err).Str("record_id", records[i].ID.String()).Msg("enqueue expiry failed")
			continue
		}
		enqueued++
	}
	s.log.Info().Int("enqueued", enqueued).Msg("overdue records queued for expiry")
}
