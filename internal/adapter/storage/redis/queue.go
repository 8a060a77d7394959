package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"walletbridge/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

// Queue implements ports.JobQueue on a Redis list. Producers LPUSH, workers
// BRPOP, so delivery is at-least-once and FIFO per queue.
type Queue struct {
	client *goredis.Client
	key    string
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *goredis.Client) *Queue {
	return &Queue{
		client: client,
		key:    "jobs:reconcile",
	}
}

// Enqueue appends a job to the queue.
func (q *Queue) Enqueue(ctx context.Context, job ports.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("redis enqueue: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next job. Returns (nil, nil) when no
// job arrived within the window.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*ports.Job, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis dequeue: %w", err)
	}
	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("redis dequeue: unexpected reply of %d elements", len(res))
	}

	var job ports.Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}
