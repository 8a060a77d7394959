package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"walletbridge/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// eventEnvelope is the wire format broadcast to subscribers.
type eventEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Publisher implements ports.EventPublisher over Redis pub/sub. Each event is
// broadcast to every channel it names.
type Publisher struct {
	client *goredis.Client
	log    zerolog.Logger
}

// NewPublisher creates a new Redis-backed event publisher.
func NewPublisher(client *goredis.Client, log zerolog.Logger) *Publisher {
	return &Publisher{client: client, log: log}
}

// Publish broadcasts the event. Failing channels are logged and skipped so a
// broken subscriber channel cannot hold back the others.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Name(), err)
	}
	payload, err := json.Marshal(eventEnvelope{Event: event.Name(), Data: data})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	var firstErr error
	for _, channel := range event.Channels() {
		if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
			p.log.Warn().Err(err).Str("event", event.Name()).Str("channel", channel).Msg("event publish failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("publish to %s: %w", channel, err)
			}
		}
	}
	return firstErr
}
