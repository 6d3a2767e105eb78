package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultMaxLen caps each stream. Trimming is approximate.
const DefaultMaxLen = 10000

// Publisher appends events to Redis streams under the "event" field.
type Publisher struct {
	client *redis.Client
	maxLen int64
	now    func() time.Time
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, maxLen: DefaultMaxLen, now: time.Now}
}

// WithMaxLen changes the stream cap. Zero disables trimming.
func (p *Publisher) WithMaxLen(n int64) *Publisher {
	p.maxLen = n
	return p
}

func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	payload, err := Encode(Event{Type: eventType, Timestamp: p.now().UTC(), Data: data})
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{"event": payload},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", eventType, stream, err)
	}
	return nil
}

// Encode is the inverse of Decode.
func Encode(event Event) (string, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}
	return string(raw), nil
}

// NopPublisher drops every event. Used when event streaming is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
