package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Handler func(ctx context.Context, event Event) error

type SubscriberConfig struct {
	Group    string
	Consumer string
	Stream   string
	Handler  Handler

	// StartID is where a newly created group begins: "$" (default) for new
	// entries only, "0" to replay the whole stream.
	StartID       string
	BatchSize     int64
	BlockDuration time.Duration
	RetryDelay    time.Duration
}

// Subscriber consumes one stream through a consumer group. Entries whose
// handler fails stay pending and are not acknowledged.
type Subscriber struct {
	client *redis.Client
	cfg    SubscriberConfig
}

func NewSubscriber(client *redis.Client, cfg SubscriberConfig) *Subscriber {
	if cfg.StartID == "" {
		cfg.StartID = "$"
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 10
	}
	if cfg.BlockDuration == 0 {
		cfg.BlockDuration = 5 * time.Second
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	return &Subscriber{client: client, cfg: cfg}
}

// Start consumes the stream until ctx is cancelled and then returns ctx.Err().
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.cfg.Stream, s.cfg.Group, s.cfg.StartID).Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group %s: %w", s.cfg.Group, err)
	}

	log := slog.With("stream", s.cfg.Stream, "group", s.cfg.Group, "consumer", s.cfg.Consumer)
	log.Info("Subscriber started")

	for {
		err := s.readBatch(ctx, log)
		if ctx.Err() != nil {
			log.Info("Subscriber stopping")
			return ctx.Err()
		}
		if err == nil {
			continue
		}

		log.Warn("Stream read failed", "error", err)
		select {
		case <-ctx.Done():
		case <-time.After(s.cfg.RetryDelay):
		}
	}
}

func (s *Subscriber) readBatch(ctx context.Context, log *slog.Logger) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.cfg.Group,
		Consumer: s.cfg.Consumer,
		Streams:  []string{s.cfg.Stream, ">"},
		Count:    s.cfg.BatchSize,
		Block:    s.cfg.BlockDuration,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			if err := s.handle(ctx, message); err != nil {
				log.Warn("Event handler failed", "id", message.ID, "error", err)
				continue
			}
			if err := s.client.XAck(ctx, s.cfg.Stream, s.cfg.Group, message.ID).Err(); err != nil {
				log.Warn("Ack failed", "id", message.ID, "error", err)
			}
		}
	}
	return nil
}

func (s *Subscriber) handle(ctx context.Context, message redis.XMessage) error {
	payload, ok := message.Values["event"].(string)
	if !ok {
		return errors.New("message has no event field")
	}
	event, err := Decode(payload)
	if err != nil {
		return err
	}
	return s.cfg.Handler(ctx, event)
}

// Decode parses a stream payload back into an Event.
func Decode(payload string) (Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}

// DecodeData re-marshals event.Data into out, which must be a pointer.
func DecodeData(event Event, out any) error {
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s data: %w", event.Type, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s data: %w", event.Type, err)
	}
	return nil
}
