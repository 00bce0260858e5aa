package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XadielF/hipotrack/common/logger"
	"github.com/XadielF/hipotrack/internal/messaging"
)

type ConsumerConfig struct {
	Stream    string        // Redis stream name
	Group     string        // Redis consumer group name
	Consumer  string        // Redis consumer name
	BatchSize int64         // Number of entries to read per batch
	Block     time.Duration // How long to block/poll for new entries
}

// Entry is one durable stream entry handed to the worker. Unlike the
// live subscriber, entries stay pending until Ack.
type Entry struct {
	ID      string
	Event   messaging.Event
	TraceID string
	Raw     redis.XMessage
}

type GroupConsumer struct {
	client *redis.Client
	cfg    ConsumerConfig
}

func NewGroupConsumer(client *redis.Client, cfg ConsumerConfig) (*GroupConsumer, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Block <= 0 {
		cfg.Block = 5 * time.Second
	}

	consumer := &GroupConsumer{
		client: client,
		cfg:    cfg,
	}

	if err := consumer.ensureGroup(context.Background()); err != nil { //nolint:contextcheck
		return nil, err
	}

	return consumer, nil
}

func (c *GroupConsumer) ensureGroup(ctx context.Context) error {
	// Consumer groups are just readers, entries live in the stream itself.
	// Starting from "0" instead of "$" means inserts published while the
	// worker was down still get indexed after a restart.
	if err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err(); err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

func (c *GroupConsumer) Read(ctx context.Context) ([]Entry, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "hipotrack.feed.consumer",
	})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		// > = new entries not yet delivered to anyone in the group.
		Streams: []string{c.cfg.Stream, ">"},
		Count:   c.cfg.BatchSize,
		Block:   c.cfg.Block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	var entries []Entry
	// XReadGroup supports multiple streams, but we only read one so this outer loop only runs once.
	for _, stream := range streams {
		for _, raw := range stream.Messages {
			entry, parseErr := ParseEntry(raw)
			if parseErr != nil {
				slog.ErrorContext(ctx, "failed to decode feed entry",
					"error", parseErr,
					"raw_entry_id", raw.ID,
					"stream", c.cfg.Stream)
				_ = c.Ack(ctx, Entry{ID: raw.ID, Raw: raw})
				continue
			}
			entries = append(entries, entry)
		}
	}

	if len(entries) > 0 {
		slog.DebugContext(ctx, "read entries from stream",
			"count", len(entries),
			"stream", c.cfg.Stream,
			"consumer", c.cfg.Consumer)
	}

	return entries, nil
}

// ParseEntry decodes one raw stream entry into a typed feed entry.
func ParseEntry(raw redis.XMessage) (Entry, error) {
	event, err := decodeEvent(raw.Values)
	if err != nil {
		return Entry{}, err
	}
	traceID, _ := raw.Values[fieldTraceID].(string)
	return Entry{
		ID:      raw.ID,
		Event:   event,
		TraceID: traceID,
		Raw:     raw,
	}, nil
}

func (c *GroupConsumer) Ack(ctx context.Context, entry Entry) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, entry.ID).Err(); err != nil {
		return fmt.Errorf("xack (stream=%s): %w", c.cfg.Stream, err)
	}

	slog.DebugContext(ctx, "feed entry acknowledged", "stream", c.cfg.Stream)
	return nil
}
