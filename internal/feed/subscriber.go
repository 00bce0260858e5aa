package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XadielF/hipotrack/common/logger"
	"github.com/XadielF/hipotrack/internal/messaging"
)

const subscribeBlock = 5 * time.Second

// Subscriber tails the insert stream for a live client. It reads plain
// XREAD from "$" on purpose: a client only cares about inserts that
// happen while it is connected, history comes from the regular list
// endpoints. Durable consumption is the group consumer's job.
type Subscriber struct {
	client *redis.Client
	stream string
}

func NewSubscriber(client *redis.Client, stream string) *Subscriber {
	return &Subscriber{
		client: client,
		stream: stream,
	}
}

// Subscribe starts tailing the stream and invokes handler for each
// decoded insert. The returned stop function cancels the tail and waits
// for the read loop to exit.
func (s *Subscriber) Subscribe(ctx context.Context, handler messaging.Handler) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "hipotrack.feed.subscriber",
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.tail(ctx, handler)
	}()

	stop := func() {
		cancel()
		wg.Wait()
	}
	return stop, nil
}

func (s *Subscriber) tail(ctx context.Context, handler messaging.Handler) {
	lastID := "$"
	for {
		if ctx.Err() != nil {
			return
		}

		streams, err := s.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{s.stream, lastID},
			Block:   subscribeBlock,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			slog.ErrorContext(ctx, "feed read failed", "error", err, "stream", s.stream)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, raw := range stream.Messages {
				lastID = raw.ID
				ctx := logger.WithLogFields(ctx, logger.LogFields{
					FeedEventID: logger.Ptr(raw.ID),
				})

				event, decodeErr := decodeEvent(raw.Values)
				if decodeErr != nil {
					slog.ErrorContext(ctx, "skipping undecodable feed entry", "error", decodeErr, "stream", s.stream)
					continue
				}
				handler(ctx, event)
			}
		}
	}
}
