package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XadielF/hipotrack/common/logger"
	"github.com/XadielF/hipotrack/internal/feed"
)

type ReclaimerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
}

// Reclaimer periodically reclaims stale pending feed entries. This
// handles the crash recovery scenario where a worker dies after
// XREADGROUP but before XACK.
type Reclaimer struct {
	client   *redis.Client
	cfg      ReclaimerConfig
	consumer *feed.GroupConsumer
	worker   *Worker

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewReclaimer(client *redis.Client, cfg ReclaimerConfig, consumer *feed.GroupConsumer, worker *Worker) *Reclaimer {
	return &Reclaimer{
		client:    client,
		cfg:       cfg,
		consumer:  consumer,
		worker:    worker,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run starts the reclaimer loop. Blocks until Stop() is called.
func (r *Reclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "hipotrack.worker.reclaimer",
	})

	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"min_idle", r.cfg.MinIdle,
		"stream", r.cfg.Stream,
		"group", r.cfg.Group)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			if err := r.reclaimOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaim cycle error", "error", err)
			}
		}
	}
}

// Stop signals the reclaimer to stop gracefully.
func (r *Reclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

func (r *Reclaimer) reclaimOnce(ctx context.Context) error {
	pending, err := r.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: r.cfg.Stream,
		Group:  r.cfg.Group,
		Idle:   r.cfg.MinIdle,
		Start:  "-",
		End:    "+",
		Count:  r.cfg.BatchSize,
	}).Result()
	if err != nil {
		return fmt.Errorf("xpending: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "found stale pending entries", "count", len(pending))

	for _, p := range pending {
		if err := r.reclaimEntry(ctx, p); err != nil {
			slog.ErrorContext(ctx, "failed to reclaim entry",
				"error", err,
				"entry_id", p.ID,
				"original_consumer", p.Consumer,
				"idle_time", p.Idle)
			// Continue with other entries
		}
	}

	return nil
}

// reclaimEntry claims and processes a single stale entry.
func (r *Reclaimer) reclaimEntry(ctx context.Context, pending redis.XPendingExt) error {
	entryID := pending.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		FeedEventID: &entryID,
	})

	slog.InfoContext(ctx, "reclaiming stale entry",
		"original_consumer", pending.Consumer,
		"idle_time", pending.Idle,
		"retry_count", pending.RetryCount)

	claimed, err := r.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   r.cfg.Stream,
		Group:    r.cfg.Group,
		Consumer: r.cfg.Consumer,
		MinIdle:  r.cfg.MinIdle,
		Messages: []string{pending.ID},
	}).Result()
	if err != nil {
		return fmt.Errorf("xclaim: %w", err)
	}

	if len(claimed) == 0 {
		slog.DebugContext(ctx, "entry already reclaimed by another worker")
		return nil
	}

	raw := claimed[0]

	entry, err := feed.ParseEntry(raw)
	if err != nil {
		slog.ErrorContext(ctx, "failed to decode reclaimed entry, acknowledging to prevent loop",
			"error", err)
		_ = r.consumer.Ack(ctx, feed.Entry{ID: raw.ID, Raw: raw})
		return nil
	}

	start := time.Now()
	if err := r.worker.ProcessEntry(ctx, entry); err != nil {
		return fmt.Errorf("processing reclaimed entry: %w", err)
	}

	if err := r.consumer.Ack(ctx, entry); err != nil {
		slog.WarnContext(ctx, "failed to ACK reclaimed entry", "error", err)
	}

	slog.InfoContext(ctx, "reclaimed entry processed",
		"duration_ms", time.Since(start).Milliseconds())

	return nil
}
