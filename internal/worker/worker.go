// Package worker consumes the durable insert feed and fans each row out
// to the search index and the notification exchange. It runs as its own
// process so indexing lag never slows a send.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/XadielF/hipotrack/common/logger"
	"github.com/XadielF/hipotrack/internal/feed"
	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/metrics"
	"github.com/XadielF/hipotrack/internal/model"
	"github.com/XadielF/hipotrack/internal/notify"
	"github.com/XadielF/hipotrack/internal/search"
	"github.com/XadielF/hipotrack/internal/store"
)

type Worker struct {
	consumer *feed.GroupConsumer
	stores   *store.Stores
	index    search.Index    // nil when search is not configured
	notifier notify.Notifier // nil when notifications are not configured

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer *feed.GroupConsumer, stores *store.Stores, index search.Index, notifier notify.Notifier) *Worker {
	return &Worker{
		consumer:  consumer,
		stores:    stores,
		index:     index,
		notifier:  notifier,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	entries, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, entry := range entries {
		entryCtx := logger.WithLogFields(ctx, logger.LogFields{
			FeedEventID: logger.Ptr(entry.ID),
			Component:   "hipotrack.worker",
		})

		if err := w.processEntrySafe(entryCtx, entry); err != nil {
			slog.ErrorContext(entryCtx, "entry processing failed", "error", err, "entry_id", entry.ID)
			metrics.FeedEntriesIndexed.WithLabelValues("error").Inc()
			// Leave the entry pending so the group redelivers it.
			continue
		}

		metrics.FeedEntriesIndexed.WithLabelValues("ok").Inc()
		if err := w.consumer.Ack(entryCtx, entry); err != nil {
			// Redelivery after a missed ACK is safe: indexing and
			// notification publishes are idempotent per row id.
			slog.WarnContext(entryCtx, "failed to ACK entry", "error", err, "entry_id", entry.ID)
		}
	}

	return nil
}

func (w *Worker) processEntrySafe(ctx context.Context, entry feed.Entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in entry processing", "panic", r, "entry_id", entry.ID)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessEntry(ctx, entry)
}

func (w *Worker) ProcessEntry(ctx context.Context, entry feed.Entry) error {
	// Link back to the trace of the request that published the entry.
	sc := logger.StartSpanFromTraceID(ctx, entry.TraceID, "worker.process_entry",
		trace.WithSpanKind(trace.SpanKindConsumer))
	defer sc.End()
	ctx = sc.Context()

	var err error
	switch entry.Event.Kind {
	case messaging.EventMessageInserted:
		err = w.handleMessage(ctx, *entry.Event.Message)
	case messaging.EventAttachmentInserted:
		err = w.handleAttachment(ctx, *entry.Event.Attachment)
	default:
		err = fmt.Errorf("unknown event kind %q", entry.Event.Kind)
	}
	sc.RecordError(err)
	return err
}

func (w *Worker) handleMessage(ctx context.Context, msg model.Message) error {
	if w.index != nil {
		if err := w.index.IndexMessage(ctx, msg); err != nil {
			return fmt.Errorf("indexing message %d: %w", msg.ID, err)
		}
	}

	if w.notifier != nil {
		conv, err := w.stores.Conversations().GetByID(ctx, msg.ConversationID, msg.Sender.UserID)
		if err != nil {
			return fmt.Errorf("loading roster for conversation %d: %w", msg.ConversationID, err)
		}

		event := notify.BuildMessageCreated(msg, conv.Participants)
		if err := w.notifier.MessageCreated(ctx, event); err != nil {
			metrics.NotificationsPublished.WithLabelValues("error").Inc()
			return fmt.Errorf("publishing notification for message %d: %w", msg.ID, err)
		}
		metrics.NotificationsPublished.WithLabelValues("ok").Inc()
	}

	return nil
}

func (w *Worker) handleAttachment(ctx context.Context, att model.Attachment) error {
	if w.index != nil {
		// Re-index the owning message so its attachment names become
		// searchable.
		msg, err := w.stores.Messages().GetByID(ctx, att.MessageID)
		if err != nil {
			return fmt.Errorf("loading message %d: %w", att.MessageID, err)
		}
		if err := w.index.IndexMessage(ctx, *msg); err != nil {
			return fmt.Errorf("reindexing message %d: %w", msg.ID, err)
		}
	}

	if w.notifier != nil {
		if err := w.notifier.AttachmentCreated(ctx, notify.AttachmentCreated{
			AttachmentID: att.ID,
			MessageID:    att.MessageID,
			Name:         att.Name,
			URL:          att.URL,
		}); err != nil {
			metrics.NotificationsPublished.WithLabelValues("error").Inc()
			return fmt.Errorf("publishing notification for attachment %d: %w", att.ID, err)
		}
		metrics.NotificationsPublished.WithLabelValues("ok").Inc()
	}

	return nil
}
