package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"github.com/XadielF/hipotrack/internal/model"
)

// Publisher fans newly persisted rows out to the insert stream. Every
// connected client and the indexer worker read from the same stream.
type Publisher interface {
	MessageInserted(ctx context.Context, msg model.Message) error
	AttachmentInserted(ctx context.Context, att model.Attachment) error
	Close() error
}

type redisPublisher struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisPublisher(client *redis.Client, stream string, logger *slog.Logger) Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisPublisher{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisPublisher) MessageInserted(ctx context.Context, msg model.Message) error {
	if err := p.publish(ctx, KindMessage, msg); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "published message insert", "message_id", msg.ID, "conversation_id", msg.ConversationID)
	return nil
}

func (p *redisPublisher) AttachmentInserted(ctx context.Context, att model.Attachment) error {
	if err := p.publish(ctx, KindAttachment, att); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "published attachment insert", "attachment_id", att.ID, "message_id", att.MessageID)
	return nil
}

func (p *redisPublisher) publish(ctx context.Context, kind Kind, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", kind, err)
	}

	fields := map[string]any{
		fieldKind:    string(kind),
		fieldPayload: string(body),
	}

	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		fields[fieldTraceID] = sc.TraceID().String()
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("publishing %s insert: %w", kind, err)
	}
	return nil
}

func (p *redisPublisher) Close() error {
	return p.client.Close()
}
