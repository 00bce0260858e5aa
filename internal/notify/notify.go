// Package notify publishes notification events for downstream delivery
// channels (email digests, mobile push). Consumers live outside this
// service and bind their own queues to the topic exchange.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"github.com/XadielF/hipotrack/internal/model"
)

const (
	keyMessageCreated    = "conversation.message.created"
	keyAttachmentCreated = "conversation.attachment.created"
)

// MessageCreated is the payload published when a message row lands.
// RecipientIDs excludes the sender; delivery channels fan out per user.
type MessageCreated struct {
	MessageID      int64   `json:"message_id"`
	ConversationID int64   `json:"conversation_id"`
	SenderID       int64   `json:"sender_id"`
	SenderRole     string  `json:"sender_role"`
	Topic          *string `json:"topic,omitempty"`
	Preview        string  `json:"preview"`
	RecipientIDs   []int64 `json:"recipient_ids"`
	CreatedAt      int64   `json:"created_at"`
}

type AttachmentCreated struct {
	AttachmentID int64   `json:"attachment_id"`
	MessageID    int64   `json:"message_id"`
	Name         string  `json:"name"`
	URL          *string `json:"url,omitempty"`
}

type Notifier interface {
	MessageCreated(ctx context.Context, event MessageCreated) error
	AttachmentCreated(ctx context.Context, event AttachmentCreated) error
	Close() error
}

type rmqNotifier struct {
	conn     *amqp091.Connection
	exchange string
	log      *slog.Logger
}

func New(url, exchange string, logger *slog.Logger) (Notifier, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dialing amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(
		exchange, "topic", true, false, false, false, nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
	}

	return &rmqNotifier{
		conn:     conn,
		exchange: exchange,
		log:      logger,
	}, nil
}

func (n *rmqNotifier) MessageCreated(ctx context.Context, event MessageCreated) error {
	return n.publish(ctx, keyMessageCreated, event)
}

func (n *rmqNotifier) AttachmentCreated(ctx context.Context, event AttachmentCreated) error {
	return n.publish(ctx, keyAttachmentCreated, event)
}

func (n *rmqNotifier) publish(ctx context.Context, key string, payload any) error {
	ch, err := n.conn.Channel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", key, err)
	}

	err = ch.PublishWithContext(
		ctx, n.exchange, key, false, false,
		amqp091.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp091.Persistent,
			MessageId:     uuid.NewString(),
			CorrelationId: uuid.NewString(),
			Timestamp:     time.Now(),
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing %s: %w", key, err)
	}

	n.log.InfoContext(ctx, "published notification", slog.String("key", key), slog.String("exchange", n.exchange))
	return nil
}

func (n *rmqNotifier) Close() error {
	return n.conn.Close()
}

// Preview trims message content to a short, single line suitable for a
// push notification body.
func Preview(content string) string {
	const max = 120
	for i, r := range content {
		if r == '\n' {
			content = content[:i]
			break
		}
	}
	runes := []rune(content)
	if len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return content
}

// BuildMessageCreated maps a persisted message plus its conversation
// roster to a notification payload.
func BuildMessageCreated(msg model.Message, roster []model.Participant) MessageCreated {
	recipients := make([]int64, 0, len(roster))
	for _, p := range roster {
		if p.UserID != msg.Sender.UserID {
			recipients = append(recipients, p.UserID)
		}
	}
	return MessageCreated{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.Sender.UserID,
		SenderRole:     msg.Sender.Role,
		Topic:          msg.Topic,
		Preview:        Preview(msg.Content),
		RecipientIDs:   recipients,
		CreatedAt:      msg.CreatedAt.Unix(),
	}
}
