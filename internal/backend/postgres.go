// Package backend implements the durable side of the messaging core on
// Postgres, with insert fan-out over the Redis feed.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/XadielF/hipotrack/common/id"
	"github.com/XadielF/hipotrack/internal/feed"
	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/model"
	"github.com/XadielF/hipotrack/internal/store"
)

type Postgres struct {
	stores        *store.Stores
	txr           TxRunner
	publisher     feed.Publisher
	publicBaseURL string
}

var _ messaging.Backend = (*Postgres)(nil)

func NewPostgres(stores *store.Stores, txr TxRunner, publisher feed.Publisher, publicBaseURL string) *Postgres {
	return &Postgres{
		stores:        stores,
		txr:           txr,
		publisher:     publisher,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

func (b *Postgres) ListConversations(ctx context.Context, viewerID int64) ([]model.Conversation, error) {
	return b.stores.Conversations().ListForUser(ctx, viewerID)
}

func (b *Postgres) ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	return b.stores.Messages().ListByConversation(ctx, conversationID)
}

func (b *Postgres) InsertMessage(ctx context.Context, params messaging.InsertMessageParams) (*model.Message, error) {
	msg := &model.Message{
		ID:             id.New(),
		ConversationID: params.ConversationID,
		Content:        params.Content,
		Topic:          params.Topic,
		Sender: model.Participant{
			UserID: params.SenderID,
			Role:   params.SenderRole,
		},
		Status:         model.DeliverySent,
		CorrelationKey: params.CorrelationKey,
	}

	// Row insert and directory bump commit or roll back together, so a
	// conversation can never hold a message it was not reordered for.
	err := b.txr.WithTx(ctx, func(stores StoreProvider) error {
		if err := stores.Messages().Create(ctx, msg); err != nil {
			return fmt.Errorf("creating message: %w", err)
		}
		if err := stores.Conversations().Touch(ctx, params.ConversationID); err != nil {
			return fmt.Errorf("touching conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The row is durable at this point. A publish failure only delays
	// other clients until their next full refetch, so it must not fail
	// the insert.
	if err := b.publisher.MessageInserted(ctx, *msg); err != nil {
		slog.ErrorContext(ctx, "failed to publish message insert", "error", err, "message_id", msg.ID)
	}

	return msg, nil
}

func (b *Postgres) UploadFile(ctx context.Context, path string, data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	if err := b.stores.Blobs().Put(ctx, path, contentType, data); err != nil {
		return "", fmt.Errorf("storing blob: %w", err)
	}
	return path, nil
}

func (b *Postgres) PublicURL(ref string) string {
	return b.publicBaseURL + "/" + ref
}

func (b *Postgres) InsertAttachment(ctx context.Context, params messaging.InsertAttachmentParams) (*model.Attachment, error) {
	url := params.URL
	att := &model.Attachment{
		ID:          id.New(),
		MessageID:   params.MessageID,
		Name:        params.Name,
		URL:         &url,
		ContentType: params.ContentType,
		Size:        params.Size,
		StoragePath: params.StoragePath,
		Status:      model.DeliverySent,
	}

	if err := b.stores.Attachments().Create(ctx, att); err != nil {
		return nil, fmt.Errorf("creating attachment: %w", err)
	}

	if err := b.publisher.AttachmentInserted(ctx, *att); err != nil {
		slog.ErrorContext(ctx, "failed to publish attachment insert", "error", err, "attachment_id", att.ID)
	}

	return att, nil
}

func (b *Postgres) ListAttachments(ctx context.Context, messageID int64) ([]model.Attachment, error) {
	return b.stores.Attachments().ListByMessage(ctx, messageID)
}
