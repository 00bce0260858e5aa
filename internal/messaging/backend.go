package messaging

import (
	"context"

	"github.com/XadielF/hipotrack/internal/model"
)

// Backend is the set of durable operations the sync core consumes from the
// hosted service. Authorization (which rows a viewer may see) is enforced
// behind this interface; the core never re-checks it.
type Backend interface {
	// ListConversations returns every conversation the viewer participates
	// in, newest first, each with its roster and most recent message.
	ListConversations(ctx context.Context, viewerID int64) ([]model.Conversation, error)

	// ListMessages returns the full history for a conversation ascending by
	// creation time, attachments included. Sender entries carry only user id
	// and role; display resolution against the roster is the caller's job.
	ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error)

	// InsertMessage creates the durable message row. The server assigns id
	// and timestamp.
	InsertMessage(ctx context.Context, params InsertMessageParams) (*model.Message, error)

	// UploadFile stores attachment bytes under the given path and returns a
	// storage reference.
	UploadFile(ctx context.Context, path string, data []byte) (string, error)

	// PublicURL derives a durable, shareable URL from a storage reference.
	PublicURL(ref string) string

	// InsertAttachment creates an attachment row referencing an existing
	// message row.
	InsertAttachment(ctx context.Context, params InsertAttachmentParams) (*model.Attachment, error)

	// ListAttachments returns the attachment rows already associated with a
	// message. Used by the push handler, which performs a single lookup per
	// message-insert event rather than streaming.
	ListAttachments(ctx context.Context, messageID int64) ([]model.Attachment, error)
}

type InsertMessageParams struct {
	ConversationID int64
	SenderID       int64
	SenderRole     string
	Content        string
	Topic          *string
	CorrelationKey string
}

type InsertAttachmentParams struct {
	MessageID   int64
	Name        string
	ContentType *string
	Size        *int64
	StoragePath string
	URL         string
}

// LocalFile is a file the viewer picked for an outgoing message.
type LocalFile struct {
	Name        string
	ContentType string
	Data        []byte
}
