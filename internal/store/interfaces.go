package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/XadielF/hipotrack/internal/model"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// Querier is the subset of pgx executors the stores run on; both
// *pgxpool.Pool and pgx.Tx satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ConversationStore defines the contract for conversation data access
type ConversationStore interface {
	// ListForUser returns every conversation the user participates in,
	// newest first, with roster and most recent message attached.
	ListForUser(ctx context.Context, userID int64) ([]model.Conversation, error)
	GetByID(ctx context.Context, id int64, viewerID int64) (*model.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
	// Touch bumps updated_at so directory ordering follows message traffic.
	Touch(ctx context.Context, id int64) error
}

// MessageStore defines the contract for message data access
type MessageStore interface {
	ListByConversation(ctx context.Context, conversationID int64) ([]model.Message, error)
	GetByID(ctx context.Context, id int64) (*model.Message, error)
	// Create persists the row and fills the server-assigned timestamp.
	Create(ctx context.Context, msg *model.Message) error
}

// AttachmentStore defines the contract for attachment data access
type AttachmentStore interface {
	ListByMessage(ctx context.Context, messageID int64) ([]model.Attachment, error)
	Create(ctx context.Context, att *model.Attachment) error
}

// BlobStore holds raw attachment bytes keyed by storage path.
type BlobStore interface {
	Put(ctx context.Context, path, contentType string, data []byte) error
	Get(ctx context.Context, path string) (data []byte, contentType string, err error)
}

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpsertByWorkOSID(ctx context.Context, user *model.User) error
}

// SessionStore defines the contract for session data access
type SessionStore interface {
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	Create(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id int64) error
}
