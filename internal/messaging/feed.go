package messaging

import (
	"context"

	"github.com/XadielF/hipotrack/internal/model"
)

// EventKind discriminates insert events on the push feed.
type EventKind string

const (
	EventMessageInserted    EventKind = "message_inserted"
	EventAttachmentInserted EventKind = "attachment_inserted"
)

// Event is one row-insert notification from the server-authorized change
// feed. Exactly one of Message or Attachment is set, matching Kind. Message
// events carry the raw row: sender holds only user id and role, and the
// attachment list is empty.
type Event struct {
	Kind       EventKind
	Message    *model.Message
	Attachment *model.Attachment
}

// Handler receives feed events. Handlers may perform their own fetches; the
// client applies their results to shared state as idempotent merges, so
// out-of-order completion is safe.
type Handler func(ctx context.Context, ev Event)

// Feed is a server-to-client stream of insert events covering every
// conversation the viewer can see. One subscription lives for the lifetime
// of the viewer identity: acquired on Start, released by the returned stop
// function on identity change or teardown.
type Feed interface {
	Subscribe(ctx context.Context, h Handler) (stop func(), err error)
}
