package messaging

import (
	"context"
	"log/slog"
	"sync"

	"github.com/XadielF/hipotrack/common/logger"
	"github.com/XadielF/hipotrack/internal/model"
)

// Client is the client-side synchronization core for loan-application
// conversations. It keeps one shared in-memory State covering the
// conversation directory and per-conversation message caches, feeds it from
// the directory loader, the per-conversation history fetch, and the push
// feed, and runs the optimistic send pipeline against it.
//
// All state transitions go through pure reducers applied under a single
// mutex; network calls never happen while the lock is held.
type Client struct {
	backend Backend
	feed    Feed

	mu       sync.Mutex
	state    State
	viewer   *model.User
	sending  map[int64]bool
	stopFeed func()

	onChange func(State)
}

// Option configures a Client.
type Option func(*Client)

// WithOnChange registers a callback invoked with the new snapshot after
// every state transition. The callback runs with the client's internal lock
// held and must not call back into the client.
func WithOnChange(fn func(State)) Option {
	return func(c *Client) { c.onChange = fn }
}

func NewClient(backend Backend, feed Feed, opts ...Option) *Client {
	c := &Client{
		backend: backend,
		feed:    feed,
		sending: make(map[int64]bool),
		state:   State{Messages: make(map[int64][]model.Message)},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start binds the client to a viewer identity, loads the conversation
// directory and subscribes to the push feed. A nil viewer leaves the client
// empty and inert, which is a no-op rather than an error. Calling Start
// again with a different viewer releases the previous subscription first.
func (c *Client) Start(ctx context.Context, viewer *model.User) error {
	c.mu.Lock()
	if c.stopFeed != nil {
		c.stopFeed()
		c.stopFeed = nil
	}
	c.viewer = viewer
	c.state = State{Messages: make(map[int64][]model.Message)}
	c.mu.Unlock()

	if viewer == nil {
		return nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{ViewerID: logger.Ptr(viewer.ID)})

	if err := c.LoadDirectory(ctx); err != nil {
		return err
	}

	stop, err := c.feed.Subscribe(ctx, c.handleEvent)
	if err != nil {
		c.apply(func(s State) State {
			return s.withError("subscribing to updates: " + err.Error())
		})
		return err
	}

	c.mu.Lock()
	c.stopFeed = stop
	c.mu.Unlock()
	return nil
}

// Close releases the push subscription. It is safe to call on a client
// that never started.
func (c *Client) Close() {
	c.mu.Lock()
	stop := c.stopFeed
	c.stopFeed = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Snapshot returns the current state. The snapshot is immutable; it stays
// valid after further transitions.
func (c *Client) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Sending reports whether a send pipeline is currently in flight for the
// given conversation. Sends to other conversations are not blocked.
func (c *Client) Sending(conversationID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending[conversationID]
}

// apply runs a reducer against the current snapshot and swaps the result
// in. The reducer must be pure.
func (c *Client) apply(reduce func(State) State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = reduce(c.state)
	if c.onChange != nil {
		c.onChange(c.state)
	}
	return c.state
}

// handleEvent dispatches push feed events. Each handler fetches whatever it
// needs first and only then applies an idempotent merge, so two events for
// unrelated conversations handled concurrently cannot corrupt shared state.
func (c *Client) handleEvent(ctx context.Context, ev Event) {
	switch ev.Kind {
	case EventMessageInserted:
		if ev.Message != nil {
			c.handleMessageInsert(ctx, *ev.Message)
		}
	case EventAttachmentInserted:
		if ev.Attachment != nil {
			c.handleAttachmentInsert(ctx, *ev.Attachment)
		}
	default:
		slog.WarnContext(ctx, "unknown feed event kind", "kind", ev.Kind)
	}
}

func (c *Client) handleMessageInsert(ctx context.Context, row model.Message) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ConversationID: logger.Ptr(row.ConversationID),
		MessageID:      logger.Ptr(row.ID),
		Component:      "messaging.sync",
	})

	snap := c.Snapshot()
	conv := snap.Conversation(row.ConversationID)
	if conv == nil {
		// Row for a conversation the directory has not seen yet; the next
		// directory load picks it up.
		slog.DebugContext(ctx, "ignoring insert for unknown conversation")
		return
	}
	if messageIndex(snap.MessagesFor(row.ConversationID), row.ID) >= 0 {
		return
	}

	// Single lookup for attachments already linked to this message; later
	// attachment inserts arrive as their own events and merge by id.
	attachments, err := c.backend.ListAttachments(ctx, row.ID)
	if err != nil {
		slog.WarnContext(ctx, "fetching attachments for pushed message", "error", err)
		attachments = nil
	}

	msg := row
	msg.Attachments = attachments
	msg.Status = model.DeliverySent
	msg.Sender = c.resolveSender(conv, msg.Sender)

	c.apply(func(s State) State {
		return s.mergePushMessage(msg)
	})
}

func (c *Client) handleAttachmentInsert(ctx context.Context, att model.Attachment) {
	att.Status = model.DeliverySent
	c.apply(func(s State) State {
		return s.mergeAttachment(att)
	})
}

// resolveSender maps a bare sender (user id and role) to the conversation's
// cached roster entry. The roster is fetched once per conversation load, so
// a participant renamed mid-session keeps their stale display info; that
// staleness window is accepted. When the sender is the viewer but missing
// from the roster, the viewer's own profile is used.
func (c *Client) resolveSender(conv *model.Conversation, sender model.Participant) model.Participant {
	if p := conv.Participant(sender.UserID); p != nil {
		return *p
	}

	c.mu.Lock()
	viewer := c.viewer
	c.mu.Unlock()

	if viewer != nil && viewer.ID == sender.UserID {
		return viewer.AsParticipant(true)
	}
	return sender
}

func (c *Client) currentViewer() *model.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewer
}
