package messaging

import (
	"context"
	"log/slog"

	"github.com/XadielF/hipotrack/common/logger"
	"github.com/XadielF/hipotrack/internal/model"
)

// Select makes a conversation current and fetches its full history, oldest
// first. History is always refetched on selection; there is no staleness
// guard. Caches for other conversations are untouched. A zero id clears the
// selection and fetches nothing.
//
// On fetch failure the selection still moves, the previous cache for that
// conversation is retained, and the failure is surfaced as the state's
// error string.
func (c *Client) Select(ctx context.Context, conversationID int64) error {
	if conversationID == 0 {
		c.apply(func(s State) State {
			return s.withSelected(0)
		})
		return nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ConversationID: logger.Ptr(conversationID),
		Component:      "messaging.sync",
	})

	snap := c.apply(func(s State) State {
		return s.withSelected(conversationID)
	})

	fetched, err := c.backend.ListMessages(ctx, conversationID)
	if err != nil {
		slog.ErrorContext(ctx, "loading messages", "error", err)
		c.apply(func(s State) State {
			return s.withError("loading messages: " + err.Error())
		})
		return err
	}

	conv := snap.Conversation(conversationID)
	resolved := make([]model.Message, len(fetched))
	for i, msg := range fetched {
		msg.Status = model.DeliverySent
		if conv != nil {
			msg.Sender = c.resolveSender(conv, msg.Sender)
		}
		resolved[i] = msg
	}

	c.apply(func(s State) State {
		return s.withHistory(conversationID, resolved)
	})

	slog.DebugContext(ctx, "history loaded", "messages", len(resolved))
	return nil
}
