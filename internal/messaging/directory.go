package messaging

import (
	"context"
	"log/slog"

	"github.com/XadielF/hipotrack/common/logger"
)

// LoadDirectory fetches the conversations the viewer belongs to, each with
// its roster and most recent message, and replaces the directory list. With
// no viewer the call is a no-op yielding an empty list, not an error. On
// fetch failure the previous directory is kept and the failure is surfaced
// as the state's error string.
//
// When nothing is selected and the list is non-empty, the most recent
// conversation is selected and its history loaded.
func (c *Client) LoadDirectory(ctx context.Context) error {
	viewer := c.currentViewer()
	if viewer == nil {
		return nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "messaging.directory"})

	list, err := c.backend.ListConversations(ctx, viewer.ID)
	if err != nil {
		slog.ErrorContext(ctx, "loading conversations", "error", err)
		c.apply(func(s State) State {
			return s.withError("loading conversations: " + err.Error())
		})
		return err
	}

	snap := c.apply(func(s State) State {
		return s.withDirectory(list)
	})

	slog.DebugContext(ctx, "directory loaded", "conversations", len(list))

	if snap.SelectedID == 0 && len(snap.Directory) > 0 {
		return c.Select(ctx, snap.Directory[0].ID)
	}
	return nil
}
