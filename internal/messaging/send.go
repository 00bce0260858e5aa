package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/XadielF/hipotrack/common"
	"github.com/XadielF/hipotrack/common/id"
	"github.com/XadielF/hipotrack/common/logger"
	"github.com/XadielF/hipotrack/internal/model"
)

// SendInput describes one outgoing message. A zero ConversationID targets
// the current selection.
type SendInput struct {
	ConversationID int64
	Content        string
	Topic          *string
	Files          []LocalFile
}

// Send runs the optimistic send pipeline: validate, render a speculative
// message synchronously, persist the message row, persist each attachment
// with an independent outcome, then reconcile the speculative entry in
// place with the authoritative result.
//
// Whitespace-only content is silently dropped. A send already in flight for
// the same conversation is rejected; sends to other conversations proceed.
// The returned error covers the message-row write or, when the row
// succeeded, any attachment failures; in both cases the failed entry stays
// in the list marked error so the viewer can see what did not go through.
func (c *Client) Send(ctx context.Context, in SendInput) error {
	viewer := c.currentViewer()
	if viewer == nil {
		c.apply(func(s State) State {
			return s.withError("not signed in")
		})
		return ErrNoViewer
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil
	}

	convID := in.ConversationID
	if convID == 0 {
		convID = c.Snapshot().SelectedID
	}
	if convID == 0 {
		c.apply(func(s State) State {
			return s.withError("no conversation selected")
		})
		return ErrNoConversation
	}

	c.mu.Lock()
	if c.sending[convID] {
		c.mu.Unlock()
		return ErrSendInFlight
	}
	c.sending[convID] = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.sending, convID)
		c.mu.Unlock()
	}()

	tempID := id.New()
	correlation := uuid.NewString()
	now := time.Now()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ConversationID: logger.Ptr(convID),
		ViewerID:       logger.Ptr(viewer.ID),
		SendKey:        logger.Ptr(correlation),
		Component:      "messaging.send",
	})

	sender := viewer.AsParticipant(true)
	if conv := c.Snapshot().Conversation(convID); conv != nil {
		if p := conv.Viewer(); p != nil {
			sender = *p
		}
	}

	speculative := model.Message{
		ID:             tempID,
		ConversationID: convID,
		Content:        content,
		Topic:          in.Topic,
		CreatedAt:      now,
		Sender:         sender,
		Status:         model.DeliveryPending,
		CorrelationKey: correlation,
	}
	for _, f := range in.Files {
		size := int64(len(f.Data))
		speculative.Attachments = append(speculative.Attachments, model.Attachment{
			ID:          id.New(),
			MessageID:   tempID,
			Name:        f.Name,
			ContentType: optional(f.ContentType),
			Size:        &size,
			CreatedAt:   now,
			Status:      model.DeliveryPending,
		})
	}

	// Speculative render completes before any network call.
	c.apply(func(s State) State {
		return s.appendMessage(speculative)
	})

	row, err := c.backend.InsertMessage(ctx, InsertMessageParams{
		ConversationID: convID,
		SenderID:       viewer.ID,
		SenderRole:     sender.Role,
		Content:        content,
		Topic:          in.Topic,
		CorrelationKey: correlation,
	})
	if err != nil {
		slog.ErrorContext(ctx, "persisting message row", "error", err)
		c.apply(func(s State) State {
			return s.markMessageError(convID, tempID).withError("sending message: " + err.Error())
		})
		return fmt.Errorf("sending message: %w", err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: logger.Ptr(row.ID)})

	// Attachments are sequenced strictly after the message row exists and
	// fail independently of each other; there are no automatic retries.
	outcomes := make([]model.Attachment, 0, len(in.Files))
	var attachErrs []error
	for i, f := range in.Files {
		outcome := speculative.Attachments[i]
		outcome.MessageID = row.ID
		outcome.StoragePath = storagePath(convID, row.ID, f.Name)

		ref, err := c.backend.UploadFile(ctx, outcome.StoragePath, f.Data)
		if err != nil {
			slog.WarnContext(ctx, "uploading attachment", "name", f.Name, "error", err)
			outcome.Status = model.DeliveryError
			outcomes = append(outcomes, outcome)
			attachErrs = append(attachErrs, fmt.Errorf("uploading %s: %w", f.Name, err))
			continue
		}

		url := c.backend.PublicURL(ref)
		outcome.URL = &url

		saved, err := c.backend.InsertAttachment(ctx, InsertAttachmentParams{
			MessageID:   row.ID,
			Name:        f.Name,
			ContentType: outcome.ContentType,
			Size:        outcome.Size,
			StoragePath: outcome.StoragePath,
			URL:         url,
		})
		if err != nil {
			slog.WarnContext(ctx, "persisting attachment row", "name", f.Name, "error", err)
			outcome.Status = model.DeliveryError
			outcomes = append(outcomes, outcome)
			attachErrs = append(attachErrs, fmt.Errorf("saving %s: %w", f.Name, err))
			continue
		}

		done := *saved
		done.Status = model.DeliverySent
		outcomes = append(outcomes, done)
	}

	final := *row
	final.Sender = sender
	final.CorrelationKey = correlation
	final.Attachments = outcomes
	final.Status = model.DeliverySent
	if len(attachErrs) > 0 {
		// Partially delivered: the text went through, one or more files did
		// not.
		final.Status = model.DeliveryError
	}

	c.apply(func(s State) State {
		s = s.reconcileMessage(tempID, final)
		if len(attachErrs) > 0 {
			return s.withError(fmt.Sprintf("%d of %d attachments failed", len(attachErrs), len(in.Files)))
		}
		return s
	})

	if len(attachErrs) > 0 {
		return errors.Join(attachErrs...)
	}

	slog.InfoContext(ctx, "message delivered", "attachments", len(outcomes))
	return nil
}

func storagePath(conversationID, messageID int64, name string) string {
	return fmt.Sprintf("conversations/%d/messages/%d/%s", conversationID, messageID, safeFileName(name))
}

// safeFileName slugifies the base name and keeps the extension, so viewer
// file names cannot break storage paths or derived URLs.
func safeFileName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(filepath.Base(name), ext)
	slug, err := common.Slugify(base, "file")
	if err != nil {
		slug = "file"
	}
	return slug + strings.ToLower(ext)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
