package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/XadielF/hipotrack/common"
	"github.com/XadielF/hipotrack/internal/http/dto"
	"github.com/XadielF/hipotrack/internal/http/middleware"
	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/metrics"
	"github.com/XadielF/hipotrack/internal/store"
)

// Attachments above this size are rejected before touching storage.
const maxAttachmentSize = 25 << 20

type MessageHandler struct {
	backend       messaging.Backend
	conversations store.ConversationStore
	messages      store.MessageStore
}

func NewMessageHandler(
	backend messaging.Backend,
	conversations store.ConversationStore,
	messages store.MessageStore,
) *MessageHandler {
	return &MessageHandler{
		backend:       backend,
		conversations: conversations,
		messages:      messages,
	}
}

// List returns the full history of one conversation, oldest first.
func (h *MessageHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	if !h.requireParticipant(c, conversationID, user.ID) {
		return
	}

	messages, err := h.backend.ListMessages(ctx, conversationID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list messages", "error", err, "conversation_id", conversationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}

	resp := make([]dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, dto.ToMessageResponse(msg))
	}
	c.JSON(http.StatusOK, gin.H{"messages": resp})
}

// Create persists one message row. The correlation key ties the row back
// to the sender's in-flight optimistic entry once it arrives over the feed.
func (h *MessageHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	conversationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	var req dto.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content and correlation_key are required"})
		return
	}

	if !h.requireParticipant(c, conversationID, user.ID) {
		return
	}

	msg, err := h.backend.InsertMessage(ctx, messaging.InsertMessageParams{
		ConversationID: conversationID,
		SenderID:       user.ID,
		SenderRole:     user.Role,
		Content:        req.Content,
		Topic:          req.Topic,
		CorrelationKey: req.CorrelationKey,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create message", "error", err, "conversation_id", conversationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create message"})
		return
	}

	metrics.MessagesCreated.WithLabelValues(user.Role).Inc()

	c.JSON(http.StatusCreated, dto.ToMessageResponse(*msg))
}

// CreateAttachment stores one uploaded file and links it to an existing
// message. Clients upload files one at a time so a single failure does not
// void the rest of the batch.
func (h *MessageHandler) CreateAttachment(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	messageID, err := strconv.ParseInt(c.Param("messageId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	msg, err := h.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get message", "error", err, "message_id", messageID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get message"})
		return
	}

	if !h.requireParticipant(c, msg.ConversationID, user.ID) {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxAttachmentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds size limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		slog.ErrorContext(ctx, "failed to open upload", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAttachmentSize+1))
	if err != nil {
		slog.ErrorContext(ctx, "failed to read upload", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	if len(data) > maxAttachmentSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds size limit"})
		return
	}

	name := fileHeader.Filename
	path := fmt.Sprintf("conversations/%d/messages/%d/%s", msg.ConversationID, messageID, safeFileName(name))

	ref, err := h.backend.UploadFile(ctx, path, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to store attachment payload", "error", err, "message_id", messageID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store file"})
		return
	}

	size := int64(len(data))
	contentType := fileHeader.Header.Get("Content-Type")
	var contentTypePtr *string
	if contentType != "" {
		contentTypePtr = &contentType
	}

	att, err := h.backend.InsertAttachment(ctx, messaging.InsertAttachmentParams{
		MessageID:   messageID,
		Name:        name,
		ContentType: contentTypePtr,
		Size:        &size,
		StoragePath: ref,
		URL:         h.backend.PublicURL(ref),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create attachment", "error", err, "message_id", messageID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create attachment"})
		return
	}

	metrics.AttachmentsCreated.Inc()
	metrics.AttachmentBytes.Add(float64(size))

	c.JSON(http.StatusCreated, dto.ToAttachmentResponse(*att))
}

// ListAttachments returns the attachment rows of one message.
func (h *MessageHandler) ListAttachments(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	messageID, err := strconv.ParseInt(c.Param("messageId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	msg, err := h.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get message", "error", err, "message_id", messageID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get message"})
		return
	}

	if !h.requireParticipant(c, msg.ConversationID, user.ID) {
		return
	}

	attachments, err := h.backend.ListAttachments(ctx, messageID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list attachments", "error", err, "message_id", messageID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list attachments"})
		return
	}

	resp := make([]dto.AttachmentResponse, 0, len(attachments))
	for _, att := range attachments {
		resp = append(resp, dto.ToAttachmentResponse(att))
	}
	c.JSON(http.StatusOK, gin.H{"attachments": resp})
}

// safeFileName slugifies the base name and keeps the extension, so client
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

func (h *MessageHandler) requireParticipant(c *gin.Context, conversationID, userID int64) bool {
	ctx := c.Request.Context()

	isParticipant, err := h.conversations.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check participation", "error", err, "conversation_id", conversationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check participation"})
		return false
	}
	if !isParticipant {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return false
	}
	return true
}
