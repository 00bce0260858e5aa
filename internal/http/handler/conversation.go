package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/XadielF/hipotrack/internal/http/dto"
	"github.com/XadielF/hipotrack/internal/http/middleware"
	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/store"
)

type ConversationHandler struct {
	backend       messaging.Backend
	conversations store.ConversationStore
}

func NewConversationHandler(backend messaging.Backend, conversations store.ConversationStore) *ConversationHandler {
	return &ConversationHandler{
		backend:       backend,
		conversations: conversations,
	}
}

// List returns the viewer's conversation directory, newest first.
func (h *ConversationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	conversations, err := h.backend.ListConversations(ctx, user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list conversations", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}

	resp := make([]dto.ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		resp = append(resp, dto.ToConversationResponse(conv))
	}
	c.JSON(http.StatusOK, gin.H{"conversations": resp})
}

func (h *ConversationHandler) Get(c *gin.Context) {
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

	conv, err := h.conversations.GetByID(ctx, conversationID, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get conversation", "error", err, "conversation_id", conversationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get conversation"})
		return
	}

	if conv.Viewer() == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
		return
	}

	c.JSON(http.StatusOK, dto.ToConversationResponse(*conv))
}
