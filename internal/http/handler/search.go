package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/XadielF/hipotrack/internal/http/middleware"
	"github.com/XadielF/hipotrack/internal/metrics"
	"github.com/XadielF/hipotrack/internal/search"
	"github.com/XadielF/hipotrack/internal/store"
)

type SearchHandler struct {
	index         search.Index
	conversations store.ConversationStore
}

func NewSearchHandler(index search.Index, conversations store.ConversationStore) *SearchHandler {
	return &SearchHandler{
		index:         index,
		conversations: conversations,
	}
}

// Search queries the message index, scoped to the viewer's conversations.
// The index is fed asynchronously, so very recent messages may be missing.
func (h *SearchHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	conversations, err := h.conversations.ListForUser(ctx, user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list conversations for search", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	ids := make([]int64, 0, len(conversations))
	for _, conv := range conversations {
		ids = append(ids, conv.ID)
	}

	results, err := h.index.Search(ctx, query, ids, limit)
	if err != nil {
		slog.ErrorContext(ctx, "search query failed", "error", err, "user_id", user.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	metrics.SearchQueries.Inc()

	if results == nil {
		results = []search.Result{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
