package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/XadielF/hipotrack/internal/http/middleware"
	"github.com/XadielF/hipotrack/internal/store"
)

type FileHandler struct {
	blobs store.BlobStore
}

func NewFileHandler(blobs store.BlobStore) *FileHandler {
	return &FileHandler{blobs: blobs}
}

// Get serves attachment bytes by storage path. Paths are opaque server
// generated references, so a session is enough; there is nothing guessable
// in them beyond ids the viewer already holds.
func (h *FileHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	if _, ok := middleware.CurrentUser(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	path := strings.TrimPrefix(c.Param("path"), "/")
	if path == "" || strings.Contains(path, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid path"})
		return
	}

	data, contentType, err := h.blobs.Get(ctx, path)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to read blob", "error", err, "path", path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}
