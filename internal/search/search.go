// Package search maintains the full-text message index the dashboard's
// search box queries. The index is fed asynchronously by the worker from
// the insert feed, so it can lag writes by a moment.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/typesense/typesense-go/v4/typesense"
	"github.com/typesense/typesense-go/v4/typesense/api"
	"github.com/typesense/typesense-go/v4/typesense/api/pointer"

	"github.com/XadielF/hipotrack/core/config"
	"github.com/XadielF/hipotrack/internal/model"
)

// Result is one indexed message matching a query.
type Result struct {
	MessageID      int64   `json:"message_id"`
	ConversationID int64   `json:"conversation_id"`
	SenderID       int64   `json:"sender_id"`
	Content        string  `json:"content"`
	Topic          *string `json:"topic,omitempty"`
	CreatedAt      int64   `json:"created_at"`
	Snippet        string  `json:"snippet,omitempty"`
}

type Index interface {
	EnsureCollection(ctx context.Context) error
	IndexMessage(ctx context.Context, msg model.Message) error
	// Search queries message content and topic, restricted to the given
	// conversations. Callers pass the viewer's directory so results never
	// leak rows the viewer cannot see.
	Search(ctx context.Context, query string, conversationIDs []int64, limit int) ([]Result, error)
}

type typesenseIndex struct {
	client     *typesense.Client
	collection string
}

func NewIndex(cfg config.SearchConfig) Index {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
	)
	return &typesenseIndex{
		client:     client,
		collection: cfg.Collection,
	}
}

func (i *typesenseIndex) EnsureCollection(ctx context.Context) error {
	_, err := i.client.Collections().Create(ctx, &api.CollectionSchema{
		Name: i.collection,
		Fields: []api.Field{
			{Name: "message_id", Type: "int64"},
			{Name: "conversation_id", Type: "int64", Facet: pointer.True()},
			{Name: "sender_id", Type: "int64"},
			{Name: "sender_role", Type: "string", Facet: pointer.True()},
			{Name: "content", Type: "string"},
			{Name: "topic", Type: "string", Optional: pointer.True()},
			{Name: "attachment_names", Type: "string[]", Optional: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	})
	if err != nil {
		// Collection creation races with other worker replicas, and the
		// collection usually exists already.
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("creating collection %s: %w", i.collection, err)
	}

	slog.InfoContext(ctx, "created search collection", "collection", i.collection)
	return nil
}

func (i *typesenseIndex) IndexMessage(ctx context.Context, msg model.Message) error {
	doc := map[string]any{
		"id":              strconv.FormatInt(msg.ID, 10),
		"message_id":      msg.ID,
		"conversation_id": msg.ConversationID,
		"sender_id":       msg.Sender.UserID,
		"sender_role":     msg.Sender.Role,
		"content":         msg.Content,
		"created_at":      msg.CreatedAt.Unix(),
	}
	if msg.Topic != nil {
		doc["topic"] = *msg.Topic
	}
	if len(msg.Attachments) > 0 {
		names := make([]string, 0, len(msg.Attachments))
		for _, att := range msg.Attachments {
			names = append(names, att.Name)
		}
		doc["attachment_names"] = names
	}

	if _, err := i.client.Collection(i.collection).Documents().Upsert(ctx, doc, &api.DocumentIndexParameters{}); err != nil {
		return fmt.Errorf("upserting message %d: %w", msg.ID, err)
	}
	return nil
}

func (i *typesenseIndex) Search(ctx context.Context, query string, conversationIDs []int64, limit int) ([]Result, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	ids := make([]string, 0, len(conversationIDs))
	for _, id := range conversationIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}

	res, err := i.client.Collection(i.collection).Documents().Search(ctx, &api.SearchCollectionParams{
		Q:        pointer.String(query),
		QueryBy:  pointer.String("content,topic,attachment_names"),
		FilterBy: pointer.String(fmt.Sprintf("conversation_id:[%s]", strings.Join(ids, ","))),
		SortBy:   pointer.String("created_at:desc"),
		PerPage:  pointer.Int(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", i.collection, err)
	}

	if res.Hits == nil {
		return nil, nil
	}

	results := make([]Result, 0, len(*res.Hits))
	for _, hit := range *res.Hits {
		if hit.Document == nil {
			continue
		}
		results = append(results, hitResult(hit))
	}
	return results, nil
}

func hitResult(hit api.SearchResultHit) Result {
	doc := *hit.Document
	result := Result{
		MessageID:      docInt64(doc, "message_id"),
		ConversationID: docInt64(doc, "conversation_id"),
		SenderID:       docInt64(doc, "sender_id"),
		CreatedAt:      docInt64(doc, "created_at"),
	}
	if content, ok := doc["content"].(string); ok {
		result.Content = content
	}
	if topic, ok := doc["topic"].(string); ok && topic != "" {
		result.Topic = &topic
	}

	if hit.Highlights != nil {
		for _, highlight := range *hit.Highlights {
			if highlight.Snippet != nil && *highlight.Snippet != "" {
				result.Snippet = *highlight.Snippet
				break
			}
		}
	}
	return result
}

// docInt64 reads a numeric field from a decoded hit document. The JSON
// decoder hands numbers back as float64.
func docInt64(doc map[string]any, key string) int64 {
	switch v := doc[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}
