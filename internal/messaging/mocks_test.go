package messaging_test

import (
	"context"

	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/model"
)

type mockBackend struct {
	listConversationsFn func(ctx context.Context, viewerID int64) ([]model.Conversation, error)
	listMessagesFn      func(ctx context.Context, conversationID int64) ([]model.Message, error)
	insertMessageFn     func(ctx context.Context, params messaging.InsertMessageParams) (*model.Message, error)
	uploadFileFn        func(ctx context.Context, path string, data []byte) (string, error)
	publicURLFn         func(ref string) string
	insertAttachmentFn  func(ctx context.Context, params messaging.InsertAttachmentParams) (*model.Attachment, error)
	listAttachmentsFn   func(ctx context.Context, messageID int64) ([]model.Attachment, error)

	listConversationsCalls int
	listMessagesCalls      int
	insertMessageCalls     int
}

func (m *mockBackend) ListConversations(ctx context.Context, viewerID int64) ([]model.Conversation, error) {
	m.listConversationsCalls++
	if m.listConversationsFn != nil {
		return m.listConversationsFn(ctx, viewerID)
	}
	return nil, nil
}

func (m *mockBackend) ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	m.listMessagesCalls++
	if m.listMessagesFn != nil {
		return m.listMessagesFn(ctx, conversationID)
	}
	return nil, nil
}

func (m *mockBackend) InsertMessage(ctx context.Context, params messaging.InsertMessageParams) (*model.Message, error) {
	m.insertMessageCalls++
	if m.insertMessageFn != nil {
		return m.insertMessageFn(ctx, params)
	}
	return nil, nil
}

func (m *mockBackend) UploadFile(ctx context.Context, path string, data []byte) (string, error) {
	if m.uploadFileFn != nil {
		return m.uploadFileFn(ctx, path, data)
	}
	return path, nil
}

func (m *mockBackend) PublicURL(ref string) string {
	if m.publicURLFn != nil {
		return m.publicURLFn(ref)
	}
	return "https://files.example.com/" + ref
}

func (m *mockBackend) InsertAttachment(ctx context.Context, params messaging.InsertAttachmentParams) (*model.Attachment, error) {
	if m.insertAttachmentFn != nil {
		return m.insertAttachmentFn(ctx, params)
	}
	return nil, nil
}

func (m *mockBackend) ListAttachments(ctx context.Context, messageID int64) ([]model.Attachment, error) {
	if m.listAttachmentsFn != nil {
		return m.listAttachmentsFn(ctx, messageID)
	}
	return nil, nil
}

// mockFeed captures the handler so tests can push events synchronously.
type mockFeed struct {
	subscribeFn func(ctx context.Context, handler messaging.Handler) (func(), error)

	handler messaging.Handler
	stopped bool
}

func (m *mockFeed) Subscribe(ctx context.Context, handler messaging.Handler) (func(), error) {
	if m.subscribeFn != nil {
		return m.subscribeFn(ctx, handler)
	}
	m.handler = handler
	return func() { m.stopped = true }, nil
}

// push delivers one event as if it arrived over the feed.
func (m *mockFeed) push(ev messaging.Event) {
	if m.handler != nil {
		m.handler(context.Background(), ev)
	}
}
