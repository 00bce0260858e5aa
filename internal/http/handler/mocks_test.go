package handler_test

import (
	"context"

	"github.com/XadielF/hipotrack/internal/messaging"
	"github.com/XadielF/hipotrack/internal/model"
)

type mockAuthService struct {
	getAuthorizationURLFn func(state string) (string, error)
	handleCallbackFn      func(ctx context.Context, code string) (*model.User, *model.Session, error)
	validateSessionFn     func(ctx context.Context, sessionID int64) (*model.User, error)
	logoutFn              func(ctx context.Context, sessionID int64) error
}

func (m *mockAuthService) GetAuthorizationURL(state string) (string, error) {
	if m.getAuthorizationURLFn != nil {
		return m.getAuthorizationURLFn(state)
	}
	return "https://auth.example.com/authorize?state=" + state, nil
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.User, *model.Session, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return nil, nil, nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, sessionID int64) (*model.User, error) {
	if m.validateSessionFn != nil {
		return m.validateSessionFn(ctx, sessionID)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID int64) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

type mockBackend struct {
	listConversationsFn func(ctx context.Context, viewerID int64) ([]model.Conversation, error)
	listMessagesFn      func(ctx context.Context, conversationID int64) ([]model.Message, error)
	insertMessageFn     func(ctx context.Context, params messaging.InsertMessageParams) (*model.Message, error)
	uploadFileFn        func(ctx context.Context, path string, data []byte) (string, error)
	publicURLFn         func(ref string) string
	insertAttachmentFn  func(ctx context.Context, params messaging.InsertAttachmentParams) (*model.Attachment, error)
	listAttachmentsFn   func(ctx context.Context, messageID int64) ([]model.Attachment, error)
}

func (m *mockBackend) ListConversations(ctx context.Context, viewerID int64) ([]model.Conversation, error) {
	if m.listConversationsFn != nil {
		return m.listConversationsFn(ctx, viewerID)
	}
	return nil, nil
}

func (m *mockBackend) ListMessages(ctx context.Context, conversationID int64) ([]model.Message, error) {
	if m.listMessagesFn != nil {
		return m.listMessagesFn(ctx, conversationID)
	}
	return nil, nil
}

func (m *mockBackend) InsertMessage(ctx context.Context, params messaging.InsertMessageParams) (*model.Message, error) {
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

type mockConversationStore struct {
	listForUserFn   func(ctx context.Context, userID int64) ([]model.Conversation, error)
	getByIDFn       func(ctx context.Context, id int64, viewerID int64) (*model.Conversation, error)
	isParticipantFn func(ctx context.Context, conversationID, userID int64) (bool, error)
	touchFn         func(ctx context.Context, id int64) error
}

func (m *mockConversationStore) ListForUser(ctx context.Context, userID int64) ([]model.Conversation, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockConversationStore) GetByID(ctx context.Context, id int64, viewerID int64) (*model.Conversation, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id, viewerID)
	}
	return nil, nil
}

func (m *mockConversationStore) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	if m.isParticipantFn != nil {
		return m.isParticipantFn(ctx, conversationID, userID)
	}
	return true, nil
}

func (m *mockConversationStore) Touch(ctx context.Context, id int64) error {
	if m.touchFn != nil {
		return m.touchFn(ctx, id)
	}
	return nil
}

type mockMessageStore struct {
	listByConversationFn func(ctx context.Context, conversationID int64) ([]model.Message, error)
	getByIDFn            func(ctx context.Context, id int64) (*model.Message, error)
	createFn             func(ctx context.Context, msg *model.Message) error
}

func (m *mockMessageStore) ListByConversation(ctx context.Context, conversationID int64) ([]model.Message, error) {
	if m.listByConversationFn != nil {
		return m.listByConversationFn(ctx, conversationID)
	}
	return nil, nil
}

func (m *mockMessageStore) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockMessageStore) Create(ctx context.Context, msg *model.Message) error {
	if m.createFn != nil {
		return m.createFn(ctx, msg)
	}
	return nil
}
