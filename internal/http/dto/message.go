package dto

import (
	"time"

	"github.com/XadielF/hipotrack/internal/model"
)

type CreateMessageRequest struct {
	Content        string  `json:"content" binding:"required,min=1,max=10000"`
	Topic          *string `json:"topic,omitempty" binding:"omitempty,max=255"`
	CorrelationKey string  `json:"correlation_key" binding:"required,uuid4"`
}

type MessageResponse struct {
	ID             int64                `json:"id,string"`
	ConversationID int64                `json:"conversation_id,string"`
	Content        string               `json:"content"`
	Topic          *string              `json:"topic,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	Sender         ParticipantResponse  `json:"sender"`
	Attachments    []AttachmentResponse `json:"attachments"`
	CorrelationKey string               `json:"correlation_key,omitempty"`
}

type AttachmentResponse struct {
	ID          int64     `json:"id,string"`
	MessageID   int64     `json:"message_id,string"`
	Name        string    `json:"name"`
	URL         *string   `json:"url,omitempty"`
	ContentType *string   `json:"content_type,omitempty"`
	Size        *int64    `json:"size,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToMessageResponse(m model.Message) MessageResponse {
	attachments := make([]AttachmentResponse, 0, len(m.Attachments))
	for _, att := range m.Attachments {
		attachments = append(attachments, ToAttachmentResponse(att))
	}
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Content:        m.Content,
		Topic:          m.Topic,
		CreatedAt:      m.CreatedAt,
		Sender:         ToParticipantResponse(m.Sender),
		Attachments:    attachments,
		CorrelationKey: m.CorrelationKey,
	}
}

func ToAttachmentResponse(a model.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		MessageID:   a.MessageID,
		Name:        a.Name,
		URL:         a.URL,
		ContentType: a.ContentType,
		Size:        a.Size,
		CreatedAt:   a.CreatedAt,
	}
}
