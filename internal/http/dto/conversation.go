package dto

import (
	"time"

	"github.com/XadielF/hipotrack/internal/model"
)

type ParticipantResponse struct {
	UserID      int64   `json:"user_id,string"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Role        string  `json:"role"`
	IsViewer    bool    `json:"is_viewer"`
}

type ConversationResponse struct {
	ID           int64                 `json:"id,string"`
	Title        *string               `json:"title,omitempty"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Participants []ParticipantResponse `json:"participants"`
	LastMessage  *MessageResponse      `json:"last_message,omitempty"`
}

func ToParticipantResponse(p model.Participant) ParticipantResponse {
	return ParticipantResponse{
		UserID:      p.UserID,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Role:        p.Role,
		IsViewer:    p.IsViewer,
	}
}

func ToConversationResponse(c model.Conversation) ConversationResponse {
	participants := make([]ParticipantResponse, 0, len(c.Participants))
	for _, p := range c.Participants {
		participants = append(participants, ToParticipantResponse(p))
	}

	resp := ConversationResponse{
		ID:           c.ID,
		Title:        c.Title,
		UpdatedAt:    c.UpdatedAt,
		Participants: participants,
	}
	if c.LastMessage != nil {
		last := ToMessageResponse(*c.LastMessage)
		resp.LastMessage = &last
	}
	return resp
}
