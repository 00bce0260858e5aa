package model

import "time"

// Conversation is a directory entry for a message thread the viewer belongs
// to, enriched with its participant roster and most recent message. The
// roster is fetched with the conversation and treated as immutable for the
// session.
type Conversation struct {
	ID           int64
	Title        *string
	UpdatedAt    time.Time
	Participants []Participant
	LastMessage  *Message
}

// Participant returns the roster entry for the given user id, or nil.
func (c *Conversation) Participant(userID int64) *Participant {
	for i := range c.Participants {
		if c.Participants[i].UserID == userID {
			return &c.Participants[i]
		}
	}
	return nil
}

// Viewer returns the roster entry flagged as the viewer, or nil.
func (c *Conversation) Viewer() *Participant {
	for i := range c.Participants {
		if c.Participants[i].IsViewer {
			return &c.Participants[i]
		}
	}
	return nil
}
