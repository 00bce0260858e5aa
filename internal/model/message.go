package model

import "time"

// Message is one entry in a conversation's append-only log.
//
// A message created by the optimistic send pipeline carries a
// client-generated temporary ID until the server row is known; the
// temporary entry is then replaced in place, never reordered. The
// correlation key is generated client-side and stored with the row so a
// push-delivered copy of the viewer's own send can be matched.
type Message struct {
	ID             int64
	ConversationID int64
	Content        string
	Topic          *string
	CreatedAt      time.Time
	Sender         Participant
	Attachments    []Attachment
	Status         DeliveryStatus
	CorrelationKey string
}

// HasAttachment reports whether the message already carries an attachment
// with the given id.
func (m *Message) HasAttachment(id int64) bool {
	for i := range m.Attachments {
		if m.Attachments[i].ID == id {
			return true
		}
	}
	return false
}
