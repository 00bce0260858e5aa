package messaging

import (
	"sort"

	"github.com/XadielF/hipotrack/internal/model"
)

// State is an immutable snapshot of everything the sync core shares with
// its consumers: the conversation directory, the per-conversation message
// caches, the current selection, and the last surfaced error.
//
// Every update is a pure reducer (State, event) -> State. The client holds
// the current snapshot behind a mutex and swaps it wholesale, so handlers
// completing in any order converge as long as each merge is idempotent per
// message/attachment id. Reducers copy the containers they change and never
// mutate slices or maps reachable from an older snapshot.
type State struct {
	// Directory is sorted descending by UpdatedAt; the conversation most
	// recently touched by any message, optimistic or confirmed, is first.
	Directory []model.Conversation

	// Messages caches each conversation's history independently, ascending
	// by creation time, keyed by conversation id.
	Messages map[int64][]model.Message

	// SelectedID is the currently selected conversation, zero when none.
	SelectedID int64

	// Err is the last human-readable operation failure, empty when the
	// previous operation succeeded.
	Err string
}

// Conversation returns the directory entry for id, or nil.
func (s State) Conversation(id int64) *model.Conversation {
	for i := range s.Directory {
		if s.Directory[i].ID == id {
			return &s.Directory[i]
		}
	}
	return nil
}

// MessagesFor returns the cached history for a conversation. The returned
// slice belongs to the snapshot and must not be modified.
func (s State) MessagesFor(conversationID int64) []model.Message {
	return s.Messages[conversationID]
}

func (s State) cloneDirectory() []model.Conversation {
	out := make([]model.Conversation, len(s.Directory))
	copy(out, s.Directory)
	return out
}

// cloneMessages copies the cache map; untouched conversation slices are
// shared between snapshots.
func (s State) cloneMessages() map[int64][]model.Message {
	out := make(map[int64][]model.Message, len(s.Messages))
	for k, v := range s.Messages {
		out[k] = v
	}
	return out
}

func (s State) withError(msg string) State {
	s.Err = msg
	return s
}

func (s State) withSelected(id int64) State {
	s.SelectedID = id
	return s
}

// withDirectory replaces the directory list, keeping message caches intact.
// The list is re-sorted so the most recently updated conversation is always
// first, regardless of what the fetch returned.
func (s State) withDirectory(list []model.Conversation) State {
	sorted := make([]model.Conversation, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})
	s.Directory = sorted
	s.Err = ""
	return s
}

// withHistory replaces a conversation's cached history with a fresh fetch,
// ascending by creation time. Local entries still pending or marked error
// are carried over when the fetch does not contain them (matched by id or
// correlation key), so an in-flight or failed send stays visible across a
// refetch. Carried-over entries are inserted by creation time, so a failed
// send from before the refetch does not jump below newer rows.
func (s State) withHistory(conversationID int64, fetched []model.Message) State {
	history := make([]model.Message, len(fetched))
	copy(history, fetched)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CreatedAt.Before(history[j].CreatedAt)
	})

	for _, local := range s.Messages[conversationID] {
		if local.Status == model.DeliverySent {
			continue
		}
		if messageIndex(history, local.ID) >= 0 {
			continue
		}
		if local.CorrelationKey != "" && correlationIndex(history, local.CorrelationKey) >= 0 {
			continue
		}
		at := sort.Search(len(history), func(i int) bool {
			return history[i].CreatedAt.After(local.CreatedAt)
		})
		history = append(history, model.Message{})
		copy(history[at+1:], history[at:])
		history[at] = local
	}

	messages := s.cloneMessages()
	messages[conversationID] = history
	s.Messages = messages
	s.Err = ""
	return s
}

// appendMessage adds a locally created speculative message to the end of
// its conversation's history and promotes the conversation.
func (s State) appendMessage(msg model.Message) State {
	messages := s.cloneMessages()
	messages[msg.ConversationID] = append(copyMessages(messages[msg.ConversationID]), msg)
	s.Messages = messages
	return s.promote(msg.ConversationID, msg)
}

// mergePushMessage applies a push-delivered row. The merge is idempotent:
// a message whose id is already cached is ignored, a pending entry with the
// same correlation key is replaced in place (the viewer's own send arriving
// back before reconciliation), anything else is appended.
func (s State) mergePushMessage(msg model.Message) State {
	history := s.Messages[msg.ConversationID]

	if messageIndex(history, msg.ID) >= 0 {
		return s
	}

	updated := copyMessages(history)
	if msg.CorrelationKey != "" {
		if i := correlationIndex(updated, msg.CorrelationKey); i >= 0 {
			// Keep speculative attachment state; the push row has none.
			if len(msg.Attachments) == 0 {
				msg.Attachments = updated[i].Attachments
			}
			updated[i] = msg
			messages := s.cloneMessages()
			messages[msg.ConversationID] = updated
			s.Messages = messages
			return s.promote(msg.ConversationID, msg)
		}
	}

	updated = append(updated, msg)
	messages := s.cloneMessages()
	messages[msg.ConversationID] = updated
	s.Messages = messages
	return s.promote(msg.ConversationID, msg)
}

// reconcileMessage replaces the temporary-id entry with the authoritative
// message, in place, preserving list position. If a push event already
// promoted the entry to its server id, the replacement is keyed by that id
// instead, so the send's direct response and the push row converge on a
// single entry either way.
func (s State) reconcileMessage(tempID int64, final model.Message) State {
	history := s.Messages[final.ConversationID]

	i := messageIndex(history, tempID)
	if i < 0 {
		i = messageIndex(history, final.ID)
	}

	updated := copyMessages(history)
	if i >= 0 {
		updated[i] = final
	} else {
		// Cache was refetched while the send was in flight; fall back to an
		// idempotent append.
		updated = append(updated, final)
	}

	messages := s.cloneMessages()
	messages[final.ConversationID] = updated
	s.Messages = messages
	return s.promote(final.ConversationID, final)
}

// markMessageError flags a message in place. Statuses never revert, so the
// entry stays visible with whatever content and attachments it carried.
func (s State) markMessageError(conversationID, messageID int64) State {
	history := s.Messages[conversationID]
	i := messageIndex(history, messageID)
	if i < 0 {
		return s
	}
	updated := copyMessages(history)
	updated[i].Status = model.DeliveryError
	messages := s.cloneMessages()
	messages[conversationID] = updated
	s.Messages = messages
	return s
}

// mergeAttachment locates the owning message across all cached
// conversations and merges the attachment into its list, replacing any
// attachment with the same id and appending otherwise.
func (s State) mergeAttachment(att model.Attachment) State {
	for convID, history := range s.Messages {
		i := messageIndex(history, att.MessageID)
		if i < 0 {
			continue
		}

		updated := copyMessages(history)
		msg := updated[i]
		msg.Attachments = mergeAttachmentList(msg.Attachments, att)
		updated[i] = msg

		messages := s.cloneMessages()
		messages[convID] = updated
		s.Messages = messages

		// Keep the directory preview consistent when it points at this
		// message.
		for j := range s.Directory {
			if s.Directory[j].LastMessage != nil && s.Directory[j].LastMessage.ID == att.MessageID {
				directory := s.cloneDirectory()
				last := msg
				directory[j].LastMessage = &last
				s.Directory = directory
				break
			}
		}
		return s
	}
	return s
}

// promote moves a conversation to the front of the directory and records
// the message as its most recent.
func (s State) promote(conversationID int64, last model.Message) State {
	i := -1
	for j := range s.Directory {
		if s.Directory[j].ID == conversationID {
			i = j
			break
		}
	}
	if i < 0 {
		return s
	}

	conv := s.Directory[i]
	conv.LastMessage = &last
	if last.CreatedAt.After(conv.UpdatedAt) {
		conv.UpdatedAt = last.CreatedAt
	}

	directory := make([]model.Conversation, 0, len(s.Directory))
	directory = append(directory, conv)
	directory = append(directory, s.Directory[:i]...)
	directory = append(directory, s.Directory[i+1:]...)
	s.Directory = directory
	return s
}

func copyMessages(in []model.Message) []model.Message {
	out := make([]model.Message, len(in))
	copy(out, in)
	return out
}

func messageIndex(history []model.Message, id int64) int {
	for i := range history {
		if history[i].ID == id {
			return i
		}
	}
	return -1
}

func correlationIndex(history []model.Message, key string) int {
	for i := range history {
		if history[i].CorrelationKey == key {
			return i
		}
	}
	return -1
}

func mergeAttachmentList(list []model.Attachment, att model.Attachment) []model.Attachment {
	out := make([]model.Attachment, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == att.ID {
			out[i] = att
			return out
		}
	}
	return append(out, att)
}
