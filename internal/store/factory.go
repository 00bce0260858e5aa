package store

// Stores bundles typed accessors over one pgx querier.
type Stores struct {
	q Querier
}

func NewStores(q Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Conversations() ConversationStore {
	return newConversationStore(s.q)
}

func (s *Stores) Messages() MessageStore {
	return newMessageStore(s.q)
}

func (s *Stores) Attachments() AttachmentStore {
	return newAttachmentStore(s.q)
}

func (s *Stores) Blobs() BlobStore {
	return newBlobStore(s.q)
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.q)
}

func (s *Stores) Sessions() SessionStore {
	return newSessionStore(s.q)
}
