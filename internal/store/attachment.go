package store

import (
	"context"

	"github.com/XadielF/hipotrack/internal/model"
)

type attachmentStore struct {
	q Querier
}

func newAttachmentStore(q Querier) AttachmentStore {
	return &attachmentStore{q: q}
}

func (s *attachmentStore) ListByMessage(ctx context.Context, messageID int64) ([]model.Attachment, error) {
	return listAttachments(ctx, s.q, messageID)
}

func (s *attachmentStore) Create(ctx context.Context, att *model.Attachment) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO attachments (id, message_id, name, content_type, size_bytes, storage_path, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		att.ID, att.MessageID, att.Name, att.ContentType, att.Size, att.StoragePath, att.URL).
		Scan(&att.CreatedAt)
	if err != nil {
		return err
	}
	att.Status = model.DeliverySent
	return nil
}

// listAttachments is shared with the conversation and message stores, which
// join attachments onto the rows they return.
func listAttachments(ctx context.Context, q Querier, messageID int64) ([]model.Attachment, error) {
	rows, err := q.Query(ctx, `
		SELECT id, message_id, name, content_type, size_bytes, storage_path, url, created_at
		FROM attachments
		WHERE message_id = $1
		ORDER BY created_at ASC`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Attachment
	for rows.Next() {
		var att model.Attachment
		if err := rows.Scan(
			&att.ID, &att.MessageID, &att.Name, &att.ContentType,
			&att.Size, &att.StoragePath, &att.URL, &att.CreatedAt,
		); err != nil {
			return nil, err
		}
		att.Status = model.DeliverySent
		result = append(result, att)
	}
	return result, rows.Err()
}
