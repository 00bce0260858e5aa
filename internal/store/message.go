package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/XadielF/hipotrack/internal/model"
)

type messageStore struct {
	q Querier
}

func newMessageStore(q Querier) MessageStore {
	return &messageStore{q: q}
}

func (s *messageStore) ListByConversation(ctx context.Context, conversationID int64) ([]model.Message, error) {
	rows, err := s.q.Query(ctx, `
		SELECT id, conversation_id, sender_id, sender_role, content, topic, correlation_key, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		attachments, err := listAttachments(ctx, s.q, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Attachments = attachments
	}
	return result, nil
}

func (s *messageStore) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	msg, err := scanMessage(s.q.QueryRow(ctx, `
		SELECT id, conversation_id, sender_id, sender_role, content, topic, correlation_key, created_at
		FROM messages WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	attachments, err := listAttachments(ctx, s.q, msg.ID)
	if err != nil {
		return nil, err
	}
	msg.Attachments = attachments
	return msg, nil
}

func (s *messageStore) Create(ctx context.Context, msg *model.Message) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, sender_role, content, topic, correlation_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		msg.ID, msg.ConversationID, msg.Sender.UserID, msg.Sender.Role,
		msg.Content, msg.Topic, msg.CorrelationKey).
		Scan(&msg.CreatedAt)
	if err != nil {
		return err
	}
	msg.Status = model.DeliverySent
	return nil
}

// scanMessage maps one messages row. Sender carries only the user id and
// role column; display resolution happens client-side against the roster.
func scanMessage(row pgx.Row) (*model.Message, error) {
	var msg model.Message
	if err := row.Scan(
		&msg.ID, &msg.ConversationID, &msg.Sender.UserID, &msg.Sender.Role,
		&msg.Content, &msg.Topic, &msg.CorrelationKey, &msg.CreatedAt,
	); err != nil {
		return nil, err
	}
	msg.Status = model.DeliverySent
	return &msg, nil
}
