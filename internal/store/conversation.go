package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/XadielF/hipotrack/internal/model"
)

type conversationStore struct {
	q Querier
}

func newConversationStore(q Querier) ConversationStore {
	return &conversationStore{q: q}
}

func (s *conversationStore) ListForUser(ctx context.Context, userID int64) ([]model.Conversation, error) {
	rows, err := s.q.Query(ctx, `
		SELECT c.id, c.title, c.updated_at
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE cp.user_id = $1
		ORDER BY c.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Conversation
	for rows.Next() {
		var conv model.Conversation
		if err := rows.Scan(&conv.ID, &conv.Title, &conv.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		if err := s.attachRoster(ctx, &result[i], userID); err != nil {
			return nil, fmt.Errorf("loading roster for conversation %d: %w", result[i].ID, err)
		}
		if err := s.attachLastMessage(ctx, &result[i]); err != nil {
			return nil, fmt.Errorf("loading last message for conversation %d: %w", result[i].ID, err)
		}
	}
	return result, nil
}

func (s *conversationStore) GetByID(ctx context.Context, id int64, viewerID int64) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.q.QueryRow(ctx, `
		SELECT id, title, updated_at FROM conversations WHERE id = $1`, id).
		Scan(&conv.ID, &conv.Title, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.attachRoster(ctx, &conv, viewerID); err != nil {
		return nil, err
	}
	if err := s.attachLastMessage(ctx, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *conversationStore) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	var one int
	err := s.q.QueryRow(ctx, `
		SELECT 1 FROM conversation_participants
		WHERE conversation_id = $1 AND user_id = $2`, conversationID, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *conversationStore) Touch(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE conversations SET updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *conversationStore) attachRoster(ctx context.Context, conv *model.Conversation, viewerID int64) error {
	rows, err := s.q.Query(ctx, `
		SELECT u.id, u.name, u.avatar_url, cp.role
		FROM conversation_participants cp
		JOIN users u ON u.id = cp.user_id
		WHERE cp.conversation_id = $1
		ORDER BY cp.joined_at`, conv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var roster []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.UserID, &p.DisplayName, &p.AvatarURL, &p.Role); err != nil {
			return err
		}
		p.IsViewer = p.UserID == viewerID
		roster = append(roster, p)
	}
	conv.Participants = roster
	return rows.Err()
}

func (s *conversationStore) attachLastMessage(ctx context.Context, conv *model.Conversation) error {
	msg, err := scanMessage(s.q.QueryRow(ctx, `
		SELECT id, conversation_id, sender_id, sender_role, content, topic, correlation_key, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, conv.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	attachments, err := listAttachments(ctx, s.q, msg.ID)
	if err != nil {
		return err
	}
	msg.Attachments = attachments
	conv.LastMessage = msg
	return nil
}
