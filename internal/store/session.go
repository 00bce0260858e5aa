package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/XadielF/hipotrack/internal/model"
)

type sessionStore struct {
	q Querier
}

func newSessionStore(q Querier) SessionStore {
	return &sessionStore{q: q}
}

func (s *sessionStore) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	var session model.Session
	err := s.q.QueryRow(ctx, `
		SELECT id, user_id, workos_session_id, created_at, expires_at
		FROM sessions WHERE id = $1`, id).
		Scan(&session.ID, &session.UserID, &session.WorkOSSessionID,
			&session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *sessionStore) Create(ctx context.Context, session *model.Session) error {
	return s.q.QueryRow(ctx, `
		INSERT INTO sessions (id, user_id, workos_session_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		session.ID, session.UserID, session.WorkOSSessionID, session.ExpiresAt).
		Scan(&session.CreatedAt)
}

func (s *sessionStore) Delete(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}
