package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/XadielF/hipotrack/internal/model"
)

type userStore struct {
	q Querier
}

func newUserStore(q Querier) UserStore {
	return &userStore{q: q}
}

const userColumns = `id, name, email, avatar_url, role, workos_id, created_at, updated_at`

func (s *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *userStore) UpsertByWorkOSID(ctx context.Context, user *model.User) error {
	err := s.q.QueryRow(ctx, `
		INSERT INTO users (id, name, email, avatar_url, role, workos_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (workos_id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = now()
		RETURNING `+userColumns,
		user.ID, user.Name, user.Email, user.AvatarURL, user.Role, user.WorkOSID).
		Scan(&user.ID, &user.Name, &user.Email, &user.AvatarURL, &user.Role,
			&user.WorkOSID, &user.CreatedAt, &user.UpdatedAt)
	return err
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.AvatarURL, &u.Role,
		&u.WorkOSID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
