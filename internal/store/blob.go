package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Attachment bytes live in a content-addressed table rather than an
// external object store, which keeps a single durable dependency and lets
// uploads share the server's transaction machinery. Public URLs are derived
// from the storage path by the backend.
type blobStore struct {
	q Querier
}

func newBlobStore(q Querier) BlobStore {
	return &blobStore{q: q}
}

func (s *blobStore) Put(ctx context.Context, path, contentType string, data []byte) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO blobs (path, content_type, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (path) DO UPDATE SET content_type = EXCLUDED.content_type, data = EXCLUDED.data`,
		path, contentType, data)
	return err
}

func (s *blobStore) Get(ctx context.Context, path string) ([]byte, string, error) {
	var data []byte
	var contentType string
	err := s.q.QueryRow(ctx, `
		SELECT data, content_type FROM blobs WHERE path = $1`, path).
		Scan(&data, &contentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return data, contentType, nil
}
