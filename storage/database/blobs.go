package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
)

// BlobStore keeps every blob as one row of the blobs table.
type BlobStore struct {
	db *sqlx.DB
}

var _ core.BlobStore = (*BlobStore)(nil) // interface compliance check

// NewBlobStore expects the blobs table to exist (see Migrate).
func NewBlobStore(db *sqlx.DB) *BlobStore {
	return &BlobStore{db: db}
}

func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data string
	err := s.db.GetContext(ctx, &data, s.db.Rebind(`SELECT data FROM blobs WHERE name = ?`), key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrBlobNotFound
		}
		return nil, errors.Wrapf(err, "selecting blob %s", key)
	}
	return []byte(data), nil
}

func (s *BlobStore) Put(ctx context.Context, key string, data []byte) error {
	q := s.db.Rebind(`
		INSERT INTO blobs (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, q, key, string(data), core.NowFunc().UTC()); err != nil {
		return errors.Wrapf(err, "upserting blob %s", key)
	}
	return nil
}

func (s *BlobStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM blobs WHERE name = ?`), key); err != nil {
		return errors.Wrapf(err, "deleting blob %s", key)
	}
	return nil
}

func (s *BlobStore) Keys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0)
	if err := s.db.SelectContext(ctx, &keys, `SELECT name FROM blobs ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "listing blobs")
	}
	return keys, nil
}
