// Package storage builds the configured BlobStore engine.
package storage

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/storage/blobstore"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/storage/database"
	"github.com/LALLEN78/NEA-Tracker-2-sub001/storage/redisstore"
)

// errClosed stops the API: nothing can be served once the store is gone.
var errClosed = core.NewShutdownError("storage is closed")

// Store is an opened BlobStore and the connection behind it.
// Every operation fails with a shutdown error once the store is closed.
type Store struct {
	core.BlobStore
	closer io.Closer
	closed atomic.Bool
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, errClosed
	}
	return s.BlobStore.Get(ctx, key)
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	if s.closed.Load() {
		return errClosed
	}
	return s.BlobStore.Put(ctx, key, data)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return errClosed
	}
	return s.BlobStore.Delete(ctx, key)
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	if s.closed.Load() {
		return nil, errClosed
	}
	return s.BlobStore.Keys(ctx)
}

func (s *Store) Close() error {
	if s.closed.Swap(true) || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Open opens the engine named by conf.Storage.Engine. SQL databases are migrated on open.
func Open(ctx context.Context, conf *core.Config) (*Store, error) {
	store := new(Store)

	switch conf.Storage.Engine {
	case core.EngineMemory:
		store.BlobStore = blobstore.NewMemory()

	case core.EngineFile:
		fs, err := blobstore.NewFile(conf.Storage.Dir)
		if err != nil {
			return nil, err
		}
		store.BlobStore = fs

	case core.EngineSQLite, core.EnginePostgres:
		conf.Database.Engine = conf.Storage.Engine
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		store.BlobStore = database.NewBlobStore(db)
		store.closer = db

	case core.EngineRedis:
		client, err := redisstore.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		store.BlobStore = redisstore.New(client, conf.Redis.Prefix)
		store.closer = client

	default:
		return nil, errors.Errorf("unknown storage engine %q", conf.Storage.Engine)
	}

	if conf.Storage.CacheTTL > 0 {
		store.BlobStore = blobstore.NewCached(store.BlobStore, conf.Storage.CacheTTL)
	}
	return store, nil
}
