// Package redisstore keeps blobs in redis: one string per blob plus a set indexing the keys.
package redisstore

import (
	"context"
	"sort"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/LALLEN78/NEA-Tracker-2-sub001/core"
)

const indexKey = "blobs"

type Store struct {
	client *redis.Client
	prefix string
}

var _ core.BlobStore = (*Store)(nil)

func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Open connects to the redis server of conf and checks it answers.
func Open(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return client, nil
}

func (s *Store) blobKey(key string) string { return s.prefix + "blob:" + key }
func (s *Store) index() string            { return s.prefix + indexKey }

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.blobKey(key)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, core.ErrBlobNotFound
		}
		return nil, errors.Wrapf(err, "getting blob %s", key)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.blobKey(key), data, 0)
	pipe.SAdd(ctx, s.index(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "setting blob %s", key)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.blobKey(key))
	pipe.SRem(ctx, s.index(), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "deleting blob %s", key)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, s.index()).Result()
	if err != nil {
		return nil, errors.Wrap(err, "listing blobs")
	}
	sort.Strings(keys)
	return keys, nil
}
