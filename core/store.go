package core

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Blob keys. Each key holds one independent JSON document (array or object).
const (
	KeyStudents   = "students"
	KeyScores     = "scores"
	KeySettings   = "settings"
	KeyDeadlines  = "deadlines"
	KeyLogEntries = "log_entries"
	KeyClasses    = "classes"
)

// BlobKeys lists every named blob in export order.
var BlobKeys = []string{KeyStudents, KeyScores, KeySettings, KeyDeadlines, KeyLogEntries, KeyClasses}

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore persists named JSON blobs.
// Get returns ErrBlobNotFound when the key has never been written.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Hub coordinates access to named blobs: one lock per key and change notifications.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(key string)
	locks  map[string]*sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		subs:  make(map[string]map[int]func(string)),
		locks: make(map[string]*sync.RWMutex),
	}
}

// Lock returns the lock guarding key. Every writer of key must hold it.
func (h *Hub) Lock(key string) *sync.RWMutex {
	h.mu.Lock()
	defer h.mu.Unlock()

	l, ok := h.locks[key]
	if !ok {
		l = new(sync.RWMutex)
		h.locks[key] = l
	}
	return l
}

// Subscribe registers fn for changes on key ("*" for every key) and returns an unsubscribe func.
func (h *Hub) Subscribe(key string, fn func(key string)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	if h.subs[key] == nil {
		h.subs[key] = make(map[int]func(string))
	}
	h.subs[key][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[key], id)
	}
}

// Publish calls every subscriber of key, in subscription order, on the caller's goroutine.
func (h *Hub) Publish(key string) {
	if h == nil {
		return
	}
	h.mu.RLock()
	fns := make([]func(string), 0)
	for _, k := range []string{key, "*"} {
		ids := make([]int, 0, len(h.subs[k]))
		for id := range h.subs[k] {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			fns = append(fns, h.subs[k][id])
		}
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(key)
	}
}

// Bucket is typed access to a single named blob.
type Bucket[T any] struct {
	store    BlobStore
	hub      *Hub
	lock     *sync.RWMutex
	key      string
	defaults func() T
}

// NewBucket binds key to T. defaults builds the value returned when the blob does not exist yet.
// Buckets sharing a hub and a key share the same lock.
func NewBucket[T any](store BlobStore, hub *Hub, key string, defaults func() T) *Bucket[T] {
	return &Bucket[T]{store: store, hub: hub, lock: hub.Lock(key), key: key, defaults: defaults}
}

func (b *Bucket[T]) Key() string { return b.key }

func (b *Bucket[T]) Load(ctx context.Context) (T, error) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.load(ctx)
}

func (b *Bucket[T]) Save(ctx context.Context, val T) error {
	b.lock.Lock()
	err := b.save(ctx, val)
	b.lock.Unlock()

	if err != nil {
		return err
	}
	b.hub.Publish(b.key)
	return nil
}

// Update applies fn to the current value and saves the result, holding the key lock throughout.
// Nothing is written when fn returns an error.
func (b *Bucket[T]) Update(ctx context.Context, fn func(val *T) error) (T, error) {
	b.lock.Lock()
	val, err := b.load(ctx)
	if err == nil {
		if err = fn(&val); err == nil {
			err = b.save(ctx, val)
		}
	}
	b.lock.Unlock()

	if err != nil {
		var zero T
		return zero, err
	}
	b.hub.Publish(b.key)
	return val, nil
}

func (b *Bucket[T]) load(ctx context.Context) (T, error) {
	data, err := b.store.Get(ctx, b.key)
	if err != nil {
		if errors.Cause(err) == ErrBlobNotFound {
			return b.defaults(), nil
		}
		var zero T
		return zero, errors.Wrapf(err, "loading %s", b.key)
	}

	val := b.defaults()
	if err := json.Unmarshal(data, &val); err != nil {
		var zero T
		return zero, errors.Wrapf(err, "decoding %s", b.key)
	}
	return val, nil
}

func (b *Bucket[T]) save(ctx context.Context, val T) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", b.key)
	}
	if err := b.store.Put(ctx, b.key, data); err != nil {
		return errors.Wrapf(err, "saving %s", b.key)
	}
	return nil
}
