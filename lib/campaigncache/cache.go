package campaigncache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"goalietron/lib/campaign"
	"goalietron/lib/chrono"

	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("goalietron.lib.campaigncache")

var ErrNotFound = errors.New("campaigncache: entry not found")

// Entry is stored as json, gob would drop a patron count of 0.
type Entry struct {
	Value     campaign.Record `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
}

type EntryInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	// Age is encoded in nanoseconds.
	Age     time.Duration `json:"age"`
	Expired bool          `json:"expired"`
}

// Cache is a key -> campaign record store with no eviction, entries stay until
// they are overwritten or cleared. Whether an entry may still be served is
// decided by IsFresh, never by the underlying store.
type Cache struct {
	db    *badger.DB
	clock chrono.API
	mu    sync.RWMutex
}

// Open opens a cache backed by badger at `dir`, an empty dir keeps
// everything in memory.
func Open(dir string, clock chrono.API) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return New(db, clock), nil
}

func New(db *badger.DB, clock chrono.API) *Cache {
	return &Cache{db: db, clock: clock}
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) Get(ctx context.Context, key string) (Entry, error) {
	_, span := tracer.Start(ctx, "Get")
	defer span.End()
	span.SetAttributes(attribute.String("custom.cache_key", key))

	c.mu.RLock()
	defer c.mu.RUnlock()

	var entry Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read cache entry")
		return Entry{}, err
	}
	return entry, nil
}

// Put stores `value` under `key` stamped with the current time, replacing
// whatever was there.
func (c *Cache) Put(ctx context.Context, key string, value campaign.Record) error {
	_, span := tracer.Start(ctx, "Put")
	defer span.End()
	span.SetAttributes(attribute.String("custom.cache_key", key))

	serialized, err := json.Marshal(Entry{
		Value:     value,
		Timestamp: c.clock.Now(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize cache entry")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), serialized)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write cache entry")
		return err
	}
	return nil
}

func (c *Cache) Clear(ctx context.Context, key string) error {
	_, span := tracer.Start(ctx, "Clear")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete cache entry")
		return err
	}
	return nil
}

func (c *Cache) ClearAll(ctx context.Context) error {
	_, span := tracer.Start(ctx, "ClearAll")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.db.DropAll()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to drop cache entries")
		return err
	}
	return nil
}

// IsFresh reports whether `entry` is at most `ttl` old, compared in whole
// seconds.
func (c *Cache) IsFresh(entry Entry, ttl time.Duration) bool {
	age := c.clock.Now().Unix() - entry.Timestamp.Unix()
	return age <= int64(ttl/time.Second)
}

// Info lists every entry with its age, sorted by key.
func (c *Cache) Info(ctx context.Context, ttl time.Duration) ([]EntryInfo, error) {
	_, span := tracer.Start(ctx, "Info")
	defer span.End()

	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.clock.Now()
	var infos []EntryInfo
	err := c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var entry Entry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			infos = append(infos, EntryInfo{
				Key:       string(item.KeyCopy(nil)),
				Timestamp: entry.Timestamp,
				Age:       now.Sub(entry.Timestamp),
				Expired:   !c.IsFresh(entry, ttl),
			})
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list cache entries")
		return nil, err
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Key < infos[j].Key
	})
	return infos, nil
}
