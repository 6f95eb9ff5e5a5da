package otp

import (
	"context"
	"sync"
	"time"

	"github.com/diagnosis/luxsuv-rentals/pkg/cache"
)

// Record is the state kept per key between Request and Verify. Only the
// bcrypt hash of the code is stored.
type Record struct {
	CodeHash  string    `json:"code_hash"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

// Mutation is what an Update callback wants done with the record. The zero
// Mutation leaves it as it is.
type Mutation struct {
	Record *Record
	Retain time.Duration
	Delete bool
}

// Store keeps records for a bounded time. Get returns nil, nil when the key
// is absent or its retention has lapsed.
//
// Update is an atomic read-modify-write: fn sees the current record (nil when
// absent) and no other writer can slip in between. fn may be called more than
// once.
type Store interface {
	Get(ctx context.Context, key string) (*Record, error)
	Set(ctx context.Context, key string, rec *Record, retain time.Duration) error
	Update(ctx context.Context, key string, fn func(rec *Record) Mutation) error
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	rec     Record
	purgeAt time.Time
}

// MemoryStore is a process-local Store. Lapsed entries are dropped when next
// touched.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.load(key), nil
}

// load returns a copy of the live record at key. m.mu must be held.
func (m *MemoryStore) load(key string) *Record {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if !m.now().Before(e.purgeAt) {
		delete(m.entries, key)
		return nil
	}
	rec := e.rec
	return &rec
}

func (m *MemoryStore) Set(_ context.Context, key string, rec *Record, retain time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{rec: *rec, purgeAt: m.now().Add(retain)}
	return nil
}

func (m *MemoryStore) Update(_ context.Context, key string, fn func(rec *Record) Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mut := fn(m.load(key))
	switch {
	case mut.Delete:
		delete(m.entries, key)
	case mut.Record != nil:
		m.entries[key] = memoryEntry{rec: *mut.Record, purgeAt: m.now().Add(mut.Retain)}
	}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

const redisPrefix = "otp:"

// RedisStore shares records across instances. Retention maps onto the key
// expiry and Update runs as a WATCH/MULTI transaction, so attempt counting
// holds across every instance using the same Redis.
type RedisStore struct {
	cache *cache.Cache
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(c *cache.Cache) *RedisStore {
	return &RedisStore{cache: c}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Record, error) {
	var rec Record
	found, err := s.cache.GetJSON(ctx, redisPrefix+key, &rec)
	if err != nil || !found {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, rec *Record, retain time.Duration) error {
	return s.cache.SetJSON(ctx, redisPrefix+key, rec, retain)
}

func (s *RedisStore) Update(ctx context.Context, key string, fn func(rec *Record) Mutation) error {
	var current Record
	return s.cache.UpdateJSON(ctx, redisPrefix+key, &current, func(found bool) cache.Change {
		var rec *Record
		if found {
			cp := current
			rec = &cp
		}
		mut := fn(rec)
		change := cache.Change{TTL: mut.Retain, Delete: mut.Delete}
		if mut.Record != nil {
			change.Value = mut.Record
		}
		return change
	})
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.cache.Delete(ctx, redisPrefix+key)
}
