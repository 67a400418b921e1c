// Package memory provides the in-memory database shared by all connections.
package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/yndnr/minikv/pkg/cmap"
)

// DefaultSubscriberBuffer is the default number of undelivered messages a
// subscriber may queue before new messages are dropped for it.
const DefaultSubscriberBuffer = 128

// entry is one stored value. A zero expiresAt means no expiry.
type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is the shared key-value store plus pub/sub registry.
type Store struct {
	entries *cmap.Map[entry]
	pubsub  *registry

	now       func() time.Time
	logger    *slog.Logger
	shards    int
	subBuffer int
}

// Option configures the Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithShards sets the keyspace shard count (power of two).
func WithShards(n int) Option {
	return func(s *Store) {
		s.shards = n
	}
}

// WithSubscriberBuffer sets the per-subscriber message queue length.
func WithSubscriberBuffer(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.subBuffer = n
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:       time.Now,
		logger:    slog.Default(),
		shards:    cmap.DefaultShardCount,
		subBuffer: DefaultSubscriberBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = cmap.NewWithShards[entry](s.shards)
	s.pubsub = newRegistry(s.logger)
	return s
}

// Get returns the value stored at key. Expired entries are reported as
// absent and removed. The returned slice must not be modified.
func (s *Store) Get(key string) ([]byte, bool) {
	e, ok := s.entries.Get(key)
	if !ok {
		return nil, false
	}
	now := s.now()
	if e.expired(now) {
		s.entries.DeleteIf(key, func(cur entry) bool { return cur.expired(now) })
		return nil, false
	}
	return e.value, true
}

// Set stores value at key, replacing any previous entry. A positive ttl
// sets an absolute deadline; otherwise the entry never expires. The store
// takes ownership of value.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries.Set(key, e)
}

// Delete removes the given keys and returns how many live entries were
// removed. Expired entries are removed but not counted.
func (s *Store) Delete(keys ...string) int {
	now := s.now()
	removed := 0
	for _, key := range keys {
		e, ok := s.entries.Pop(key)
		if ok && !e.expired(now) {
			removed++
		}
	}
	return removed
}

// TTL returns the remaining time to live of key. ok is false when the key
// is absent; a zero duration with ok means the key has no expiry.
func (s *Store) TTL(key string) (time.Duration, bool) {
	e, ok := s.entries.Get(key)
	if !ok {
		return 0, false
	}
	now := s.now()
	if e.expired(now) {
		return 0, false
	}
	if e.expiresAt.IsZero() {
		return 0, true
	}
	return e.expiresAt.Sub(now), true
}

// PurgeExpired removes every expired entry and returns how many went.
func (s *Store) PurgeExpired() int {
	now := s.now()
	return s.entries.Purge(func(_ string, e entry) bool { return e.expired(now) })
}

// RunSweeper purges expired entries every interval until ctx is done.
// A non-positive interval returns immediately.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.PurgeExpired(); n > 0 {
				s.logger.Debug("purged expired keys", "count", n)
			}
		}
	}
}

// Len returns the number of stored entries, including expired entries
// that have not been removed yet.
func (s *Store) Len() int {
	return s.entries.Count()
}

// Stats is a point-in-time summary of the store.
type Stats struct {
	Keys          int `json:"keys"`
	Channels      int `json:"channels"`
	Subscriptions int `json:"subscriptions"`
}

// Stats returns current counters.
func (s *Store) Stats() Stats {
	channels, subs := s.pubsub.counts()
	return Stats{
		Keys:          s.entries.Count(),
		Channels:      channels,
		Subscriptions: subs,
	}
}
