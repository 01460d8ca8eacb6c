package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/cmr-client/pkg/logging"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

var (
	// ErrCacheMiss indicates the key is absent or its entry is stale
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates a stored value could not be decoded
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// flushBatch bounds the number of keys removed per DEL during Flush.
const flushBatch = 500

// Manager stores CMR responses in Redis under the "cmr:" key space.
type Manager struct {
	rdb    *redis.Client
	logger zerolog.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger replaces the manager's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock replaces the time source used to judge freshness.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a manager over rdb. The redis client stays owned by the
// caller.
func NewManager(rdb *redis.Client, opts ...Option) *Manager {
	if rdb == nil {
		panic("cache: redis client cannot be nil")
	}
	m := &Manager{
		rdb:    rdb,
		logger: logging.NewLogger(logging.ComponentCache),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Lookup returns the fresh entry stored under key. Absent and stale entries
// yield ErrCacheMiss; a stale entry is evicted on the way.
func (m *Manager) Lookup(ctx context.Context, key Key) (*Entry, error) {
	data, err := m.rdb.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		cacheMisses.WithLabelValues("absent").Inc()
		return nil, ErrCacheMiss
	}
	if err != nil {
		cacheErrors.WithLabelValues("lookup").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		cacheErrors.WithLabelValues("lookup").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if entry.Stale(m.now()) {
		if err := m.Evict(ctx, key); err != nil {
			m.logger.Warn().Err(err).Str("key", key.String()).Msg("Failed to evict stale entry")
		}
		cacheMisses.WithLabelValues("stale").Inc()
		return nil, ErrCacheMiss
	}

	cacheHits.Inc()
	return &entry, nil
}

// Store writes entry under key with a Redis expiry matching entry.Expires.
// Entries that are already stale are skipped.
func (m *Manager) Store(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return errors.New("cache entry cannot be nil")
	}

	ttl := entry.Remaining(m.now())
	if ttl <= 0 {
		m.logger.Debug().Str("key", key.String()).Msg("Skipping stale entry")
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		cacheErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	if err := m.rdb.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		cacheErrors.WithLabelValues("store").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	cacheStoredBytes.Add(float64(len(data)))
	return nil
}

// Evict removes the entry stored under key.
func (m *Manager) Evict(ctx context.Context, key Key) error {
	n, err := m.rdb.Del(ctx, key.String()).Result()
	if err != nil {
		cacheErrors.WithLabelValues("evict").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	cacheEvictions.Add(float64(n))
	return nil
}

// Flush removes every entry in the "cmr:" key space and returns how many
// were deleted.
func (m *Manager) Flush(ctx context.Context) (int, error) {
	var keys []string
	iter := m.rdb.Scan(ctx, 0, keyPrefix+":*", flushBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		cacheErrors.WithLabelValues("flush").Inc()
		return 0, fmt.Errorf("redis scan: %w", err)
	}

	removed := 0
	for _, batch := range lo.Chunk(keys, flushBatch) {
		n, err := m.rdb.Del(ctx, batch...).Result()
		if err != nil {
			cacheErrors.WithLabelValues("flush").Inc()
			return removed, fmt.Errorf("redis del: %w", err)
		}
		removed += int(n)
	}

	cacheEvictions.Add(float64(removed))
	m.logger.Info().Int("removed", removed).Msg("Flushed response cache")
	return removed, nil
}
