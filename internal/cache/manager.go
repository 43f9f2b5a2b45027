// Package cache implements a two-tier cache: a bounded in-memory LRU backed by
// an optional persistent Store, with idle TTL and version invalidation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/sync/singleflight"

	"github.com/starford/lexis/internal/apperr"
)

type entry struct {
	value        any
	size         int
	created      time.Time
	lastAccessed time.Time
	ttl          time.Duration
}

// envelope is the persisted form of an entry. Times are unix milliseconds.
type envelope struct {
	Key          string          `json:"key"`
	Value        json.RawMessage `json:"value"`
	Created      int64           `json:"created"`
	LastAccessed int64           `json:"lastAccessed"`
	Version      string          `json:"version"`
	TTL          int64           `json:"ttl,omitempty"`
}

// Metrics is a snapshot of cache counters.
type Metrics struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Size        int   `json:"size"`
	MemoryUsage int64 `json:"memoryUsage"`
}

// Manager is safe for concurrent use.
type Manager struct {
	cfg      Config
	store    Store
	reporter *apperr.Reporter
	logger   *slog.Logger
	now      func() time.Time
	group    singleflight.Group

	mu          sync.Mutex
	lru         *simplelru.LRU[string, *entry]
	hits        int64
	misses      int64
	memoryUsage int64
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the persistent tier. It is used only when
// Config.PersistToDisk is true.
func WithStore(s Store) Option {
	return func(m *Manager) { m.store = s }
}

// WithReporter sets the reporter receiving persistent tier failures.
func WithReporter(r *apperr.Reporter) Option {
	return func(m *Manager) { m.reporter = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a manager for cfg.
func New(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cache: invalid config: %w", err)
	}
	m := &Manager{
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	if !cfg.PersistToDisk {
		m.store = nil
	}
	lru, err := simplelru.NewLRU(cfg.MaxSize, func(_ string, e *entry) {
		m.memoryUsage -= int64(e.size)
	})
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	m.lru = lru
	return m, nil
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config { return m.cfg }

func (m *Manager) expired(e *entry, now time.Time) bool {
	ttl := e.ttl
	if ttl == 0 {
		ttl = m.cfg.TTL
	}
	return ttl > 0 && now.Sub(e.lastAccessed) > ttl
}

// lookup returns the cached value, touching it on a hit. Values promoted from
// the persistent tier are json.RawMessage until decoded by Get.
func (m *Manager) lookup(ctx context.Context, key string) (any, bool) {
	now := m.now()

	m.mu.Lock()
	if e, ok := m.lru.Get(key); ok {
		if !m.expired(e, now) {
			e.lastAccessed = now
			m.hits++
			m.mu.Unlock()
			return e.value, true
		}
		m.lru.Remove(key)
	}
	m.mu.Unlock()

	if raw, env, ok := m.loadPersistent(ctx, key, now); ok {
		m.mu.Lock()
		m.insert(key, &entry{
			value:        raw,
			size:         len(raw),
			created:      time.UnixMilli(env.Created),
			lastAccessed: now,
			ttl:          time.Duration(env.TTL) * time.Millisecond,
		})
		m.hits++
		m.mu.Unlock()
		return raw, true
	}

	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
	return nil, false
}

func (m *Manager) loadPersistent(ctx context.Context, key string, now time.Time) (json.RawMessage, envelope, bool) {
	var env envelope
	if m.store == nil {
		return nil, env, false
	}
	data, err := m.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			m.fail("cache.load", key, err)
		}
		return nil, env, false
	}
	if err := json.Unmarshal(data, &env); err != nil {
		m.fail("cache.load", key, err)
		return nil, env, false
	}
	if env.Key != key || env.Version != m.cfg.Version {
		return nil, env, false
	}
	ttl := time.Duration(env.TTL) * time.Millisecond
	if ttl == 0 {
		ttl = m.cfg.TTL
	}
	if ttl > 0 && now.Sub(time.UnixMilli(env.LastAccessed)) > ttl {
		return nil, env, false
	}
	return env.Value, env, true
}

// insert adds or replaces key. m.mu must be held.
func (m *Manager) insert(key string, e *entry) {
	if old, ok := m.lru.Peek(key); ok {
		m.memoryUsage -= int64(old.size)
	}
	m.lru.Add(key, e)
	m.memoryUsage += int64(e.size)
}

// Get returns the value cached under key. A value of a different type, or one
// that cannot be decoded into T, is a miss.
func Get[T any](ctx context.Context, m *Manager, key string) (T, bool) {
	var zero T
	v, ok := m.lookup(ctx, key)
	if !ok {
		return zero, false
	}
	switch x := v.(type) {
	case T:
		return x, true
	case json.RawMessage:
		var out T
		if err := json.Unmarshal(x, &out); err != nil {
			m.fail("cache.decode", key, err)
			m.Delete(ctx, key)
			m.hitToMiss()
			return zero, false
		}
		m.mu.Lock()
		if e, ok := m.lru.Peek(key); ok {
			e.value = out
		}
		m.mu.Unlock()
		return out, true
	default:
		m.hitToMiss()
		return zero, false
	}
}

// hitToMiss reclassifies the hit counted by lookup for a value Get rejected.
func (m *Manager) hitToMiss() {
	m.mu.Lock()
	m.hits--
	m.misses++
	m.mu.Unlock()
}

// Set stores value under key with the default TTL.
func (m *Manager) Set(ctx context.Context, key string, value any) {
	m.SetTTL(ctx, key, value, 0)
}

// SetTTL stores value under key with a per-entry TTL. Zero uses the default.
// When the memory tier is full the least recently used entry is evicted.
// Persistent tier failures are reported and never returned.
func (m *Manager) SetTTL(ctx context.Context, key string, value any, ttl time.Duration) {
	now := m.now()
	data, err := json.Marshal(value)
	if err != nil {
		m.fail("cache.encode", key, err)
	}

	m.mu.Lock()
	m.insert(key, &entry{
		value:        value,
		size:         len(data),
		created:      now,
		lastAccessed: now,
		ttl:          ttl,
	})
	m.mu.Unlock()

	if m.store == nil || err != nil {
		return
	}
	env := envelope{
		Key:          key,
		Value:        data,
		Created:      now.UnixMilli(),
		LastAccessed: now.UnixMilli(),
		Version:      m.cfg.Version,
		TTL:          ttl.Milliseconds(),
	}
	buf, err := json.Marshal(env)
	if err != nil {
		m.fail("cache.encode", key, err)
		return
	}
	storeTTL := ttl
	if storeTTL == 0 {
		storeTTL = m.cfg.TTL
	}
	if err := m.store.Save(ctx, key, buf, storeTTL); err != nil {
		m.fail("cache.save", key, err)
	}
}

// GetOrCompute returns the cached value for key or computes, caches and
// returns it. Concurrent callers missing the same key share one computation.
func GetOrCompute[T any](ctx context.Context, m *Manager, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := Get[T](ctx, m, key); ok {
		return v, nil
	}
	res, err, _ := m.group.Do(key, func() (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		m.SetTTL(ctx, key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// Delete removes key from both tiers.
func (m *Manager) Delete(ctx context.Context, key string) {
	m.mu.Lock()
	m.lru.Remove(key)
	m.mu.Unlock()
	if m.store != nil {
		if err := m.store.Delete(ctx, key); err != nil {
			m.fail("cache.delete", key, err)
		}
	}
}

// Clear empties both tiers. Hit and miss counters are kept.
func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	m.lru.Purge()
	m.memoryUsage = 0
	m.mu.Unlock()
	if m.store != nil {
		if err := m.store.Clear(ctx); err != nil {
			m.fail("cache.clear", "", err)
		}
	}
	m.logger.Debug("cache: cleared")
}

// Metrics returns a snapshot of the counters.
func (m *Manager) Metrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{
		Hits:        m.hits,
		Misses:      m.misses,
		Size:        m.lru.Len(),
		MemoryUsage: m.memoryUsage,
	}
}

// Start runs the periodic Clear until ctx is cancelled. It returns
// immediately when UpdateInterval is zero.
func (m *Manager) Start(ctx context.Context) error {
	if m.cfg.UpdateInterval <= 0 {
		return nil
	}
	t := time.NewTicker(m.cfg.UpdateInterval)
	defer t.Stop()
	m.logger.Info("cache: periodic clear started", slog.Duration("interval", m.cfg.UpdateInterval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			m.Clear(ctx)
		}
	}
}

// Close drops the memory tier and closes the persistent store if it holds
// resources.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.lru.Purge()
	m.memoryUsage = 0
	m.mu.Unlock()
	if c, ok := m.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (m *Manager) fail(op, key string, err error) {
	m.logger.Warn("cache: persistent tier failure",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()))
	msg := key
	if msg == "" {
		msg = "*"
	}
	m.reporter.Report(apperr.New(apperr.KindCache, op, msg, err))
}
