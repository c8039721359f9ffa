package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Status is what a subscriber sees for a delivered update.
type Status string

const (
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Freshness tracks whether an entry's value can still be trusted.
type Freshness string

const (
	FreshnessFresh   Freshness = "fresh"
	FreshnessStale   Freshness = "stale"
	FreshnessPending Freshness = "pending"
)

// Fetcher loads the value for a cache entry from the remote store API.
type Fetcher func(ctx context.Context) (interface{}, error)

// Update is delivered to subscribers as an entry transitions. On StatusError,
// Value still carries the last successful response if one exists.
type Update struct {
	Status    Status
	Freshness Freshness
	Value     interface{}
	Err       error
}

type entry struct {
	endpoint string
	tags     []Tag
	fetch    Fetcher

	freshness Freshness
	value     interface{}
	hasValue  bool
	lastErr   error

	// gen increments on invalidation so an in-flight fetch started before the
	// invalidation cannot mark the entry fresh with pre-mutation data.
	gen      uint64
	fetching bool

	subs    map[int]chan Update
	waiters []chan Update
}

// Cache is the process-wide entity cache. It is constructed once in main and
// injected into every consumer; tests build a fresh instance per case.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	nextSub int
	logger  *zap.Logger
}

func New(logger *zap.Logger) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		logger:  logger,
	}
}

// Key builds the deterministic entry key from an endpoint and its arguments.
// Arguments are serialized in sorted order so equivalent argument sets map to
// the same entry regardless of construction order.
func Key(endpoint string, args map[string]string) string {
	if len(args) == 0 {
		return endpoint
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(endpoint)
	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(args[k])
	}
	return b.String()
}

// Query reads through the cache: a fresh entry is returned as-is, anything
// else triggers (or joins) a fetch and waits for its outcome. On error the
// last successful value is returned alongside the error.
func (c *Cache) Query(ctx context.Context, endpoint string, args map[string]string, tags []Tag, fetch Fetcher) (interface{}, error) {
	key := Key(endpoint, args)

	c.mu.Lock()
	e := c.ensureLocked(key, endpoint, tags, fetch)
	if e.hasValue && e.freshness == FreshnessFresh {
		v := e.value
		c.mu.Unlock()
		util.CacheHitsTotal.Inc()
		return v, nil
	}
	util.CacheMissesTotal.Inc()

	ch := make(chan Update, 1)
	e.waiters = append(e.waiters, ch)
	c.startFetchLocked(e)
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		c.dropWaiter(key, ch)
		return nil, ctx.Err()
	case u := <-ch:
		return u.Value, u.Err
	}
}

// QueryTyped is the type-safe wrapper over Query.
func QueryTyped[T any](ctx context.Context, c *Cache, endpoint string, args map[string]string, tags []Tag, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Query(ctx, endpoint, args, tags, func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	})
	if v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache entry %s holds %T, want %T", endpoint, v, zero)
	}
	return t, err
}

// Subscription delivers ongoing updates for one entry to one caller.
type Subscription struct {
	cache *Cache
	key   string
	id    int
	ch    chan Update
	once  sync.Once
}

// Updates is the stream of entry transitions for this subscriber.
func (s *Subscription) Updates() <-chan Update {
	return s.ch
}

// Close detaches the subscriber. An in-flight fetch still completes and
// updates the entry for everyone else.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.cache.mu.Lock()
		if e, ok := s.cache.entries[s.key]; ok {
			delete(e.subs, s.id)
		}
		s.cache.mu.Unlock()
	})
}

// Subscribe attaches a subscriber to an entry, delivering the latest known
// value immediately and every transition afterwards. A stale or missing entry
// triggers a fetch; concurrent subscribers to the same key share it.
func (c *Cache) Subscribe(endpoint string, args map[string]string, tags []Tag, fetch Fetcher) *Subscription {
	key := Key(endpoint, args)

	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.ensureLocked(key, endpoint, tags, fetch)
	c.nextSub++
	sub := &Subscription{
		cache: c,
		key:   key,
		id:    c.nextSub,
		ch:    make(chan Update, 8),
	}
	e.subs[sub.id] = sub.ch

	if e.hasValue {
		sub.ch <- Update{Status: StatusSuccess, Freshness: e.freshness, Value: e.value}
	} else {
		sub.ch <- Update{Status: StatusLoading, Freshness: e.freshness}
	}
	if e.freshness != FreshnessFresh {
		c.startFetchLocked(e)
	}
	return sub
}

// Invalidate marks every entry whose provided tags intersect the given set as
// stale, atomically with respect to the caller. Entries with subscribers
// refetch immediately; the rest refetch lazily on next use.
func (c *Cache) Invalidate(tags []Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		inv, hit := intersects(tags, e.tags)
		if !hit {
			continue
		}
		e.freshness = FreshnessStale
		e.gen++
		util.CacheInvalidationsTotal.WithLabelValues(string(inv.Type)).Inc()
		c.logger.Debug("Cache entry invalidated",
			zap.String("key", key),
			zap.String("tag", inv.String()))

		if len(e.subs) > 0 {
			util.CacheRefetchesTotal.Inc()
			c.startFetchLocked(e)
		}
	}
}

// Peek returns the entry's current value and freshness without fetching.
func (c *Cache) Peek(endpoint string, args map[string]string) (interface{}, Freshness, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[Key(endpoint, args)]
	if !ok || !e.hasValue {
		return nil, "", false
	}
	return e.value, e.freshness, true
}

// Len reports the number of entries currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) ensureLocked(key, endpoint string, tags []Tag, fetch Fetcher) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			endpoint:  endpoint,
			tags:      tags,
			fetch:     fetch,
			freshness: FreshnessStale,
			subs:      make(map[int]chan Update),
		}
		c.entries[key] = e
		util.CacheEntries.Set(float64(len(c.entries)))
	} else {
		// Later callers may carry a richer tag set or fetcher; keep the
		// latest so lazy refetches work for entries created long ago.
		e.tags = tags
		e.fetch = fetch
	}
	return e
}

// startFetchLocked launches the network call for an entry unless one is
// already in flight; that single flight serves every waiter and subscriber.
// The fetch is deliberately detached from any caller context so an
// unsubscribe cannot cancel it for others.
func (c *Cache) startFetchLocked(e *entry) {
	if e.fetching {
		return
	}
	e.fetching = true
	e.freshness = FreshnessPending
	gen := e.gen

	go func() {
		value, err := e.fetch(context.Background())

		c.mu.Lock()
		e.fetching = false

		var u Update
		if err != nil {
			e.lastErr = err
			e.freshness = FreshnessStale
			util.CacheFetchErrorsTotal.Inc()
			u = Update{Status: StatusError, Freshness: e.freshness, Value: e.value, Err: err}
		} else {
			e.value = value
			e.hasValue = true
			e.lastErr = nil
			if e.gen == gen {
				e.freshness = FreshnessFresh
			} else {
				// Invalidated while in flight: this response predates the
				// mutation, so it must not be trusted as fresh.
				e.freshness = FreshnessStale
			}
			u = Update{Status: StatusSuccess, Freshness: e.freshness, Value: value}
		}

		waiters := e.waiters
		e.waiters = nil
		for _, ch := range e.subs {
			select {
			case ch <- u:
			default:
				// Slow subscribers drop intermediate updates rather than
				// block the cache.
			}
		}

		refetch := err == nil && e.gen != gen && len(e.subs) > 0
		if refetch {
			util.CacheRefetchesTotal.Inc()
			c.startFetchLocked(e)
		}
		c.mu.Unlock()

		for _, ch := range waiters {
			ch <- u
		}
	}()
}

func (c *Cache) dropWaiter(key string, ch chan Update) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	for i, w := range e.waiters {
		if w == ch {
			e.waiters = append(e.waiters[:i], e.waiters[i+1:]...)
			return
		}
	}
}
