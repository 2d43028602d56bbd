// Package cache implements the process-wide query cache: semantic keys,
// per-key staleness windows, stale-while-revalidate, deduplication of
// identical in-flight fetches, and cascade invalidation between related keys.
//
// The cache is an explicit injectable service created once per process and
// passed by reference; nothing here lives in package-level state.
package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/circulab/marketplace-go/pkg/logger"
	"github.com/circulab/marketplace-go/pkg/metrics"
)

// Key is a semantic cache key: an ordered list of segments, e.g.
// K("suggestions", "list").
type Key []string

// K builds a Key from segments.
func K(parts ...string) Key {
	return Key(parts)
}

// String returns the canonical form of the key.
func (k Key) String() string {
	return strings.Join(k, "/")
}

// HasPrefix reports whether k starts with prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

// FetchFunc loads the value for a key from the backend.
type FetchFunc func(ctx context.Context) (any, error)

// Options configures a Cache.
type Options struct {
	// MaxEntries bounds the cache; least recently used entries are evicted.
	MaxEntries int
	// DefaultStaleTime is the staleness window for keys without an explicit one.
	DefaultStaleTime time.Duration
	// RetryMax is the number of retries after the first failed fetch.
	RetryMax int
	// RetryInterval is the wait between retry attempts.
	RetryInterval time.Duration
	// PermanentError reports errors that must not be retried (auth, rate
	// limit). Nil means everything is retryable.
	PermanentError func(error) bool
	Logger         *logger.Logger
}

type entry struct {
	key       Key
	data      any
	err       error
	hasData   bool
	invalid   bool
	fetchedAt time.Time
	staleTime time.Duration
}

type call struct {
	done chan struct{}
	data any
	err  error
}

// Cache is the query cache. Safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	ll         *list.List
	entries    map[string]*list.Element
	inflight   map[string]*call
	refetching map[string]context.CancelFunc
	edges      map[string][]Key
	opts       Options
	now        func() time.Time
}

// New creates a query cache.
func New(opts Options) *Cache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 256
	}
	if opts.DefaultStaleTime <= 0 {
		opts.DefaultStaleTime = 30 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Cache{
		ll:         list.New(),
		entries:    make(map[string]*list.Element),
		inflight:   make(map[string]*call),
		refetching: make(map[string]context.CancelFunc),
		edges:      make(map[string][]Key),
		opts:       opts,
		now:        time.Now,
	}
}

// Get returns the cached value for key, if any. Entries holding only an error
// report no value.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key.String()]
	if !ok {
		return nil, false
	}
	e := el.Value.(*entry)
	if !e.hasData {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return e.data, true
}

// Err returns the last fetch error recorded for key, if any. Previous data is
// retained alongside the error and still served by Get.
func (c *Cache) Err(key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key.String()]; ok {
		return el.Value.(*entry).err
	}
	return nil
}

// Set stores a value for key, marking it fresh.
func (c *Cache) Set(key Key, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, data)
}

// Delete removes the entry for key.
func (c *Cache) Delete(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key.String()]; ok {
		c.removeLocked(el)
	}
}

// Invalidate marks every key under prefix stale. Data is retained and keeps
// being served until the next refetch completes.
func (c *Cache) Invalidate(prefix Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, el := range c.entries {
		e := el.Value.(*entry)
		if e.key.HasPrefix(prefix) {
			e.invalid = true
		}
	}
}

// Clear drops every entry and cancels pending refetches. Called on logout.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cancel := range c.refetching {
		cancel()
	}
	c.refetching = make(map[string]context.CancelFunc)
	c.entries = make(map[string]*list.Element)
	c.ll.Init()
	metrics.CacheEntries.Set(0)
}

// SetStaleTime overrides the staleness window for an existing entry.
func (c *Cache) SetStaleTime(key Key, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key.String()]; ok {
		el.Value.(*entry).staleTime = d
	}
}

// Link registers a cascade: when trigger fires, all targets are invalidated.
func (c *Cache) Link(trigger string, targets ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edges[trigger] = append(c.edges[trigger], targets...)
}

// Cascade invalidates every key linked to trigger.
func (c *Cache) Cascade(trigger string) {
	c.mu.Lock()
	targets := c.edges[trigger]
	c.mu.Unlock()

	for _, target := range targets {
		c.Invalidate(target)
	}
	if len(targets) > 0 {
		c.opts.Logger.Debug("cache cascade",
			zap.String("trigger", trigger),
			zap.Int("targets", len(targets)),
		)
	}
}

// CancelRefetch aborts a background refetch for key so a late response cannot
// clobber a value written after the cancel. Mutations call this before their
// optimistic write.
func (c *Cache) CancelRefetch(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ks := key.String()
	if cancel, ok := c.refetching[ks]; ok {
		cancel()
		delete(c.refetching, ks)
	}
}

// GetOrFetch returns the value for key, fetching it when missing. Fresh data
// is served directly. Stale data is served immediately while a background
// refetch runs. Concurrent fetches for the same cold key are deduplicated:
// the second caller awaits the first's in-flight result.
func (c *Cache) GetOrFetch(ctx context.Context, key Key, fetch FetchFunc) (any, error) {
	return c.GetOrFetchTTL(ctx, key, c.opts.DefaultStaleTime, fetch)
}

// GetOrFetchTTL is GetOrFetch with an explicit staleness window for the entry.
func (c *Cache) GetOrFetchTTL(ctx context.Context, key Key, staleTime time.Duration, fetch FetchFunc) (any, error) {
	ks := key.String()

	c.mu.Lock()
	if el, ok := c.entries[ks]; ok {
		e := el.Value.(*entry)
		if e.hasData {
			c.ll.MoveToFront(el)
			e.staleTime = staleTime
			if !c.staleLocked(e) {
				data := e.data
				c.mu.Unlock()
				metrics.RecordCacheHit("fresh")
				return data, nil
			}
			data := e.data
			c.refetchLocked(key, staleTime, fetch)
			c.mu.Unlock()
			metrics.RecordCacheHit("stale")
			return data, nil
		}
	}

	if cl, ok := c.inflight[ks]; ok {
		c.mu.Unlock()
		metrics.DedupedFetchesTotal.Inc()
		select {
		case <-cl.done:
			return cl.data, cl.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	cl := &call{done: make(chan struct{})}
	c.inflight[ks] = cl
	c.mu.Unlock()
	metrics.CacheMissesTotal.Inc()

	data, err := c.fetchWithRetry(ctx, fetch)
	cl.data, cl.err = data, err

	c.mu.Lock()
	delete(c.inflight, ks)
	if err == nil {
		c.setLocked(key, data)
		if el, ok := c.entries[ks]; ok {
			el.Value.(*entry).staleTime = staleTime
		}
	} else {
		c.setErrorLocked(key, err)
	}
	c.mu.Unlock()
	close(cl.done)

	return data, err
}

// refetchLocked starts a background refetch for a stale key unless one is
// already running. Caller holds the lock.
func (c *Cache) refetchLocked(key Key, staleTime time.Duration, fetch FetchFunc) {
	ks := key.String()
	if _, running := c.refetching[ks]; running {
		return
	}

	rctx, cancel := context.WithCancel(context.Background())
	c.refetching[ks] = cancel

	go func() {
		data, err := c.fetchWithRetry(rctx, fetch)

		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.refetching, ks)
		if rctx.Err() != nil {
			// Cancelled: an optimistic write owns the entry now.
			return
		}
		if err == nil {
			c.setLocked(key, data)
			if el, ok := c.entries[ks]; ok {
				el.Value.(*entry).staleTime = staleTime
			}
		} else {
			c.setErrorLocked(key, err)
			c.opts.Logger.Warn("background refetch failed",
				zap.String("cache_key", ks),
				zap.Error(err),
			)
		}
	}()
}

func (c *Cache) staleLocked(e *entry) bool {
	if e.invalid {
		return true
	}
	return c.now().Sub(e.fetchedAt) > e.staleTime
}

func (c *Cache) setLocked(key Key, data any) {
	ks := key.String()
	if el, ok := c.entries[ks]; ok {
		e := el.Value.(*entry)
		e.data = data
		e.err = nil
		e.hasData = true
		e.invalid = false
		e.fetchedAt = c.now()
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry{
		key:       key,
		data:      data,
		hasData:   true,
		fetchedAt: c.now(),
		staleTime: c.opts.DefaultStaleTime,
	})
	c.entries[ks] = el
	metrics.CacheEntries.Set(float64(c.ll.Len()))

	for c.ll.Len() > c.opts.MaxEntries {
		oldest := c.ll.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
		metrics.CacheEvictionsTotal.Inc()
	}
}

func (c *Cache) setErrorLocked(key Key, err error) {
	ks := key.String()
	if el, ok := c.entries[ks]; ok {
		// Retain previous data for display; only record the error.
		el.Value.(*entry).err = err
		return
	}
	el := c.ll.PushFront(&entry{
		key:       key,
		err:       err,
		staleTime: c.opts.DefaultStaleTime,
	})
	c.entries[ks] = el
	metrics.CacheEntries.Set(float64(c.ll.Len()))
}

func (c *Cache) removeLocked(el *list.Element) {
	e := el.Value.(*entry)
	c.ll.Remove(el)
	delete(c.entries, e.key.String())
	metrics.CacheEntries.Set(float64(c.ll.Len()))
}
