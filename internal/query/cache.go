package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrDisabled is returned by Read when the options gate the query off.
var ErrDisabled = errors.New("query disabled")

// Clock is the time source the cache measures staleness and retry delays with.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Logger receives debug traces of discarded writes.
type Logger interface {
	Debug(msg string, args ...any)
}

// Fetcher loads the authoritative value for one key.
type Fetcher func(ctx context.Context) (any, error)

// Options control a single Read.
type Options struct {
	// StaleTime is how long a stored value is served without refetching.
	// Zero means every Read refetches, though concurrent Reads still share a fetch.
	StaleTime time.Duration

	// Disabled gates the query off: Read returns ErrDisabled without fetching
	// or creating the entry.
	Disabled bool

	// Retry is the number of extra attempts after a failed fetch.
	Retry int
	// RetryDelay is the delay before the first retry; it doubles per attempt.
	RetryDelay time.Duration
	// ShouldRetry reports whether err is transient. Nil retries every error.
	ShouldRetry func(err error) bool
}

// EventKind says what happened to an entry.
type EventKind int

const (
	Updated EventKind = iota
	Invalidated
	Removed
)

func (k EventKind) String() string {
	switch k {
	case Updated:
		return "updated"
	case Invalidated:
		return "invalidated"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is delivered to subscribers after an entry changes.
type Event struct {
	Key  Key
	Kind EventKind
}

type entry struct {
	id        string
	key       Key
	value     any
	hasValue  bool
	fetchedAt time.Time
	stale     bool
	inflight  *call

	// seq is the last token issued to a fetch for this key. A fetch result is
	// written only if its token is above floor.
	seq   uint64
	floor uint64

	// writes counts value changes; mutation rollback uses it to detect
	// entries written after an optimistic patch.
	writes uint64
}

type call struct {
	entry     *entry
	token     uint64
	done      chan struct{}
	val       any
	err       error
	refs      int
	abandoned bool
	cancel    context.CancelFunc
}

type subscription struct {
	prefix Key
	fn     func(Event)
}

// Cache is a process-wide, keyed, stale-time-aware store of server resources.
// Values stored in it are shared with every reader and must be treated as
// read-only; writers replace values instead of modifying them.
type Cache struct {
	clock  Clock
	logger Logger

	mu      sync.Mutex
	entries map[string]*entry
	subs    map[int]*subscription
	nextSub int
}

// New creates an empty cache.
func New(clock Clock, logger Logger) *Cache {
	return &Cache{
		clock:   clock,
		logger:  logger,
		entries: make(map[string]*entry),
		subs:    make(map[int]*subscription),
	}
}

// Read returns the cached value for key when it is present, not invalidated
// and younger than opts.StaleTime. Otherwise it joins the in-flight fetch for
// key or starts one.
//
// When ctx ends before the fetch completes, Read returns ctx.Err(). The fetch
// keeps running while other readers wait on it; once the last reader has gone
// it is cancelled and its result is never written.
func (c *Cache) Read(ctx context.Context, key Key, fetch Fetcher, opts Options) (any, error) {
	if opts.Disabled {
		return nil, ErrDisabled
	}

	c.mu.Lock()
	e := c.entryLocked(key)
	if e.hasValue && !e.stale && c.clock.Now().Sub(e.fetchedAt) < opts.StaleTime {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	cl := e.inflight
	if cl == nil {
		cl = c.startLocked(ctx, e, fetch, opts)
	}
	cl.refs++
	c.mu.Unlock()

	select {
	case <-cl.done:
		return cl.val, cl.err
	case <-ctx.Done():
		c.release(cl)
		return nil, ctx.Err()
	}
}

func (c *Cache) entryLocked(key Key) *entry {
	id := key.id()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{id: id, key: key.clone()}
		c.entries[id] = e
	}
	return e
}

func (c *Cache) startLocked(ctx context.Context, e *entry, fetch Fetcher, opts Options) *call {
	e.seq++
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	cl := &call{
		entry:  e,
		token:  e.seq,
		done:   make(chan struct{}),
		cancel: cancel,
	}
	e.inflight = cl
	go c.run(fetchCtx, cl, fetch, opts)
	return cl
}

func (c *Cache) run(ctx context.Context, cl *call, fetch Fetcher, opts Options) {
	defer cl.cancel()
	v, err := c.fetchWithRetry(ctx, fetch, opts)

	c.mu.Lock()
	e := cl.entry
	cl.val, cl.err = v, err
	if e.inflight == cl {
		e.inflight = nil
	}

	var events []Event
	switch {
	case cl.abandoned:
		c.logger.Debug("dropping result of abandoned fetch", "key", e.key.String())
	case err != nil:
	case c.entries[e.id] != e:
		c.logger.Debug("dropping result for removed entry", "key", e.key.String())
	case cl.token <= e.floor:
		c.logger.Debug("dropping superseded fetch result", "key", e.key.String(), "token", cl.token, "floor", e.floor)
	default:
		e.value = v
		e.hasValue = true
		e.fetchedAt = c.clock.Now()
		e.stale = false
		e.floor = cl.token
		e.writes++
		events = append(events, Event{Key: e.key, Kind: Updated})
	}
	close(cl.done)
	c.mu.Unlock()

	c.emit(events)
}

func (c *Cache) fetchWithRetry(ctx context.Context, fetch Fetcher, opts Options) (any, error) {
	delay := opts.RetryDelay
	for attempt := 0; ; attempt++ {
		v, err := fetch(ctx)
		if err == nil {
			return v, nil
		}
		if attempt >= opts.Retry || ctx.Err() != nil {
			return nil, err
		}
		if opts.ShouldRetry != nil && !opts.ShouldRetry(err) {
			return nil, err
		}
		if delay > 0 {
			select {
			case <-c.clock.After(delay):
			case <-ctx.Done():
				return nil, err
			}
			delay *= 2
		}
	}
}

// release drops one reader's interest in cl. The last reader to leave
// cancels the fetch and detaches it from its entry.
func (c *Cache) release(cl *call) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl.refs--
	if cl.refs > 0 {
		return
	}
	select {
	case <-cl.done:
		return
	default:
	}
	cl.abandoned = true
	cl.cancel()
	if cl.entry.inflight == cl {
		cl.entry.inflight = nil
	}
}

// Peek returns the stored value for key without fetching.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	if !ok || !e.hasValue {
		return nil, false
	}
	return e.value, true
}

// IsStale reports whether key has no value or has been invalidated.
func (c *Cache) IsStale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.id()]
	return !ok || !e.hasValue || e.stale
}

// Keys returns the keys of all entries holding a value, sorted.
func (c *Cache) Keys() []Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]Key, 0, len(c.entries))
	for _, e := range c.entries {
		if e.hasValue {
			keys = append(keys, e.key.clone())
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Set replaces the value for key and marks it fresh. In-flight fetches for
// key that started earlier will not overwrite it.
func (c *Cache) Set(key Key, value any) {
	c.mu.Lock()
	e := c.entryLocked(key)
	c.writeLocked(e, value)
	e.fetchedAt = c.clock.Now()
	e.stale = false
	c.mu.Unlock()

	c.emit([]Event{{Key: e.key, Kind: Updated}})
}

func (c *Cache) writeLocked(e *entry, value any) {
	e.value = value
	e.hasValue = true
	e.floor = e.seq
	e.writes++
}

// Update calls fn for every entry under prefix that holds a value. When fn
// reports a change, its result replaces the stored value. The entry's fetch
// time is left alone: a partial patch does not refresh the rest of the value.
// It returns the number of entries changed.
func (c *Cache) Update(prefix Key, fn func(key Key, value any) (any, bool)) int {
	c.mu.Lock()
	var events []Event
	for _, e := range c.entries {
		if !e.hasValue || !e.key.HasPrefix(prefix) {
			continue
		}
		next, changed := fn(e.key, e.value)
		if !changed {
			continue
		}
		c.writeLocked(e, next)
		events = append(events, Event{Key: e.key, Kind: Updated})
	}
	c.mu.Unlock()

	c.emit(events)
	return len(events)
}

// Invalidate marks every entry under prefix stale so the next Read refetches
// regardless of its stale time. Fetches already in flight are detached and
// their results discarded.
func (c *Cache) Invalidate(prefix Key) {
	c.mu.Lock()
	var events []Event
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.stale = true
		e.floor = e.seq
		e.inflight = nil
		events = append(events, Event{Key: e.key, Kind: Invalidated})
	}
	c.mu.Unlock()

	c.emit(events)
}

// Remove deletes every entry under prefix.
func (c *Cache) Remove(prefix Key) {
	c.mu.Lock()
	var events []Event
	for id, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		delete(c.entries, id)
		events = append(events, Event{Key: e.key, Kind: Removed})
	}
	c.mu.Unlock()

	c.emit(events)
}

// Clear deletes every entry.
func (c *Cache) Clear() { c.Remove(nil) }

// Subscribe registers fn for events on entries under prefix. fn runs on the
// goroutine that changed the entry, after the cache lock is released.
func (c *Cache) Subscribe(prefix Key, fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = &subscription{prefix: prefix.clone(), fn: fn}
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Cache) emit(events []Event) {
	if len(events) == 0 {
		return
	}
	c.mu.Lock()
	subs := make([]*subscription, 0, len(c.subs))
	for _, s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	for _, ev := range events {
		for _, s := range subs {
			if ev.Key.HasPrefix(s.prefix) {
				s.fn(ev)
			}
		}
	}
}
