package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"booking-session-cache/internal/domain"
	"booking-session-cache/internal/ports/output"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultRetention is how long an unsubscribed entry is kept before eviction
const DefaultRetention = 60 * time.Second

type entry struct {
	key         domain.QueryKey
	descriptor  domain.QueryDescriptor
	status      domain.CacheStatus
	data        json.RawMessage
	err         error
	stale       bool
	fetchedAt   time.Time
	generation  uint64
	subscribers map[uuid.UUID]*Subscription
	evictTimer  *time.Timer

	// evictSeq identifies the armed retention timer; bumped whenever it is armed or cancelled
	evictSeq uint64
}

func (e *entry) snapshot() domain.Snapshot {
	return domain.Snapshot{
		Key:         e.key,
		Status:      e.status,
		Data:        e.data,
		Err:         e.err,
		Stale:       e.stale,
		Subscribers: len(e.subscribers),
		FetchedAt:   e.fetchedAt,
	}
}

// RequestCache struct - maps query keys to their last known response.
// Every state transition happens under mu; dispatcher calls run outside it.
// At most one fetch per key is authoritative: each fetch carries the entry's
// generation and a response whose generation is no longer current is dropped.
type RequestCache struct {
	mu         sync.Mutex
	entries    map[domain.QueryKey]*entry
	tags       *TagIndex
	dispatcher output.Dispatcher
	observer   output.CacheObserver
	retention  time.Duration
	closed     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// CacheOption configures a RequestCache
type CacheOption func(*RequestCache)

// WithRetention sets how long unsubscribed entries survive
func WithRetention(retention time.Duration) CacheOption {
	return func(c *RequestCache) {
		if retention >= 0 {
			c.retention = retention
		}
	}
}

// WithObserver attaches an observer, e.g. the prometheus adapter
func WithObserver(observer output.CacheObserver) CacheOption {
	return func(c *RequestCache) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// NewRequestCache func - Creates a request cache fetching through dispatcher
func NewRequestCache(dispatcher output.Dispatcher, opts ...CacheOption) *RequestCache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &RequestCache{
		entries:    make(map[domain.QueryKey]*entry),
		tags:       NewTagIndex(),
		dispatcher: dispatcher,
		observer:   nopObserver{},
		retention:  DefaultRetention,
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query resolves a query intent and subscribes to its entry.
// A fetch is started when the entry is new, stale or in error; a query for a
// key that is already loading attaches to the in-flight fetch.
func (c *RequestCache) Query(desc domain.QueryDescriptor) (*Subscription, error) {
	key, err := desc.Key()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrCacheClosed
	}

	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			key:         key,
			descriptor:  desc,
			status:      domain.CacheStatusUninitialized,
			subscribers: make(map[uuid.UUID]*Subscription),
		}
		c.entries[key] = e
		c.tags.Register(key, desc.Tags)
		logrus.Debugf("Cache entry created: key=%s tags=%v", key, desc.Tags)
	}
	return c.subscribe(e), nil
}

// Subscribe attaches a new consumer to an existing entry
func (c *RequestCache) Subscribe(key domain.QueryKey) (*Subscription, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, domain.ErrCacheClosed
	}
	e, ok := c.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrEntryNotFound, key)
	}
	return c.subscribe(e), nil
}

// Fetch queries desc and waits for the first settled snapshot.
// The returned error is the snapshot's fetch error, if any; the snapshot may
// still carry the last good data in that case.
func (c *RequestCache) Fetch(ctx context.Context, desc domain.QueryDescriptor) (domain.Snapshot, error) {
	sub, err := c.Query(desc)
	if err != nil {
		return domain.Snapshot{}, err
	}
	defer sub.Unsubscribe()

	for {
		snap, err := sub.Next(ctx)
		if err != nil {
			return sub.Current(), err
		}
		if !snap.IsLoading() {
			return snap, snap.Err
		}
	}
}

// Mutate always dispatches desc and, on success, invalidates the tags it declares
func (c *RequestCache) Mutate(ctx context.Context, desc domain.MutationDescriptor) (json.RawMessage, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, domain.ErrCacheClosed
	}

	data, err := c.dispatcher.Send(ctx, desc.Request)
	if err != nil {
		logrus.Warnf("Mutation %s failed: %v", desc.Endpoint, err)
		return nil, err
	}
	if len(desc.Invalidates) > 0 {
		c.Invalidate(desc.Invalidates)
	}
	return data, nil
}

// Invalidate marks every entry carrying one of tags stale.
// Subscribed entries are refetched right away; unsubscribed ones refetch on their next subscription.
func (c *RequestCache) Invalidate(tags []domain.Tag) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range c.tags.Lookup(tags) {
		e, ok := c.entries[key]
		if !ok {
			continue
		}
		e.stale = true
		refetch := len(e.subscribers) > 0
		c.observer.Invalidated(key, refetch)
		if refetch {
			c.startFetch(e)
		}
	}
	logrus.Debugf("Invalidated tags %v", tags)
}

// Refetch forces a new fetch for key, superseding any fetch in flight
func (c *RequestCache) Refetch(key domain.QueryKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrCacheClosed
	}
	e, ok := c.entries[key]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, key)
	}
	c.startFetch(e)
	return nil
}

// Reset drops all cached data. Unsubscribed entries are evicted, subscribed
// ones lose their data and are fetched again.
func (c *RequestCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		if len(e.subscribers) == 0 {
			c.evict(e)
			continue
		}
		e.data = nil
		e.err = nil
		e.fetchedAt = time.Time{}
		c.startFetch(e)
	}
	logrus.Info("Request cache reset")
}

// Snapshot returns the current state of key
func (c *RequestCache) Snapshot(key domain.QueryKey) (domain.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return domain.Snapshot{}, false
	}
	return e.snapshot(), true
}

// Keys returns every cached key in sorted order
func (c *RequestCache) Keys() []domain.QueryKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]domain.QueryKey, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Close stops retention timers, cancels fetches in flight and closes every subscription
func (c *RequestCache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for _, e := range c.entries {
		c.cancelEviction(e)
		for _, sub := range e.subscribers {
			sub.close()
		}
	}
	c.entries = make(map[domain.QueryKey]*entry)
	c.tags = NewTagIndex()
	c.cancel()
	c.mu.Unlock()

	c.wg.Wait()
	logrus.Info("Request cache closed")
}

// subscribe must be called with mu held
func (c *RequestCache) subscribe(e *entry) *Subscription {
	c.cancelEviction(e)
	sub := newSubscription(c, e.key)
	e.subscribers[sub.id] = sub

	endpoint := e.descriptor.Endpoint
	switch {
	case e.status == domain.CacheStatusLoading && !e.stale:
		c.observer.QueryServed(endpoint, false)
		c.observer.FetchDeduplicated(endpoint)
		sub.push(e.snapshot())
	case e.status == domain.CacheStatusPopulated && !e.stale:
		c.observer.QueryServed(endpoint, true)
		sub.push(e.snapshot())
	default:
		c.observer.QueryServed(endpoint, false)
		c.startFetch(e)
	}
	return sub
}

func (c *RequestCache) unsubscribe(sub *Subscription) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub.close()

	e, ok := c.entries[sub.key]
	if !ok {
		return
	}
	if _, ok := e.subscribers[sub.id]; !ok {
		return
	}
	delete(e.subscribers, sub.id)
	if len(e.subscribers) == 0 {
		c.scheduleEviction(e)
	}
}

// startFetch must be called with mu held
func (c *RequestCache) startFetch(e *entry) {
	e.generation++
	e.status = domain.CacheStatusLoading
	e.stale = false
	c.broadcast(e)

	c.wg.Add(1)
	go c.fetch(e, e.generation, e.descriptor)
}

func (c *RequestCache) fetch(e *entry, generation uint64, desc domain.QueryDescriptor) {
	defer c.wg.Done()

	started := time.Now()
	data, err := c.dispatcher.Send(c.ctx, desc.Request)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[e.key] != e || e.generation != generation {
		logrus.Debugf("Discarding superseded response: key=%s generation=%d", e.key, generation)
		c.observer.FetchDiscarded(desc.Endpoint)
		return
	}

	if err != nil {
		e.status = domain.CacheStatusError
		e.err = err
		logrus.Warnf("Query %s failed: %v", e.key, err)
	} else {
		if data == nil {
			data = json.RawMessage("null")
		}
		e.status = domain.CacheStatusPopulated
		e.data = data
		e.err = nil
		e.fetchedAt = time.Now()
	}
	c.observer.FetchCompleted(desc.Endpoint, time.Since(started), err)
	c.broadcast(e)

	if len(e.subscribers) == 0 {
		c.scheduleEviction(e)
	}
}

func (c *RequestCache) broadcast(e *entry) {
	snap := e.snapshot()
	for _, sub := range e.subscribers {
		sub.push(snap)
	}
}

// scheduleEviction must be called with mu held
func (c *RequestCache) scheduleEviction(e *entry) {
	if c.closed || e.evictTimer != nil {
		return
	}
	e.evictSeq++
	seq := e.evictSeq
	e.evictTimer = time.AfterFunc(c.retention, func() {
		c.expire(e, seq)
	})
}

// cancelEviction must be called with mu held
func (c *RequestCache) cancelEviction(e *entry) {
	if e.evictTimer != nil {
		e.evictTimer.Stop()
		e.evictTimer = nil
	}
	e.evictSeq++
}

func (c *RequestCache) expire(e *entry, seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// a timer that was stopped after it had already fired
	if e.evictSeq != seq {
		return
	}
	e.evictTimer = nil
	if c.entries[e.key] != e || len(e.subscribers) > 0 {
		return
	}
	// the fetch completion re-arms the timer
	if e.status == domain.CacheStatusLoading {
		return
	}
	c.evict(e)
}

// evict must be called with mu held
func (c *RequestCache) evict(e *entry) {
	c.cancelEviction(e)
	delete(c.entries, e.key)
	c.tags.Unregister(e.key)
	c.observer.Evicted(e.key)
	logrus.Debugf("Cache entry evicted: key=%s", e.key)
}

type nopObserver struct{}

func (nopObserver) QueryServed(string, bool)                    {}
func (nopObserver) FetchDeduplicated(string)                    {}
func (nopObserver) FetchCompleted(string, time.Duration, error) {}
func (nopObserver) FetchDiscarded(string)                       {}
func (nopObserver) Invalidated(domain.QueryKey, bool)           {}
func (nopObserver) Evicted(domain.QueryKey)                     {}
