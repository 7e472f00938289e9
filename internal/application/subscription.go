package application

import (
	"context"
	"sync"

	"booking-session-cache/internal/domain"

	"github.com/google/uuid"
)

// maxPendingSnapshots bounds the per-subscriber queue; the oldest snapshot is dropped first
const maxPendingSnapshots = 64

// Subscription is a consumer's handle on one cache entry.
// Snapshots are delivered through Next in the order the cache produced them.
type Subscription struct {
	id    uuid.UUID
	key   domain.QueryKey
	cache *RequestCache

	mu     sync.Mutex
	queue  []domain.Snapshot
	signal chan struct{}
	closed bool
	once   sync.Once
}

func newSubscription(cache *RequestCache, key domain.QueryKey) *Subscription {
	return &Subscription{
		id:     uuid.New(),
		key:    key,
		cache:  cache,
		signal: make(chan struct{}, 1),
	}
}

// ID returns the subscription identifier
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Key returns the query key the subscription is attached to
func (s *Subscription) Key() domain.QueryKey {
	return s.key
}

// Current returns the entry's latest state without consuming the queue
func (s *Subscription) Current() domain.Snapshot {
	snap, ok := s.cache.Snapshot(s.key)
	if !ok {
		return domain.Snapshot{Key: s.key, Status: domain.CacheStatusUninitialized}
	}
	return snap
}

// Next blocks until the next snapshot is available, the subscription is closed or ctx is done
func (s *Subscription) Next(ctx context.Context) (domain.Snapshot, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			snap := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return snap, nil
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return domain.Snapshot{}, domain.ErrSubscriptionClosed
		}

		select {
		case <-ctx.Done():
			return domain.Snapshot{}, ctx.Err()
		case <-s.signal:
		}
	}
}

// Unsubscribe detaches the handle from its entry. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.cache.unsubscribe(s)
	})
}

func (s *Subscription) push(snap domain.Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if len(s.queue) >= maxPendingSnapshots {
		s.queue = s.queue[1:]
	}
	s.queue = append(s.queue, snap)
	s.mu.Unlock()
	s.notify()
}

func (s *Subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.notify()
}

func (s *Subscription) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}
