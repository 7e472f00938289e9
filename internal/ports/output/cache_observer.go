package output

import (
	"time"

	"booking-session-cache/internal/domain"
)

// CacheObserver interface - Output port
// Receives notifications about request cache activity, e.g. for metrics.
// Methods are called with the cache lock held and must not call back into the cache.
type CacheObserver interface {
	// QueryServed is called for every query intent. hit is true when populated,
	// non-stale data was served without a fetch.
	QueryServed(endpoint string, hit bool)

	// FetchDeduplicated is called when a query attached to an in-flight fetch.
	FetchDeduplicated(endpoint string)

	// FetchCompleted is called when a fetch result was applied to the cache.
	FetchCompleted(endpoint string, duration time.Duration, err error)

	// FetchDiscarded is called when a superseded fetch result was dropped.
	FetchDiscarded(endpoint string)

	// Invalidated is called once per entry marked stale by tag invalidation.
	Invalidated(key domain.QueryKey, refetch bool)

	// Evicted is called when an unsubscribed entry's retention timer expired.
	Evicted(key domain.QueryKey)
}
