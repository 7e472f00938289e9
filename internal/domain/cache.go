package domain

import (
	"encoding/json"
	"time"
)

// CacheStatus type
type CacheStatus string

const (
	// CacheStatusUninitialized const
	CacheStatusUninitialized CacheStatus = "uninitialized"
	// CacheStatusLoading const
	CacheStatusLoading CacheStatus = "loading"
	// CacheStatusPopulated const
	CacheStatusPopulated CacheStatus = "populated"
	// CacheStatusError const
	CacheStatusError CacheStatus = "error"
)

// Snapshot is the view of one cache entry delivered to subscribers.
// Data may be present alongside Err when the last fetch failed after an earlier success.
type Snapshot struct {
	Key         QueryKey
	Status      CacheStatus
	Data        json.RawMessage
	Err         error
	Stale       bool
	Subscribers int
	FetchedAt   time.Time
}

// IsLoading reports whether a fetch for the entry is in flight
func (s Snapshot) IsLoading() bool {
	return s.Status == CacheStatusLoading
}

// Decode unmarshals the snapshot data into v
func (s Snapshot) Decode(v any) error {
	if len(s.Data) == 0 {
		return nil
	}
	return json.Unmarshal(s.Data, v)
}
