package output

import "context"

// DurableStorage interface - Output port
// A key-value string store that survives process restarts.
// Implementations must be safe for concurrent access.
type DurableStorage interface {
	// Get returns the value stored under key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
