package codec

import (
	"context"
	"encoding/json"
	"time"

	"booking-session-cache/internal/domain"
	"booking-session-cache/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure SessionCodec implements SessionStore interface
var _ output.SessionStore = (*SessionCodec)(nil)

// DefaultStorageKey is the storage key holding the session blob
const DefaultStorageKey = "persist:auth"

const storageTimeout = 5 * time.Second

// SessionCodec struct - Output adapter encoding the session as one JSON blob in durable storage
type SessionCodec struct {
	storage output.DurableStorage
	key     string
}

// NewSessionCodec func - Creates new session codec; an empty key selects DefaultStorageKey
func NewSessionCodec(storage output.DurableStorage, key string) *SessionCodec {
	if key == "" {
		key = DefaultStorageKey
	}
	return &SessionCodec{
		storage: storage,
		key:     key,
	}
}

// Load returns the persisted session, falling back to the empty session on any problem
func (c *SessionCodec) Load() domain.Session {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	raw, found, err := c.storage.Get(ctx, c.key)
	if err != nil {
		logrus.Warnf("Failed to read persisted session %s: %v", c.key, err)
		return domain.Session{}
	}
	if !found {
		return domain.Session{}
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		logrus.Warnf("Discarding unreadable persisted session %s: %v", c.key, err)
		return domain.Session{}
	}
	if err := session.Validate(); err != nil {
		logrus.Warnf("Discarding persisted session %s: %v", c.key, err)
		return domain.Session{}
	}
	return session
}

// Save writes the session blob; failures are logged and swallowed
func (c *SessionCodec) Save(session domain.Session) {
	blob, err := json.Marshal(session)
	if err != nil {
		logrus.Errorf("Failed to encode session: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	if err := c.storage.Set(ctx, c.key, string(blob)); err != nil {
		logrus.Errorf("Failed to persist session %s: %v", c.key, err)
	}
}

// Clear removes the session blob
func (c *SessionCodec) Clear() {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	if err := c.storage.Remove(ctx, c.key); err != nil {
		logrus.Errorf("Failed to remove persisted session %s: %v", c.key, err)
	}
}
