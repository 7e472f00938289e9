package application

import (
	"sync"

	"booking-session-cache/internal/domain"
	"booking-session-cache/internal/ports/input"
	"booking-session-cache/internal/ports/output"

	"github.com/sirupsen/logrus"
)

// Compile-time checks: the manager serves consumers and supplies credentials to dispatchers
var (
	_ input.SessionService    = (*SessionManager)(nil)
	_ output.CredentialSource = (*SessionManager)(nil)
)

// SessionManager struct - Application service owning the client session.
// State transitions are computed by domain.ReduceSession; the manager only
// serialises them, persists the result and answers reads.
type SessionManager struct {
	mu      sync.RWMutex
	session domain.Session
	store   output.SessionStore
}

// NewSessionManager func - Creates the session manager, loading the persisted session
func NewSessionManager(store output.SessionStore) *SessionManager {
	session := store.Load()
	logrus.Infof("Session manager initialized: authenticated=%t", session.IsAuthenticated())
	return &SessionManager{
		session: session,
		store:   store,
	}
}

// CurrentUser returns a copy of the signed-in user's profile
func (m *SessionManager) CurrentUser() (domain.UserProfile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session.User == nil {
		return nil, false
	}
	return m.session.User.Clone(), true
}

// AccessToken returns the current access token
func (m *SessionManager) AccessToken() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.AccessToken, m.session.AccessToken != ""
}

// RefreshToken returns the current refresh token
func (m *SessionManager) RefreshToken() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.RefreshToken, m.session.RefreshToken != ""
}

// IsAuthenticated is true iff an access token is present
func (m *SessionManager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.IsAuthenticated()
}

// Snapshot returns a copy of the whole session
func (m *SessionManager) Snapshot() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Clone()
}

// Authenticate replaces the session with a login, signup or provider-signup result
func (m *SessionManager) Authenticate(event domain.AuthSucceeded) error {
	return m.apply(event)
}

// UpdateProfile merges fields returned by a profile update into the current user
func (m *SessionManager) UpdateProfile(fields domain.UserProfile) error {
	return m.apply(domain.ProfileUpdated{Fields: fields})
}

// RefreshTokens stores renewed credentials
func (m *SessionManager) RefreshTokens(accessToken, refreshToken string) error {
	return m.apply(domain.TokensRefreshed{AccessToken: accessToken, RefreshToken: refreshToken})
}

// Logout clears the session and removes the durable copy
func (m *SessionManager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session, _ = domain.ReduceSession(m.session, domain.LoggedOut{})
	m.store.Clear()
	logrus.Info("Session cleared")
}

func (m *SessionManager) apply(event domain.SessionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := domain.ReduceSession(m.session, event)
	if err != nil {
		logrus.Errorf("Rejected session transition %T: %v", event, err)
		return err
	}
	if err := next.Validate(); err != nil {
		logrus.Errorf("Rejected session transition %T: %v", event, err)
		return err
	}

	m.session = next
	m.store.Save(next)
	logrus.Debugf("Session updated by %T: user=%s", event, next.User.ID())
	return nil
}
