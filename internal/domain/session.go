package domain

import "fmt"

// UserProfile is the opaque profile record returned by the marketplace API.
// The cache layer never interprets its fields.
type UserProfile map[string]any

// Clone returns a shallow copy of the profile
func (p UserProfile) Clone() UserProfile {
	if p == nil {
		return nil
	}
	out := make(UserProfile, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// ID returns the "id" field of the profile as a string, if present
func (p UserProfile) ID() string {
	if p == nil {
		return ""
	}
	if id, ok := p["id"]; ok && id != nil {
		return fmt.Sprint(id)
	}
	return ""
}

// Session represents the authenticated identity of the running client.
// AccessToken present means authenticated; a User without an AccessToken is never valid.
type Session struct {
	User         UserProfile `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// IsAuthenticated is derived from the access token, never stored
func (s Session) IsAuthenticated() bool {
	return s.AccessToken != ""
}

// IsEmpty reports whether the session is the fully-absent session
func (s Session) IsEmpty() bool {
	return s.User == nil && s.AccessToken == "" && s.RefreshToken == ""
}

// Validate checks the session invariants
func (s Session) Validate() error {
	if s.User != nil && s.AccessToken == "" {
		return fmt.Errorf("%w: user present without access token", ErrInvalidSessionState)
	}
	if s.User == nil && s.AccessToken != "" {
		return fmt.Errorf("%w: access token present without user", ErrInvalidSessionState)
	}
	if s.AccessToken == "" && s.RefreshToken != "" {
		return fmt.Errorf("%w: refresh token present without access token", ErrInvalidSessionState)
	}
	return nil
}

// Clone returns a copy that shares nothing mutable with s
func (s Session) Clone() Session {
	s.User = s.User.Clone()
	return s
}

// SessionEvent is an input to ReduceSession
type SessionEvent interface {
	sessionEvent()
}

// AuthSucceeded is produced by login, signup and provider-signup results
type AuthSucceeded struct {
	User         UserProfile
	AccessToken  string
	RefreshToken string
}

// ProfileUpdated is produced by a profile-update result
type ProfileUpdated struct {
	Fields UserProfile
}

// TokensRefreshed is produced by a successful token refresh
type TokensRefreshed struct {
	AccessToken  string
	RefreshToken string
}

// LoggedOut clears the session
type LoggedOut struct{}

func (AuthSucceeded) sessionEvent()   {}
func (ProfileUpdated) sessionEvent()  {}
func (TokensRefreshed) sessionEvent() {}
func (LoggedOut) sessionEvent()       {}

// ReduceSession returns the session that results from applying event to current.
// It never mutates current. Transitions that would produce an invalid session
// return ErrInvalidSessionState and leave the caller's state untouched.
func ReduceSession(current Session, event SessionEvent) (Session, error) {
	switch e := event.(type) {
	case AuthSucceeded:
		if e.User == nil || e.AccessToken == "" {
			return current, fmt.Errorf("%w: auth result requires user and access token", ErrInvalidSessionState)
		}
		return Session{
			User:         e.User.Clone(),
			AccessToken:  e.AccessToken,
			RefreshToken: e.RefreshToken,
		}, nil

	case ProfileUpdated:
		if !current.IsAuthenticated() {
			return current, fmt.Errorf("%w: profile update while anonymous", ErrInvalidSessionState)
		}
		next := current.Clone()
		if next.User == nil {
			next.User = UserProfile{}
		}
		for k, v := range e.Fields {
			next.User[k] = v
		}
		return next, nil

	case TokensRefreshed:
		if !current.IsAuthenticated() {
			return current, fmt.Errorf("%w: token refresh while anonymous", ErrInvalidSessionState)
		}
		if e.AccessToken == "" {
			return current, fmt.Errorf("%w: refreshed access token is empty", ErrInvalidSessionState)
		}
		next := current.Clone()
		next.AccessToken = e.AccessToken
		if e.RefreshToken != "" {
			next.RefreshToken = e.RefreshToken
		}
		return next, nil

	case LoggedOut:
		return Session{}, nil

	default:
		return current, fmt.Errorf("unknown session event %T", event)
	}
}
