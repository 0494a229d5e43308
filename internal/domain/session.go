package domain

import "time"

// User holds the identity claims the provider reported for a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the server-held authentication state, persisted in a sealed
// cookie. A session without an access token is invalid and treated as
// anonymous. RefreshToken is present only when offline access was granted
// and is single-use under rotation: once a refresh succeeds, the old value
// must never be sent again.
type Session struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Valid reports whether the session carries a usable credential.
// Expiry is checked separately by the resolver, which may still be able
// to refresh an expired token.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != ""
}

// Expired reports whether the access token is past its absolute expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// User returns the identity claims for this session.
func (s *Session) User() User {
	return User{ID: s.UserID, Email: s.Email}
}

// AuthContext is the resolved, request-scoped view of authentication
// state. All data-fetching within one request observes the same context.
type AuthContext struct {
	IsAuthenticated bool
	AccessToken     string
	User            *User
}

// Anonymous returns the unauthenticated auth context.
func Anonymous() AuthContext {
	return AuthContext{}
}

// Authenticated builds an auth context from a valid session.
func Authenticated(s *Session) AuthContext {
	u := s.User()
	return AuthContext{
		IsAuthenticated: true,
		AccessToken:     s.AccessToken,
		User:            &u,
	}
}
