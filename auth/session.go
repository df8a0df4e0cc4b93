package auth

import (
	"errors"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoToken is returned when a request is attempted before authentication.
var ErrNoToken = errors.New("no session token: authenticate first")

// Info describes an authenticated device session.
type Info struct {
	// Token is the encoded bearer token.
	Token string
	// DeviceID is the broker username, e.g. "device_42".
	DeviceID string
	// MQTTHost is the broker host assigned to the device.
	MQTTHost string
	// Server is the web app base URL.
	Server string
}

// Session holds the token shared by the web API client and the broker
// client. It is set once after login and never refreshed.
type Session struct {
	mu   sync.RWMutex
	info Info
}

// NewSession returns an unauthenticated session for the given server.
func NewSession(server string) *Session {
	return &Session{info: Info{Server: NormalizeServer(server)}}
}

// Set replaces the session information.
func (s *Session) Set(info Info) {
	info.Server = NormalizeServer(info.Server)
	s.mu.Lock()
	s.info = info
	s.mu.Unlock()
}

// Info returns a copy of the session information.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Authenticated reports whether a token is present.
func (s *Session) Authenticated() bool {
	return s.Info().Token != ""
}

// Token implements oauth2.TokenSource so the session can drive the bearer
// transport of the web API client.
func (s *Session) Token() (*oauth2.Token, error) {
	tok := s.Info().Token
	if tok == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}, nil
}
