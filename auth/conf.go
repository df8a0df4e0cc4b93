package auth

import (
	"fmt"
	"strings"
)

// DefaultServer is the public FarmBot web app.
const DefaultServer = "https://my.farm.bot"

// Credentials are exchanged for a session token.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Server   string `json:"server"`
}

// Validate checks mandatory fields.
func (c Credentials) Validate() error {
	if c.Email == "" || c.Password == "" {
		return fmt.Errorf("email and password are required")
	}
	return nil
}

// NormalizeServer returns the server URL without trailing slash, defaulting
// the scheme to https.
func NormalizeServer(server string) string {
	if server == "" {
		return DefaultServer
	}
	server = strings.TrimRight(server, "/")
	if !strings.Contains(server, "://") {
		server = "https://" + server
	}
	return server
}
