package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/farmbot/auth"
)

// FarmbotConfig holds the account credentials and device timeouts.
type FarmbotConfig struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	Server               string `json:"server"`
	StatusTimeoutSeconds int    `json:"status_timeout_seconds"`
	RPCTimeoutSeconds    int    `json:"rpc_timeout_seconds"`
}

// SetDefaults applies the public web app and the default timeouts.
func (c *FarmbotConfig) SetDefaults() {
	if c.Server == "" {
		c.Server = auth.DefaultServer
	}
	if c.StatusTimeoutSeconds == 0 {
		c.StatusTimeoutSeconds = 15
	}
	if c.RPCTimeoutSeconds == 0 {
		c.RPCTimeoutSeconds = 30
	}
}

// Validate checks the credentials and timeouts.
func (c FarmbotConfig) Validate() error {
	if err := c.Credentials().Validate(); err != nil {
		return err
	}
	if c.StatusTimeoutSeconds < 0 || c.RPCTimeoutSeconds < 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// Credentials returns the login credentials.
func (c FarmbotConfig) Credentials() auth.Credentials {
	return auth.Credentials{Email: c.Email, Password: c.Password, Server: c.Server}
}

// StatusTimeout bounds status reads.
func (c FarmbotConfig) StatusTimeout() time.Duration {
	return time.Duration(c.StatusTimeoutSeconds) * time.Second
}

// RPCTimeout bounds awaited requests.
func (c FarmbotConfig) RPCTimeout() time.Duration {
	return time.Duration(c.RPCTimeoutSeconds) * time.Second
}

// APIConfig configures the web API HTTP client.
type APIConfig struct {
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies a 30 second timeout.
func (c *APIConfig) SetDefaults() {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 30
	}
}

// Validate checks the timeout.
func (c APIConfig) Validate() error {
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	return nil
}

// Timeout returns the HTTP client timeout.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
