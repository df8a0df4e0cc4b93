package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/farmbot/auth"
)

// Config defines the connection parameters for the Paho MQTT client. The
// broker host, username and password come from the authenticated session;
// Broker only overrides the host for local setups.
type Config struct {
	Broker                string          `json:"broker"`
	ClientID              string          `json:"client_id"`
	UseTLS                bool            `json:"use_tls"`
	ClientCert            string          `json:"client_cert"`
	ClientKey             string          `json:"client_key"`
	CABundle              string          `json:"ca_bundle"`
	QoS                   map[string]byte `json:"qos"`
	ConnectTimeoutSeconds int             `json:"connect_timeout_seconds"`
	TLSConfig             *tls.Config     `json:"-"`
}

// BrokerURL returns the broker address for the given session host.
func (c Config) BrokerURL(host string) string {
	if c.Broker != "" {
		return c.Broker
	}
	if c.UseTLS {
		return fmt.Sprintf("ssl://%s:8883", host)
	}
	return fmt.Sprintf("tcp://%s:1883", host)
}

func (c Config) connectTimeout() time.Duration {
	if c.ConnectTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

func (c Config) qos(name string) byte {
	if q, ok := c.QoS[name]; ok {
		return q
	}
	return 0
}

// NewClientOptions builds mqtt client options for the session.
func NewClientOptions(cfg Config, info auth.Info) (*paho.ClientOptions, error) {
	if info.DeviceID == "" || info.Token == "" {
		return nil, fmt.Errorf("session has no device id or token")
	}
	if cfg.Broker == "" && info.MQTTHost == "" {
		return nil, fmt.Errorf("no broker host in session and no broker override")
	}
	id := cfg.ClientID
	if id == "" {
		id = "farmbot-go-" + uuid.NewString()
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL(info.MQTTHost)).
		SetClientID(id).
		SetUsername(info.DeviceID).
		SetPassword(info.Token).
		SetConnectTimeout(cfg.connectTimeout()).
		SetCleanSession(true)
	opts.AutoReconnect = true
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the
// config. Without a CA bundle the system roots are used; a client
// certificate is optional.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.ClientCert != "" || c.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load cert: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	if c.CABundle != "" {
		caBytes, err := os.ReadFile(c.CABundle)
		if err != nil {
			return nil, fmt.Errorf("read ca: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, fmt.Errorf("no certificates in %s", c.CABundle)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}
