// Package auth implements authentication against the FarmBot web app and the
// authenticated web API calls built on it.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/kilianp07/farmbot/core/metrics"
	"github.com/kilianp07/farmbot/core/monitoring"
	"github.com/kilianp07/farmbot/core/rest"
	"github.com/kilianp07/farmbot/infra/logger"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code: %d, body: %s", e.Method, e.URL, e.Code, e.Body)
}

// Client issues web API requests on behalf of a session.
type Client struct {
	session *Session
	base    *http.Client
	authed  *http.Client
	log     logger.Logger
	sink    metrics.Sink
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its transport is wrapped to
// add the bearer token.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.base = c }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(s metrics.Sink) Option {
	return func(c *Client) {
		if s != nil {
			c.sink = s
		}
	}
}

// NewClient creates a web API client bound to the session.
func NewClient(session *Session, opts ...Option) *Client {
	c := &Client{
		session: session,
		base:    &http.Client{Timeout: 10 * time.Second},
		log:     logger.New("auth"),
		sink:    metrics.NopSink{},
	}
	for _, o := range opts {
		o(c)
	}
	c.authed = &http.Client{
		Timeout: c.base.Timeout,
		Transport: &oauth2.Transport{
			Source: c.session,
			Base:   c.base.Transport,
		},
	}
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session { return c.session }

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, creds Credentials) (Info, error) {
	if err := creds.Validate(); err != nil {
		return Info{}, err
	}
	server := NormalizeServer(creds.Server)
	if creds.Server == "" {
		server = c.session.Info().Server
	}
	body, err := json.Marshal(map[string]any{
		"user": map[string]string{"email": creds.Email, "password": creds.Password},
	})
	if err != nil {
		return Info{}, err
	}
	url := server + "/api/tokens"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Info{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Info{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return Info{}, &StatusError{Method: http.MethodPost, URL: url, Code: resp.StatusCode, Body: string(data)}
	}

	var tok struct {
		Token struct {
			Encoded   string `json:"encoded"`
			Unencoded struct {
				Bot  string `json:"bot"`
				MQTT string `json:"mqtt"`
			} `json:"unencoded"`
		} `json:"token"`
	}
	if err := json.Unmarshal(data, &tok); err != nil {
		return Info{}, fmt.Errorf("failed to decode token: %w", err)
	}
	if tok.Token.Encoded == "" {
		return Info{}, fmt.Errorf("token missing from response")
	}
	info := Info{
		Token:    tok.Token.Encoded,
		DeviceID: tok.Token.Unencoded.Bot,
		MQTTHost: tok.Token.Unencoded.MQTT,
		Server:   server,
	}
	c.session.Set(info)
	c.log.Infof("authenticated device %s on %s", info.DeviceID, server)
	return info, nil
}

// URL builds the address of an endpoint or of one of its resources.
func (c *Client) URL(endpoint string, id rest.ID) string {
	u := c.session.Info().Server + "/api/" + strings.Trim(endpoint, "/")
	if id != rest.NoID {
		u += "/" + strconv.Itoa(int(id))
	}
	return u
}

// Request sends one authenticated request and returns the decoded body. A
// nil payload sends no body. Transport errors and non-2xx responses are
// returned as is; nothing is retried.
func (c *Client) Request(ctx context.Context, method, endpoint string, id rest.ID, payload any) (rest.Resource, error) {
	if !c.session.Authenticated() {
		return nil, ErrNoToken
	}
	url := c.URL(endpoint, id)
	start := time.Now()
	status, res, err := c.do(ctx, method, url, payload)
	ev := metrics.APIEvent{Method: method, Endpoint: endpoint, Status: status, Latency: time.Since(start), Time: time.Now()}
	if err != nil {
		ev.Error = err.Error()
		var se *StatusError
		if !errors.As(err, &se) || se.Code >= 500 {
			monitoring.CaptureException(err, map[string]string{"module": "auth", "endpoint": endpoint, "method": method})
		}
		c.log.Errorf("%s %s failed: %v", method, url, err)
	} else {
		c.log.Debugf("%s %s -> %d", method, url, status)
	}
	if rerr := c.sink.RecordAPIRequest(ev); rerr != nil {
		c.log.Warnf("record api request: %v", rerr)
	}
	return res, err
}

func (c *Client) do(ctx context.Context, method, url string, payload any) (int, rest.Resource, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.authed.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return resp.StatusCode, nil, &StatusError{Method: method, URL: url, Code: resp.StatusCode, Body: string(data)}
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return resp.StatusCode, nil, nil
	}
	if !json.Valid(data) {
		return resp.StatusCode, nil, fmt.Errorf("failed to decode response: invalid JSON")
	}
	return resp.StatusCode, rest.Resource(data), nil
}
