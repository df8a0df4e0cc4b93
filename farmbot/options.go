package farmbot

import (
	"context"
	"io"
	"time"

	"github.com/kilianp07/farmbot/core/rest"
	"github.com/kilianp07/farmbot/infra/logger"
)

// API issues authenticated web API requests. *auth.Client implements it.
type API interface {
	Request(ctx context.Context, method, endpoint string, id rest.ID, payload any) (rest.Resource, error)
}

const (
	// DefaultStatusTimeout bounds the wait for a status tree.
	DefaultStatusTimeout = 15 * time.Second
	// DefaultRPCTimeout bounds the wait for an rpc_ok or rpc_error.
	DefaultRPCTimeout = 30 * time.Second
)

type settings struct {
	log           logger.Logger
	reporter      io.Writer
	statusTimeout time.Duration
	rpcTimeout    time.Duration
}

// Option customises the components.
type Option func(*settings)

// WithLogger sets the logger shared by the components.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// WithReporter sets where human-readable verdicts such as CheckPosition's
// are written.
func WithReporter(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.reporter = w
		}
	}
}

// WithStatusTimeout sets how long ReadStatus waits for the status tree.
func WithStatusTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.statusTimeout = d
		}
	}
}

// WithRPCTimeout sets how long awaited requests wait for a reply.
func WithRPCTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.rpcTimeout = d
		}
	}
}

func newSettings(component string, opts []Option) settings {
	s := settings{
		log:           logger.New(component),
		reporter:      io.Discard,
		statusTimeout: DefaultStatusTimeout,
		rpcTimeout:    DefaultRPCTimeout,
	}
	for _, o := range opts {
		o(&s)
	}
	return s
}
