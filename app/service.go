package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/farmbot/auth"
	"github.com/kilianp07/farmbot/config"
	"github.com/kilianp07/farmbot/core/broker"
	coremetrics "github.com/kilianp07/farmbot/core/metrics"
	coremon "github.com/kilianp07/farmbot/core/monitoring"
	"github.com/kilianp07/farmbot/farmbot"
	"github.com/kilianp07/farmbot/infra/logger"
	"github.com/kilianp07/farmbot/infra/metrics"
	"github.com/kilianp07/farmbot/infra/monitoring"
	"github.com/kilianp07/farmbot/infra/mqtt"
)

// BrokerClient is the connected broker the service owns.
type BrokerClient interface {
	broker.Broker
	Messages() <-chan broker.Message
	Unsubscribe(<-chan broker.Message)
	Disconnect()
}

var connectBroker = func(cfg mqtt.Config, info auth.Info, opts ...mqtt.Option) (BrokerClient, error) {
	c, err := mqtt.NewPahoClient(cfg, info, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Service owns the authenticated session, the broker connection and the
// device facade built on top of them.
type Service struct {
	Bot    *farmbot.Farmbot
	API    *auth.Client
	Broker BrokerClient

	sink     coremetrics.Sink
	promAddr string
	log      logger.Logger
}

// New configures logging, monitoring and metrics, logs in and connects to
// the device broker. Verdicts of checks are written to reporter.
func New(ctx context.Context, cfg *config.Config, reporter io.Writer) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, nil); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	session := auth.NewSession(cfg.Farmbot.Server)
	api := auth.NewClient(session,
		auth.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout()}),
		auth.WithMetrics(sink),
	)
	info, err := api.Login(ctx, cfg.Farmbot.Credentials())
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("login: %w", err)
	}
	logg.Infof("authenticated as %s", info.DeviceID)

	client, err := connectBroker(cfg.MQTT, info, mqtt.WithMetrics(sink))
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("mqtt client: %w", err)
	}

	bot := farmbot.New(api, client, session,
		farmbot.WithReporter(reporter),
		farmbot.WithStatusTimeout(cfg.Farmbot.StatusTimeout()),
		farmbot.WithRPCTimeout(cfg.Farmbot.RPCTimeout()),
	)
	return &Service{
		Bot:      bot,
		API:      api,
		Broker:   client,
		sink:     sink,
		promAddr: cfg.Metrics.PrometheusAddress,
		log:      logg,
	}, nil
}

// Start launches the background metrics collection and, when configured,
// the Prometheus endpoint. Both stop with ctx.
func (s *Service) Start(ctx context.Context) {
	metrics.StartMessageCollector(ctx, s.Broker, s.sink)
	if s.promAddr == "" {
		return
	}
	go func() {
		if err := metrics.StartPromServer(ctx, s.promAddr); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

// Close disconnects from the broker and flushes metrics and error reports.
func (s *Service) Close() error {
	s.Broker.Disconnect()
	closeSink(s.sink)
	coremon.Flush(2 * time.Second)
	return nil
}

func closeSink(s coremetrics.Sink) {
	if c, ok := s.(coremetrics.Closer); ok {
		c.Close()
	}
}
