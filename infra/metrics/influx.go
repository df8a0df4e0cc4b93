package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/farmbot/core/metrics"
	"github.com/kilianp07/farmbot/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket receiving the events.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
	Device string `json:"device"`
}

// InfluxSink writes client events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	device   string
	log      logger.Logger
}

var _ coremetrics.MessageRecorder = (*InfluxSink)(nil)

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		device:   cfg.Device,
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.Sink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) point(measurement string, t time.Time) *write.Point {
	if t.IsZero() {
		t = time.Now()
	}
	p := write.NewPointWithMeasurement(measurement)
	if s.device != "" {
		p.AddTag("device", s.device)
	}
	return p.SetTime(t)
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCommand writes a command_sent point.
func (s *InfluxSink) RecordCommand(ev coremetrics.CommandEvent) error {
	p := s.point("command_sent", ev.Time).
		AddTag("kind", ev.Kind).
		AddTag("label", ev.Label).
		AddField("priority", ev.Priority)
	return s.write(p)
}

// RecordReply writes an rpc_reply point.
func (s *InfluxSink) RecordReply(ev coremetrics.ReplyEvent) error {
	p := s.point("rpc_reply", ev.Time).
		AddTag("kind", ev.Kind).
		AddTag("label", ev.Label).
		AddTag("ok", strconv.FormatBool(ev.OK)).
		AddTag("timeout", strconv.FormatBool(ev.Timeout)).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000))
	if ev.Error != "" {
		p.AddField("error", ev.Error)
	}
	return s.write(p)
}

// RecordAPIRequest writes an api_request point.
func (s *InfluxSink) RecordAPIRequest(ev coremetrics.APIEvent) error {
	p := s.point("api_request", ev.Time).
		AddTag("method", ev.Method).
		AddTag("endpoint", ev.Endpoint).
		AddField("status", ev.Status).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000))
	if ev.Error != "" {
		p.AddField("error", ev.Error)
	}
	return s.write(p)
}

// RecordMessage writes a device_message point.
func (s *InfluxSink) RecordMessage(ev coremetrics.MessageEvent) error {
	p := s.point("device_message", ev.Time).
		AddTag("channel", ev.Channel).
		AddField("bytes", ev.Bytes)
	return s.write(p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
