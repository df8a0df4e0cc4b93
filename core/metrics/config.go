package metrics

import "github.com/kilianp07/farmbot/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddress serves /metrics when set, e.g. ":9102".
	PrometheusAddress string `json:"prometheus_address"`
}
