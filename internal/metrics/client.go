package metrics

import (
	"fmt"
	"log/slog"

	"github.com/DataDog/datadog-go/statsd"
)

var Metrics statsd.ClientInterface
var StatsEnabled bool

// Configure enables statsd reporting when a server address is set.
func Configure(server string) error {
	if server == "" {
		return nil
	}
	client, err := statsd.New(server, statsd.WithNamespace("tilt."))
	if err != nil {
		return fmt.Errorf("creating statsd client for %s: %w", server, err)
	}
	Metrics = client
	StatsEnabled = true
	return nil
}

func FormatTag(key, value string) string {
	return fmt.Sprintf("%s:%s", key, value)
}

func SendGaugeMetric(name string, tags []string, value float64) {
	if StatsEnabled {
		err := Metrics.Gauge(name, value, tags, 1)
		if err != nil {
			slog.Error("Got error trying to send metric", "metric", name, "error", err)
		}
	}
}
