package metrics

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jgulick48/tilt2mqtt/internal/tilt"
)

var (
	specificGravity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tiltSpecificGravity",
			Help: "Uncalibrated specific gravity reported by a Tilt.",
		},
		[]string{
			"color",
		},
	)
	plato = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tiltPlato",
			Help: "Uncalibrated degrees Plato derived from specific gravity.",
		},
		[]string{
			"color",
		},
	)
	temperature = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tiltTemperature",
			Help: "Uncalibrated wort temperature reported by a Tilt.",
		},
		[]string{
			"color",
			"unit",
		},
	)
	rssi = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tiltRSSI",
			Help: "Signal strength of the last advertisement received from a Tilt.",
		},
		[]string{
			"color",
		},
	)
	publishFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tiltPublishFailures",
			Help: "Readings that could not be published to the broker.",
		},
		[]string{
			"color",
		},
	)
)

// Registry holds the tilt collectors. It is separate from the default
// registry so tests can inspect it.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(specificGravity, plato, temperature, rssi, publishFailures)
}

// RecordReading updates the prometheus gauges and, when enabled, the statsd
// gauges for one reading.
func RecordReading(color tilt.Color, signal int16, reading tilt.Reading) {
	label := color.String()
	specificGravity.WithLabelValues(label).Set(reading.SpecificGravity)
	plato.WithLabelValues(label).Set(reading.Plato)
	temperature.WithLabelValues(label, "celsius").Set(reading.TempCelsius)
	temperature.WithLabelValues(label, "fahrenheit").Set(reading.TempFahrenheit)
	rssi.WithLabelValues(label).Set(float64(signal))

	tags := []string{FormatTag("color", label)}
	SendGaugeMetric("specific_gravity", tags, reading.SpecificGravity)
	SendGaugeMetric("plato", tags, reading.Plato)
	SendGaugeMetric("temperature_celsius", tags, reading.TempCelsius)
	SendGaugeMetric("temperature_fahrenheit", tags, reading.TempFahrenheit)
	SendGaugeMetric("rssi", tags, float64(signal))
}

func RecordPublishFailure(color tilt.Color) {
	publishFailures.WithLabelValues(color.String()).Inc()
}

// Serve exposes the registry on address until the listener fails.
func Serve(address string) {
	if address == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
	go func() {
		slog.Info("Serving metrics", "address", address)
		if err := http.ListenAndServe(address, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics listener stopped", "error", err)
		}
	}()
}
