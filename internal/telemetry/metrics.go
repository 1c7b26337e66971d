package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/wolfeidau/nixcrypto"
)

// Metrics holds the OpenTelemetry instruments for credential operations.
type Metrics struct {
	// Key material
	KeysGeneratedTotal  metric.Int64Counter
	KeysLoadedTotal     metric.Int64Counter
	KeyGenerateDuration metric.Float64Histogram

	// Certificates
	CertificatesIssuedTotal metric.Int64Counter

	// Store
	StoreErrorsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance bound to the global
// meter provider, initializing it if necessary.
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = NewMetrics(otel.GetMeterProvider().Meter(instrumentationName))
	})
	return metrics
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) *Metrics {
	m := &Metrics{}

	m.KeysGeneratedTotal, _ = meter.Int64Counter(
		"nixcrypto.keys.generated.total",
		metric.WithDescription("Total number of private keys generated and persisted"),
		metric.WithUnit("{key}"),
	)

	m.KeysLoadedTotal, _ = meter.Int64Counter(
		"nixcrypto.keys.loaded.total",
		metric.WithDescription("Total number of private keys loaded from the store"),
		metric.WithUnit("{key}"),
	)

	m.KeyGenerateDuration, _ = meter.Float64Histogram(
		"nixcrypto.keys.generate.duration",
		metric.WithDescription("Duration of private key generation"),
		metric.WithUnit("ms"),
	)

	m.CertificatesIssuedTotal, _ = meter.Int64Counter(
		"nixcrypto.certificates.issued.total",
		metric.WithDescription("Total number of certificates built and signed"),
		metric.WithUnit("{certificate}"),
	)

	m.StoreErrorsTotal, _ = meter.Int64Counter(
		"nixcrypto.store.errors.total",
		metric.WithDescription("Total number of failed store reads and writes"),
		metric.WithUnit("{error}"),
	)

	return m
}
