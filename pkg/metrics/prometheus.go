// Package metrics provides Prometheus metrics for the squigscan pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for a scan run.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Domain-level scan progress
	domainsProbed    prometheus.Counter
	domainsUnchanged prometheus.Counter
	domainsNotFound  prometheus.Counter
	domainsFailed    prometheus.Counter
	batchesCompleted prometheus.Counter

	// Network
	catalogFetches    prometheus.Counter
	catalogRetries    prometheus.Counter
	measurementOK     prometheus.Counter
	measurementFailed prometheus.Counter
	decryptFailures   prometheus.Counter
	fetchLatency      prometheus.Histogram

	// Cache
	blobHits   prometheus.Counter
	blobWrites prometheus.Counter

	// Pipeline quality
	parseFailures  prometheus.Counter
	twsExcluded    prometheus.Counter
	devicesScored  prometheus.Counter
	devicesIndexed prometheus.Gauge
	lastScanUnix   prometheus.Gauge
	scanDuration   prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "squigscan",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.domainsProbed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "domains_probed_total",
		Help:      "Domains whose catalog was resolved this run.",
	})
	m.domainsUnchanged = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "domains_unchanged_total",
		Help:      "Domains skipped because the normalized catalog hash matched.",
	})
	m.domainsNotFound = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "domains_not_found_total",
		Help:      "Domains where no catalog candidate answered.",
	})
	m.domainsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "domains_failed_total",
		Help:      "Domains that hit a local store error while applying results.",
	})
	m.batchesCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "domain_batches_completed_total",
		Help:      "Fully awaited domain batches, each followed by a persist.",
	})
	m.catalogFetches = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "catalog_fetches_total",
		Help:      "Catalog document requests issued.",
	})
	m.catalogRetries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "catalog_retries_total",
		Help:      "Catalog requests retried after backoff.",
	})
	m.measurementOK = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "measurement_fetch_success_total",
		Help:      "Measurement files fetched and parsed.",
	})
	m.measurementFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "measurement_fetch_failed_total",
		Help:      "Devices whose whole fallback chain was exhausted.",
	})
	m.decryptFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "decrypt_failures_total",
		Help:      "Encrypted envelopes that failed to open.",
	})
	m.fetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "fetch_latency_seconds",
		Help:      "Latency of individual measurement fetches.",
		Buckets:   m.histogramBuckets,
	})
	m.blobHits = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "blob_hits_total",
		Help:      "Devices skipped because their hash already had a blob.",
	})
	m.blobWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "blob_writes_total",
		Help:      "New content-addressed blobs written.",
	})
	m.parseFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "parse_failures_total",
		Help:      "Measurements rejected for having too few valid points.",
	})
	m.twsExcluded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "tws_excluded_total",
		Help:      "True-wireless catalog entries dropped before fetch.",
	})
	m.devicesScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "devices_scored_total",
		Help:      "Device/target pairs scored.",
	})
	m.devicesIndexed = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "devices_indexed",
		Help:      "Devices currently in the cache index.",
	})
	m.lastScanUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "last_scan_unix",
		Help:      "Completion time of the last successful scan.",
	})
	m.scanDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "scan_duration_seconds",
		Help:      "Wall-clock duration of the last scan.",
	})
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Package-level recording helpers backed by the global manager.

func RecordDomainProbed()    { globalManager.domainsProbed.Inc() }
func RecordDomainUnchanged() { globalManager.domainsUnchanged.Inc() }
func RecordDomainNotFound()  { globalManager.domainsNotFound.Inc() }
func RecordDomainFailed()    { globalManager.domainsFailed.Inc() }
func RecordBatchCompleted()  { globalManager.batchesCompleted.Inc() }

func RecordCatalogFetch()       { globalManager.catalogFetches.Inc() }
func RecordCatalogRetry()       { globalManager.catalogRetries.Inc() }
func RecordMeasurementSuccess() { globalManager.measurementOK.Inc() }
func RecordMeasurementFailure() { globalManager.measurementFailed.Inc() }
func RecordDecryptFailure()     { globalManager.decryptFailures.Inc() }

// RecordFetchLatency observes one measurement fetch in seconds.
func RecordFetchLatency(seconds float64) { globalManager.fetchLatency.Observe(seconds) }

func RecordBlobHit()      { globalManager.blobHits.Inc() }
func RecordBlobWrite()    { globalManager.blobWrites.Inc() }
func RecordParseFailure() { globalManager.parseFailures.Inc() }
func RecordTWSExcluded()  { globalManager.twsExcluded.Inc() }
func RecordDeviceScored() { globalManager.devicesScored.Inc() }

func UpdateDevicesIndexed(n int)      { globalManager.devicesIndexed.Set(float64(n)) }
func UpdateLastScanUnix(ts float64)   { globalManager.lastScanUnix.Set(ts) }
func UpdateScanDuration(secs float64) { globalManager.scanDuration.Set(secs) }
