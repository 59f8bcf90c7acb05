// Package metrics provides capture pipeline metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CaptureMetrics contains Prometheus metrics for the capture pipeline
type CaptureMetrics struct {
	registry *prometheus.Registry

	// Capture loop metrics
	readCycles     *prometheus.CounterVec
	readBytes      *prometheus.CounterVec
	readErrors     *prometheus.CounterVec
	readDuration   *prometheus.HistogramVec
	waitTimeouts   *prometheus.CounterVec
	priorityErrors *prometheus.CounterVec

	// Queue backpressure metrics
	dataOverruns       *prometheus.CounterVec
	dataBytesDropped   *prometheus.CounterVec
	statusBackpressure *prometheus.CounterVec

	// Session lifecycle metrics
	sessionsStarted *prometheus.CounterVec
	sessionsClosed  *prometheus.CounterVec

	// collectors is a slice of all collectors for easier iteration
	collectors []prometheus.Collector
}

// NewCaptureMetrics creates and registers new capture metrics
func NewCaptureMetrics(registry *prometheus.Registry) (*CaptureMetrics, error) {
	m := &CaptureMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *CaptureMetrics) initMetrics() {
	m.readCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiopipe_read_cycles_total",
			Help: "Total number of capture read cycles completed",
		},
		[]string{"stream_id", "result"},
	)

	m.readBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiopipe_read_bytes_total",
			Help: "Total bytes read from the capture device",
		},
		[]string{"stream_id"},
	)

	m.readErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiopipe_read_errors_total",
			Help: "Total device read errors by mapped result code",
		},
		[]string{"stream_id", "result"},
	)

	m.readDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audiopipe_read_duration_seconds",
			Help:    "Duration of blocking device reads",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"stream_id"},
	)

	m.waitTimeouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiopipe_wait_timeouts_total",
			Help: "Event-flag waits that returned without NOT_FULL",
		},
		[]string{"stream_id"},
	)

	m.priorityErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiopipe_priority_elevation_errors_total",
			Help: "Failed attempts to elevate capture thread priority",
		},
		[]string{"stream_id"},
	)

	m.dataOverruns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiopipe_data_overruns_total",
			Help: "Data queue writes rejected for lack of space",
		},
		[]string{"stream_id"},
	)

	m.dataBytesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiopipe_data_bytes_dropped_total",
			Help: "Bytes dropped because the data queue was full",
		},
		[]string{"stream_id"},
	)

	m.statusBackpressure = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiopipe_status_backpressure_total",
			Help: "Status queue writes rejected because the previous record was unconsumed",
		},
		[]string{"stream_id"},
	)

	m.sessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiopipe_sessions_started_total",
			Help: "Capture sessions successfully started",
		},
		[]string{"stream_id"},
	)

	m.sessionsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiopipe_sessions_closed_total",
			Help: "Capture sessions closed",
		},
		[]string{"stream_id"},
	)

	m.collectors = []prometheus.Collector{
		m.readCycles,
		m.readBytes,
		m.readErrors,
		m.readDuration,
		m.waitTimeouts,
		m.priorityErrors,
		m.dataOverruns,
		m.dataBytesDropped,
		m.statusBackpressure,
		m.sessionsStarted,
		m.sessionsClosed,
	}
}

// Describe implements the Collector interface
func (m *CaptureMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *CaptureMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordReadCycle records one completed read cycle with its result code
func (m *CaptureMetrics) RecordReadCycle(streamID, result string) {
	m.readCycles.WithLabelValues(streamID, result).Inc()
}

// RecordReadBytes adds bytes read from the device
func (m *CaptureMetrics) RecordReadBytes(streamID string, n int) {
	m.readBytes.WithLabelValues(streamID).Add(float64(n))
}

// RecordReadError records a device read error by mapped result code
func (m *CaptureMetrics) RecordReadError(streamID, result string) {
	m.readErrors.WithLabelValues(streamID, result).Inc()
}

// RecordReadDuration observes the duration of one blocking device read
func (m *CaptureMetrics) RecordReadDuration(streamID string, seconds float64) {
	m.readDuration.WithLabelValues(streamID).Observe(seconds)
}

// RecordWaitTimeout records an event-flag wait without NOT_FULL observed
func (m *CaptureMetrics) RecordWaitTimeout(streamID string) {
	m.waitTimeouts.WithLabelValues(streamID).Inc()
}

// RecordPriorityError records a failed priority elevation
func (m *CaptureMetrics) RecordPriorityError(streamID string) {
	m.priorityErrors.WithLabelValues(streamID).Inc()
}

// RecordDataOverrun records a rejected data queue write and the bytes lost
func (m *CaptureMetrics) RecordDataOverrun(streamID string, bytesDropped int) {
	m.dataOverruns.WithLabelValues(streamID).Inc()
	m.dataBytesDropped.WithLabelValues(streamID).Add(float64(bytesDropped))
}

// RecordStatusBackpressure records a rejected status queue write
func (m *CaptureMetrics) RecordStatusBackpressure(streamID string) {
	m.statusBackpressure.WithLabelValues(streamID).Inc()
}

// RecordSessionStarted records a successful session start
func (m *CaptureMetrics) RecordSessionStarted(streamID string) {
	m.sessionsStarted.WithLabelValues(streamID).Inc()
}

// RecordSessionClosed records a session close
func (m *CaptureMetrics) RecordSessionClosed(streamID string) {
	m.sessionsClosed.WithLabelValues(streamID).Inc()
}
