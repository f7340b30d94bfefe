// Package observability records extraction metrics in a dedicated Prometheus
// registry that can be written out as a node-exporter textfile.
package observability

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/danmuck/fsdctl/internal/fsd"
)

var (
	registerOnce sync.Once
	registry     = prometheus.NewRegistry()

	extractJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fsdctl",
			Subsystem: "extract",
			Name:      "jobs_total",
			Help:      "Extraction jobs by resource, decoder and outcome.",
		},
		[]string{"resource", "decoder", "status"},
	)
	extractDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fsdctl",
			Subsystem: "extract",
			Name:      "job_duration_seconds",
			Help:      "Extraction job duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"resource", "decoder"},
	)
	extractBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fsdctl",
			Subsystem: "extract",
			Name:      "bytes_total",
			Help:      "Bytes read from the resource store and written as output.",
		},
		[]string{"resource", "direction"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fsdctl",
			Subsystem: "decode",
			Name:      "errors_total",
			Help:      "Decode failures by error kind.",
		},
		[]string{"kind"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		registry.MustRegister(extractJobs, extractDuration, extractBytes, decodeErrors)
	})
}

// Registry is the gatherer holding every fsdctl metric.
func Registry() *prometheus.Registry {
	RegisterMetrics()
	return registry
}

// JobOutcome describes one finished extraction job.
type JobOutcome struct {
	Resource string
	Decoder  string
	BytesIn  int
	BytesOut int
	Duration time.Duration
	Err      error
}

func RecordJob(o JobOutcome) {
	RegisterMetrics()
	status := "ok"
	if o.Err != nil {
		status = "error"
		decodeErrors.WithLabelValues(ErrorKind(o.Err)).Inc()
	}
	extractJobs.WithLabelValues(o.Resource, o.Decoder, status).Inc()
	extractDuration.WithLabelValues(o.Resource, o.Decoder).Observe(o.Duration.Seconds())
	if o.BytesIn > 0 {
		extractBytes.WithLabelValues(o.Resource, "in").Add(float64(o.BytesIn))
	}
	if o.BytesOut > 0 {
		extractBytes.WithLabelValues(o.Resource, "out").Add(float64(o.BytesOut))
	}
}

// ErrorKind is the metric label for err.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, fsd.ErrCorruptData):
		return "corrupt_data"
	case errors.Is(err, fsd.ErrUnsupportedSchema):
		return "unsupported_schema"
	default:
		return "other"
	}
}

// WriteTextfile writes the current metrics to path in the text exposition
// format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry())
}
