// Package metrics exposes Prometheus collectors for the scraper.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	attemptsTotal          *prometheus.CounterVec
	fetchRequestsTotal     *prometheus.CounterVec
	fetchDurationSeconds   prometheus.Histogram
	fetchRetriesTotal      prometheus.Counter
	bytesTotal             prometheus.Counter
	rowsWrittenTotal       prometheus.Counter
	taskErrorsTotal        *prometheus.CounterVec
	consecutiveMisses      prometheus.Gauge
	lastCheckpointID       prometheus.Gauge
	windowsCompletedTotal  prometheus.Counter
	activeWorkers          prometheus.Gauge
	politenessDelaySeconds prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		attemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_attempts_total",
				Help: "Total number of identifiers attempted, labeled by outcome (found, miss, error).",
			},
			[]string{"outcome"},
		)

		fetchRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_fetch_requests_total",
				Help: "Total number of upstream HTTP requests, labeled by status code (or \"error\").",
			},
			[]string{"code"},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scraper_fetch_duration_seconds",
				Help:    "Histogram of single upstream request latencies.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
			},
		)

		fetchRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_fetch_retries_total",
				Help: "Total number of request retries after network errors.",
			},
		)

		bytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_bytes_total",
				Help: "Total number of document bytes read.",
			},
		)

		rowsWrittenTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_rows_written_total",
				Help: "Total number of rows appended to the output file.",
			},
		)

		taskErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_task_errors_total",
				Help: "Total number of per-identifier task errors, labeled by category.",
			},
			[]string{"category"},
		)

		consecutiveMisses = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_consecutive_misses",
				Help: "Current value of the consecutive-miss counter.",
			},
		)

		lastCheckpointID = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_last_checkpoint_id",
				Help: "Identifier most recently written to the checkpoint.",
			},
		)

		windowsCompletedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_windows_completed_total",
				Help: "Total number of identifier windows fully processed.",
			},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_active_workers",
				Help: "Number of workers currently processing an identifier.",
			},
		)

		politenessDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scraper_politeness_delay_seconds",
				Help:    "Histogram of per-task politeness sleeps.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5},
			},
		)
	})
}

func initialized() bool {
	return attemptsTotal != nil
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAttempt increments the attempt counter for the given outcome.
func ObserveAttempt(outcome string) {
	if !initialized() {
		return
	}
	attemptsTotal.WithLabelValues(outcome).Inc()
}

// ObserveFetch records one upstream request. code is 0 when no response arrived.
func ObserveFetch(code int, duration time.Duration) {
	if !initialized() {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	fetchRequestsTotal.WithLabelValues(label).Inc()
	fetchDurationSeconds.Observe(duration.Seconds())
}

// ObserveRetry increments the retry counter.
func ObserveRetry() {
	if !initialized() {
		return
	}
	fetchRetriesTotal.Inc()
}

// ObserveBytes adds to the bytes-read counter.
func ObserveBytes(n int) {
	if !initialized() || n <= 0 {
		return
	}
	bytesTotal.Add(float64(n))
}

// ObserveRowsWritten adds to the rows-written counter.
func ObserveRowsWritten(n int) {
	if !initialized() || n <= 0 {
		return
	}
	rowsWrittenTotal.Add(float64(n))
}

// ObserveTaskError increments the task error counter for a category.
func ObserveTaskError(category string) {
	if !initialized() {
		return
	}
	taskErrorsTotal.WithLabelValues(category).Inc()
}

// SetConsecutiveMisses sets the consecutive-miss gauge.
func SetConsecutiveMisses(n int) {
	if !initialized() {
		return
	}
	consecutiveMisses.Set(float64(n))
}

// SetCheckpoint sets the last-checkpoint gauge.
func SetCheckpoint(id int) {
	if !initialized() {
		return
	}
	lastCheckpointID.Set(float64(id))
}

// ObserveWindow increments the completed-window counter.
func ObserveWindow() {
	if !initialized() {
		return
	}
	windowsCompletedTotal.Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	if !initialized() {
		return
	}
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	if !initialized() {
		return
	}
	activeWorkers.Dec()
}

// ObservePoliteness records one politeness sleep.
func ObservePoliteness(d time.Duration) {
	if !initialized() {
		return
	}
	politenessDelaySeconds.Observe(d.Seconds())
}
