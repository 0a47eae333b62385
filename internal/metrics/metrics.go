// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hotline"

var (
	// InboundCalls counts answered inbound calls by routing outcome.
	InboundCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_calls_total",
			Help:      "Inbound calls answered, by routing outcome.",
		},
		[]string{"outcome"},
	)

	InboundDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inbound_call_handling_seconds",
			Help:      "Time spent producing the voice response for an inbound call.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// CallLogWriteFailures counts call-log writes that were dropped, by operation.
	CallLogWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_log_write_failures_total",
			Help:      "Call log inserts or updates that failed or were dropped.",
		},
		[]string{"op"},
	)

	EncodeFaults = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "twiml_encode_faults_total",
			Help:      "Plans that could not be encoded and were replaced by the fallback document.",
		},
	)

	AudioSignFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_sign_failures_total",
			Help:      "Audio locators that could not be signed.",
		},
	)

	// DirectoryIntegrityFaults counts numbers found with more than one active hotline.
	DirectoryIntegrityFaults = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_integrity_faults_total",
			Help:      "Phone numbers resolved to more than one active hotline.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		InboundCalls,
		InboundDuration,
		CallLogWriteFailures,
		EncodeFaults,
		AudioSignFailures,
		DirectoryIntegrityFaults,
	)
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Healthz reports liveness.
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
