// Package metrics exposes Prometheus instrumentation for the widget client
// and the development backend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the widget and dev backend register.
type Metrics struct {
	// Capture pipeline
	FramesCaptured prometheus.Counter
	SamplesGated   prometheus.Counter

	// Relay
	UplinkBytes     prometheus.Counter
	DownlinkBytes   prometheus.Counter
	ControlMessages prometheus.Counter

	// Session lifecycle
	SessionsStarted  prometheus.Counter
	SessionErrors    *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
	SDKReadyAttempts prometheus.Counter

	// Dev backend HTTP
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors on the given registerer.
// Passing nil uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		FramesCaptured: factory.NewCounter(prometheus.CounterOpts{
			Name: "visage_frames_captured_total",
			Help: "Total number of audio frames read from the capture source",
		}),
		SamplesGated: factory.NewCounter(prometheus.CounterOpts{
			Name: "visage_samples_gated_total",
			Help: "Total number of samples zeroed by the noise gate",
		}),
		UplinkBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "visage_uplink_bytes_total",
			Help: "Total audio bytes sent to the conversation backend",
		}),
		DownlinkBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "visage_downlink_bytes_total",
			Help: "Total audio bytes received from the conversation backend",
		}),
		ControlMessages: factory.NewCounter(prometheus.CounterOpts{
			Name: "visage_control_messages_total",
			Help: "Total control messages received on the conversation socket",
		}),
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "visage_sessions_started_total",
			Help: "Total widget sessions started",
		}),
		SessionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "visage_session_errors_total",
			Help: "Total widget session failures by kind",
		}, []string{"kind"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "visage_active_sessions",
			Help: "Number of currently connected sessions",
		}),
		SDKReadyAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "visage_sdk_ready_attempts_total",
			Help: "Total readiness probes made against the rendering SDK",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "visage_http_requests_total",
			Help: "Total HTTP requests handled by the dev backend",
		}, []string{"path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "visage_http_request_duration_seconds",
			Help:    "HTTP request latency of the dev backend",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
	}
}
