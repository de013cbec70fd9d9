// Package metrics exposes Prometheus instrumentation for handshake
// attempts, frame traffic and keepalives.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "erldist"

var (
	handshakeAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshake_attempts_total",
			Help:      "Number of handshake attempts, by role and outcome.",
		},
		[]string{"role", "outcome"},
	)

	handshakeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handshake_duration_seconds",
			Help:      "Time spent completing a handshake, by role.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"role"},
	)

	framesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Number of distribution frames sent, excluding keepalives.",
		},
	)

	framesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Number of distribution frames received, excluding keepalives.",
		},
	)

	keepalivesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keepalives_sent_total",
			Help:      "Number of zero-length keepalive frames sent.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		handshakeAttempts,
		handshakeDuration,
		framesSent,
		framesReceived,
		keepalivesSent,
	)
}

// Role identifies which side of a handshake recorded a metric.
type Role string

// The two handshake roles.
const (
	RoleDialer   Role = "dialer"
	RoleAccepter Role = "accepter"
)

// Outcome classifies a completed handshake attempt.
type Outcome string

// The handshake outcomes this package distinguishes.
const (
	OutcomeSuccess       Outcome = "success"
	OutcomeAuthFailed    Outcome = "auth_failed"
	OutcomeNotAllowed    Outcome = "not_allowed"
	OutcomeProtocolError Outcome = "protocol_error"
)

// ObserveHandshake records the outcome and duration (in seconds) of one
// handshake attempt.
func ObserveHandshake(role Role, outcome Outcome, seconds float64) {
	handshakeAttempts.WithLabelValues(string(role), string(outcome)).Inc()
	handshakeDuration.WithLabelValues(string(role)).Observe(seconds)
}

// FrameSent and FrameReceived record one PASS_THROUGH frame each.
func FrameSent()     { framesSent.Inc() }
func FrameReceived() { framesReceived.Inc() }

// KeepaliveSent records one zero-length keepalive frame.
func KeepaliveSent() { keepalivesSent.Inc() }
