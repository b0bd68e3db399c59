// Package prom exports connection-engine metrics to Prometheus.
package prom

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghostlink/ghostlink/observability"
)

// NewRegistry returns a fresh Prometheus registry.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

// Handler returns a Prometheus HTTP handler bound to the registry.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// LinkObserver implements observability.LinkObserver on Prometheus metrics.
type LinkObserver struct {
	stateTotal        *prometheus.CounterVec
	sessionsOpened    prometheus.Counter
	sessionsClosed    *prometheus.CounterVec
	retries           prometheus.Counter
	sentTotal         *prometheus.CounterVec
	sentBytes         prometheus.Counter
	receivedTotal     *prometheus.CounterVec
	receivedBytes     prometheus.Counter
	integrityFailures prometheus.Counter
	decryptFailures   prometheus.Counter
	droppedSends      prometheus.Counter
}

// NewLinkObserver registers engine metrics on the registry.
func NewLinkObserver(reg *prometheus.Registry) *LinkObserver {
	o := &LinkObserver{
		stateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghostlink_state_transitions_total",
			Help: "Connection state transitions by state.",
		}, []string{"state"}),
		sessionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghostlink_sessions_opened_total",
			Help: "Sessions successfully established.",
		}),
		sessionsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghostlink_sessions_closed_total",
			Help: "Sessions ended, by close reason.",
		}, []string{"reason"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghostlink_connect_retries_total",
			Help: "Reconnect attempts after a failure.",
		}),
		sentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghostlink_messages_sent_total",
			Help: "Messages written to the wire, by message type.",
		}, []string{"type"}),
		sentBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghostlink_sent_payload_bytes_total",
			Help: "Encrypted payload bytes written to the wire.",
		}),
		receivedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ghostlink_messages_received_total",
			Help: "Messages delivered to the application, by message type.",
		}, []string{"type"}),
		receivedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghostlink_received_payload_bytes_total",
			Help: "Decrypted payload bytes delivered to the application.",
		}),
		integrityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghostlink_integrity_failures_total",
			Help: "Frames dropped because the payload hash did not match.",
		}),
		decryptFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghostlink_decrypt_failures_total",
			Help: "Frames dropped because token authentication failed.",
		}),
		droppedSends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ghostlink_dropped_sends_total",
			Help: "Send calls dropped because no session was active or the write failed.",
		}),
	}
	reg.MustRegister(
		o.stateTotal,
		o.sessionsOpened,
		o.sessionsClosed,
		o.retries,
		o.sentTotal,
		o.sentBytes,
		o.receivedTotal,
		o.receivedBytes,
		o.integrityFailures,
		o.decryptFailures,
		o.droppedSends,
	)
	return o
}

func (o *LinkObserver) StateChange(state string) {
	o.stateTotal.WithLabelValues(state).Inc()
}

func (o *LinkObserver) SessionOpened() {
	o.sessionsOpened.Inc()
}

func (o *LinkObserver) SessionClosed(reason observability.CloseReason) {
	o.sessionsClosed.WithLabelValues(string(reason)).Inc()
}

func (o *LinkObserver) ConnectRetry() {
	o.retries.Inc()
}

func (o *LinkObserver) MessageSent(msgType uint8, wireBytes int) {
	o.sentTotal.WithLabelValues(strconv.Itoa(int(msgType))).Inc()
	o.sentBytes.Add(float64(wireBytes))
}

func (o *LinkObserver) MessageReceived(msgType uint8, plainBytes int) {
	o.receivedTotal.WithLabelValues(strconv.Itoa(int(msgType))).Inc()
	o.receivedBytes.Add(float64(plainBytes))
}

func (o *LinkObserver) IntegrityFailure() {
	o.integrityFailures.Inc()
}

func (o *LinkObserver) DecryptFailure() {
	o.decryptFailures.Inc()
}

func (o *LinkObserver) SendDropped() {
	o.droppedSends.Inc()
}
