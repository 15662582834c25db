package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebhookMetrics tracks gateway callback processing. Swallowed failures are
// callbacks answered 200 despite an internal error; without this counter that
// policy becomes silent data loss.
type WebhookMetrics struct {
	received  *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	applied   *prometheus.CounterVec
	swallowed *prometheus.CounterVec
}

// NewWebhookMetrics registers webhook counters on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_received_total",
		Help: "Gateway callbacks received.",
	}, []string{"gateway"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_rejected_total",
		Help: "Gateway callbacks rejected before the authenticity boundary.",
	}, []string{"gateway", "reason"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_applied_total",
		Help: "Gateway callbacks applied to domain state.",
	}, []string{"gateway", "status"})
	swallowed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_swallowed_failures_total",
		Help: "Internal failures answered 200 to avoid gateway retries.",
	}, []string{"gateway"})
	reg.MustRegister(received, rejected, applied, swallowed)
	return &WebhookMetrics{
		received:  received,
		rejected:  rejected,
		applied:   applied,
		swallowed: swallowed,
	}
}

// IncReceived counts an inbound callback for the gateway.
func (w *WebhookMetrics) IncReceived(gateway string) {
	if w == nil || w.received == nil {
		return
	}
	w.received.WithLabelValues(normalizeLabel(gateway)).Inc()
}

// IncRejected counts a rejection with the given reason (signature, unknown_order).
func (w *WebhookMetrics) IncRejected(gateway, reason string) {
	if w == nil || w.rejected == nil {
		return
	}
	w.rejected.WithLabelValues(normalizeLabel(gateway), normalizeLabel(reason)).Inc()
}

// IncApplied counts a successfully applied callback by mapped status.
func (w *WebhookMetrics) IncApplied(gateway, status string) {
	if w == nil || w.applied == nil {
		return
	}
	w.applied.WithLabelValues(normalizeLabel(gateway), normalizeLabel(status)).Inc()
}

// IncSwallowed counts a post-verification failure hidden behind a 200.
func (w *WebhookMetrics) IncSwallowed(gateway string) {
	if w == nil || w.swallowed == nil {
		return
	}
	w.swallowed.WithLabelValues(normalizeLabel(gateway)).Inc()
}
