package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records dispatch engine outcomes.
type DispatchMetrics struct {
	offersCreated   *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	queuesExhausted *prometheus.CounterVec
	deferrals       *prometheus.CounterVec
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	offersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_offers_created",
		Help: "Queue entries created per target type.",
	}, []string{"target_type"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_transitions",
		Help: "Queue entry status transitions by resulting status.",
	}, []string{"status"})
	queuesExhausted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_queues_exhausted",
		Help: "Targets whose candidate pool ran out per target type.",
	}, []string{"target_type"})
	deferrals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_deferrals",
		Help: "Offers deferred by quiet hours or snooze.",
	}, []string{"reason"})
	reg.MustRegister(offersCreated, transitions, queuesExhausted, deferrals)
	return &DispatchMetrics{
		offersCreated:   offersCreated,
		transitions:     transitions,
		queuesExhausted: queuesExhausted,
		deferrals:       deferrals,
	}
}

// IncOfferCreated increments the offers-created counter for a target type.
func (d *DispatchMetrics) IncOfferCreated(targetType string) {
	if d == nil || d.offersCreated == nil {
		return
	}
	d.offersCreated.WithLabelValues(normalizeLabel(targetType)).Inc()
}

// IncTransition increments the transition counter for the resulting status.
func (d *DispatchMetrics) IncTransition(status string) {
	if d == nil || d.transitions == nil {
		return
	}
	d.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncQueueExhausted increments the exhausted-queue counter for a target type.
func (d *DispatchMetrics) IncQueueExhausted(targetType string) {
	if d == nil || d.queuesExhausted == nil {
		return
	}
	d.queuesExhausted.WithLabelValues(normalizeLabel(targetType)).Inc()
}

// IncDeferral increments the deferral counter for a reason.
func (d *DispatchMetrics) IncDeferral(reason string) {
	if d == nil || d.deferrals == nil {
		return
	}
	d.deferrals.WithLabelValues(normalizeLabel(reason)).Inc()
}
