package service

import (
	"gatekeeper/internal/services/moderation/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the moderation counters exposed on /metrics
type Metrics struct {
	messages   *prometheus.CounterVec
	violations *prometheus.CounterVec
	failures   *prometheus.CounterVec
}

// NewMetrics registers the counters on reg; nil uses the default registerer
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		messages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_messages_total",
			Help: "Messages handled, by verdict",
		}, []string{"verdict"}),
		violations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_violations_total",
			Help: "Classified violations, by category and rule",
		}, []string{"category", "rule"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_action_failures_total",
			Help: "Enforcement side effects rejected by the chat platform, by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) observe(out domain.Outcome) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(string(out.Verdict)).Inc()
	if out.Decision.Matched {
		m.violations.WithLabelValues(string(out.Decision.Category), out.Decision.Rule).Inc()
	}
	for _, a := range out.Failed() {
		m.failures.WithLabelValues(string(a.Kind)).Inc()
	}
}

func (m *Metrics) failed(kind domain.ActionKind) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(string(kind)).Inc()
}
