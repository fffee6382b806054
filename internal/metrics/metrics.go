// Package metrics holds the gateway's Prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "site_gateway"

const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
)

type Metrics struct {
	submissions *prometheus.CounterVec
	chatReplies *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Form submissions by form kind and validation outcome.",
		}, []string{"form", "outcome"}),
		chatReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_replies_total",
			Help:      "Chat replies by selected route.",
		}, []string{"route"}),
	}
	for _, c := range []prometheus.Collector{m.submissions, m.chatReplies} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Submission(form, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(form, outcome).Inc()
}

func (m *Metrics) ChatReply(route string) {
	if m == nil {
		return
	}
	m.chatReplies.WithLabelValues(route).Inc()
}
