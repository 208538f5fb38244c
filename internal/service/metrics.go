package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store operation labels.
const (
	opListItems   = "list_items"
	opAddReview   = "add_review"
	opListReviews = "list_reviews"
)

// Metrics counts data access outcomes. A nil *Metrics records nothing.
type Metrics struct {
	operations      *prometheus.CounterVec
	swallowedErrors prometheus.Counter
	replays         prometheus.Counter
	skippedDocs     *prometheus.CounterVec
}

// NewMetrics registers the data access instruments with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showcase_store_operations_total",
				Help: "Store operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		swallowedErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "showcase_review_list_failures_total",
				Help: "Review listings that failed and were served as empty",
			},
		),
		replays: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "showcase_review_idempotent_replays_total",
				Help: "Review submissions answered from a previously used idempotency key",
			},
		),
		skippedDocs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "showcase_malformed_documents_total",
				Help: "Documents skipped because they could not be decoded",
			},
			[]string{"collection"},
		),
	}
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) swallowed() {
	if m != nil {
		m.swallowedErrors.Inc()
	}
}

func (m *Metrics) replayed() {
	if m != nil {
		m.replays.Inc()
	}
}

func (m *Metrics) skipped(collection string) {
	if m != nil {
		m.skippedDocs.WithLabelValues(collection).Inc()
	}
}
