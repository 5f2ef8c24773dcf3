package metrics

import (
	"github.com/mentis-app/mentis/pkg/domain/model"
	"github.com/mentis-app/mentis/pkg/domain/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mentis"

// Metrics holds the Prometheus collectors of the service
type Metrics struct {
	// EvaluationsTotal counts summaries computed. Labels: workspace
	EvaluationsTotal *prometheus.CounterVec

	// FinalizedTotal counts finalized assessments. Labels: workspace
	FinalizedTotal *prometheus.CounterVec

	// AgreementTotal counts categories of finalized assessments by agreement.
	// Labels: workspace, agreement
	AgreementTotal *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer to
// expose them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EvaluationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Total risk profile evaluations by workspace",
		}, []string{"workspace"}),

		FinalizedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_finalized_total",
			Help:      "Total finalized assessments by workspace",
		}, []string{"workspace"}),

		AgreementTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_agreement_total",
			Help:      "Categories of finalized assessments by agreement between automatic and expert bands",
		}, []string{"workspace", "agreement"}),
	}
}

// RecordEvaluation counts one computed summary. Safe on a nil receiver.
func (m *Metrics) RecordEvaluation(workspaceID types.WorkspaceID) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(workspaceID.String()).Inc()
}

// RecordFinalized counts a finalized assessment and the agreement of each of its categories
func (m *Metrics) RecordFinalized(workspaceID types.WorkspaceID, summary model.Summary) {
	if m == nil {
		return
	}
	ws := workspaceID.String()
	m.FinalizedTotal.WithLabelValues(ws).Inc()
	for _, c := range summary.Categories {
		m.AgreementTotal.WithLabelValues(ws, c.Agreement.String()).Inc()
	}
}
