package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ballotRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uvote_ballot_requests_total",
		Help: "Total de submissoes de cedula por resultado",
	}, []string{"status"})

	ballotWriteDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "uvote_ballot_write_duration_seconds",
		Help:    "Tempo da transacao que grava a cedula",
		Buckets: prometheus.DefBuckets,
	})

	resultsComputedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uvote_results_computed_total",
		Help: "Total de apuracoes executadas por status da eleicao",
	}, []string{"status"})

	statusTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uvote_status_transitions_total",
		Help: "Transicoes de status aplicadas pelo worker",
	}, []string{"status"})
)

func ObserveBallotRequest(status string) {
	ballotRequestsTotal.WithLabelValues(status).Inc()
}

func ObserveBallotWrite(seconds float64) {
	ballotWriteDuration.Observe(seconds)
}

func IncResultsComputed(status string) {
	resultsComputedTotal.WithLabelValues(status).Inc()
}

func IncStatusTransition(status string) {
	statusTransitionsTotal.WithLabelValues(status).Inc()
}
