package search

import "github.com/prometheus/client_golang/prometheus"

var (
	strategiesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "search",
			Name:      "strategies_total",
			Help:      "Search strategies executed, by result",
		},
		[]string{"result"},
	)

	resultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "search",
			Name:      "results_total",
			Help:      "Ranked candidates returned to callers",
		},
	)
)

func init() {
	prometheus.MustRegister(strategiesTotal, resultsTotal)
}
