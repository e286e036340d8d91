package download

import "github.com/prometheus/client_golang/prometheus"

var (
	bytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "download",
			Name:      "bytes_total",
			Help:      "Bytes streamed from the registry",
		},
	)

	downloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "download",
			Name:      "completed_total",
			Help:      "Model downloads finished, by result",
		},
		[]string{"result"},
	)

	checksumFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "download",
			Name:      "checksum_failures_total",
			Help:      "Files that failed SHA-256 verification",
		},
	)
)

func init() {
	prometheus.MustRegister(bytesTotal, downloadsTotal, checksumFailures)
}
