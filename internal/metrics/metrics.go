package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	ImportRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratebook_import_rows_total",
			Help: "Reconciled import rows by record kind and outcome",
		},
		[]string{"kind", "outcome"}, // rate|tariff , inserted|replaced|skipped_unchanged|skipped_declined|invalid
	)

	ImportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ratebook_import_duration_seconds",
			Help:    "Wall time of one import batch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	RecordWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratebook_record_writes_total",
			Help: "Manual record changes by kind and operation",
		},
		[]string{"kind", "op"}, // rate|tariff , add|replace|delete
	)

	ConstantsAddedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratebook_constants_added_total",
			Help: "Values appended to the constants set",
		},
		[]string{"list"},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		ImportRowsTotal,
		ImportDuration,
		RecordWritesTotal,
		ConstantsAddedTotal,
	)
}

// NewRegistry returns a registry holding the ratebook and Go runtime collectors.
func NewRegistry() *prometheus.Registry {
	r := prometheus.NewRegistry()
	MustRegister(r)
	r.MustRegister(collectors.NewGoCollector())
	return r
}

// WriteTextfile dumps g in the node-exporter textfile format. An empty path is a no-op.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, g)
}
