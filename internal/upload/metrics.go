package upload

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultUploaded = "uploaded"
	resultInlined  = "inlined"
)

var (
	counter     *prometheus.CounterVec //nolint:gochecknoglobals
	counterOnce sync.Once              //nolint:gochecknoglobals
)

// observe counts how a file handle was materialized.
func observe(result string) {
	counterOnce.Do(func() {
		counter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entity_admin_uploads_total",
				Help: "Number of materialized file handles, differentiated by result.",
			},
			[]string{"result"},
		)
	})

	counter.WithLabelValues(result).Inc()
}
