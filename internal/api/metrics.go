package api

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requests     *prometheus.CounterVec //nolint:gochecknoglobals
	requestsOnce sync.Once              //nolint:gochecknoglobals
)

func observeRequest(op Operation, result string) {
	requestsOnce.Do(func() {
		requests = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "entity_admin_api_requests_total",
				Help: "Number of requests sent to the entity backend, differentiated by operation and result.",
			},
			[]string{"op", "result"},
		)
	})

	requests.WithLabelValues(string(op), result).Inc()
}
