package controller

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK         = "ok"
	resultError      = "error"
	resultSuperseded = "superseded"
)

type metrics struct {
	loads        *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	mutations    *prometheus.CounterVec
}

var (
	collectors     *metrics  //nolint:gochecknoglobals
	collectorsOnce sync.Once //nolint:gochecknoglobals
)

func getMetrics() *metrics {
	collectorsOnce.Do(func() {
		collectors = &metrics{
			loads: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "entity_admin_loads_total",
					Help: "Number of controller loads, differentiated by mode and result.",
				},
				[]string{"mode", "result"},
			),
			loadDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "entity_admin_load_duration_seconds",
					Help:    "Duration of controller loads.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"mode"},
			),
			mutations: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "entity_admin_mutations_total",
					Help: "Number of create, update and delete calls, differentiated by result.",
				},
				[]string{"op", "result"},
			),
		}
	})

	return collectors
}

func observeLoad(mode Mode, result string, took time.Duration) {
	m := getMetrics()
	m.loads.WithLabelValues(string(mode), result).Inc()
	m.loadDuration.WithLabelValues(string(mode)).Observe(took.Seconds())
}

func observeMutation(op string, err error) {
	result := resultOK
	if err != nil {
		result = resultError
	}

	getMetrics().mutations.WithLabelValues(op, result).Inc()
}
