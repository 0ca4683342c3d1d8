package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	writeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_write_failures_total",
			Help: "Total number of failed writes to local storage",
		},
		[]string{"op", "key"},
	)

	readFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_read_failures_total",
			Help: "Total number of stored values that could not be read or decoded",
		},
		[]string{"key"},
	)
)
