package storage

import "github.com/prometheus/client_golang/prometheus"

func WriteFailures(op, key string) prometheus.Counter {
	return writeFailures.WithLabelValues(op, key)
}
