// Package metrics defines the Prometheus instrumentation exposed by the
// client. All collectors are registered on the default registry via
// promauto; embed them in a scrape endpoint with promhttp if wanted.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts API requests issued, by HTTP method.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sellsy_requests_total",
		Help: "Total number of API requests issued",
	}, []string{"method"})

	// RetriesTotal counts retry attempts after a failed request.
	RetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sellsy_retries_total",
		Help: "Total number of retry attempts",
	})

	// RequestsExhaustedTotal counts requests that failed every attempt.
	RequestsExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sellsy_requests_exhausted_total",
		Help: "Total number of requests that exhausted their retry budget",
	})

	// PagesFetchedTotal counts collection pages fetched, by endpoint.
	PagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sellsy_pages_fetched_total",
		Help: "Total number of collection pages fetched",
	}, []string{"endpoint"})

	// RecordsFetchedTotal counts records accumulated, by endpoint.
	RecordsFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sellsy_records_fetched_total",
		Help: "Total number of records accumulated",
	}, []string{"endpoint"})

	// MergeMismatchesTotal counts custom-field backfill records that
	// matched no primary record by their (id, created) composite key.
	MergeMismatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sellsy_merge_mismatches_total",
		Help: "Total number of unmatched custom-field backfill records",
	}, []string{"endpoint"})
)
