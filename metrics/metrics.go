package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	PathAll   = "all"
	PathIndex = "index"
	PathScan  = "scan"
)

var (
	deliveryRunning atomic.Pointer[func() int]

	// QueriesTotal counts executed queries by table and execution path.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fedb_queries_total",
			Help: "Total number of executed queries",
		},
		[]string{"table", "path"},
	)
	// QueryDuration is the synchronous execution time of a query.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fedb_query_duration_seconds",
			Help:    "Query execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"table"},
	)
	// JoinLookupsTotal counts child lookups made while resolving joins.
	JoinLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fedb_join_lookups_total",
			Help: "Total number of join id lookups",
		},
		[]string{"table", "resolved"},
	)
	// TableRows is the row count of each registered table.
	TableRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fedb_table_rows",
			Help: "Number of rows in each table",
		},
		[]string{"table"},
	)
	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fedb_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// SetDeliveryPool makes the delivery workers gauge report running.
func SetDeliveryPool(running func() int) {
	deliveryRunning.Store(&running)
}

func init() {
	promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "fedb_delivery_workers_running",
			Help: "Number of query delivery workers currently running",
		},
		func() float64 {
			running := deliveryRunning.Load()
			if running == nil {
				return 0
			}
			return float64((*running)())
		},
	)
}
