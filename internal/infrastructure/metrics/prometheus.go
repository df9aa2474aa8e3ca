// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "flixstream"

var (
	// CacheOperationsTotal tracks cache operations (get, set, delete).
	// Labels:
	//   - operation: get, set, delete
	//   - status: hit, miss, success, error
	//   - entity: video, video_list
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Total number of cache operations",
		},
		[]string{"operation", "status", "entity"},
	)

	// DBQueriesTotal tracks database queries.
	// Labels:
	//   - query_type: select, insert, update, delete
	//   - table: videos
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_queries_total",
			Help:      "Total number of database queries",
		},
		[]string{"query_type", "table"},
	)

	// SingleflightRequestsTotal tracks singleflight behavior.
	// Labels:
	//   - result: initiated (new execution), shared (reused result)
	SingleflightRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "singleflight_requests_total",
			Help:      "Total number of singleflight requests",
		},
		[]string{"result"},
	)

	// UpstreamRequestsTotal tracks object storage calls.
	// Labels:
	//   - operation: head, get, put, delete
	//   - result: success, not_found, error
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of object storage requests",
		},
		[]string{"operation", "result"},
	)

	// StreamResponsesTotal tracks streaming responses by endpoint and status code.
	StreamResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_responses_total",
			Help:      "Total number of media streaming responses",
		},
		[]string{"endpoint", "code"},
	)

	// StreamedBytesTotal counts body bytes relayed to clients.
	StreamedBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streamed_bytes_total",
			Help:      "Total number of media bytes relayed to clients",
		},
		[]string{"endpoint"},
	)

	// CleanupObjectsTotal tracks best-effort object deletions.
	// Labels:
	//   - result: deleted, failed, queued
	CleanupObjectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_objects_total",
			Help:      "Total number of orphaned objects handled by cleanup",
		},
		[]string{"result"},
	)
)

// Cache operation status constants.
const (
	CacheStatusHit     = "hit"
	CacheStatusMiss    = "miss"
	CacheStatusSuccess = "success"
	CacheStatusError   = "error"
)

// Cache operation type constants.
const (
	CacheOpGet    = "get"
	CacheOpSet    = "set"
	CacheOpDelete = "delete"
)

// Cache entity constants.
const (
	CacheEntityVideo     = "video"
	CacheEntityVideoList = "video_list"
)

// DB query type constants.
const (
	DBQuerySelect = "select"
	DBQueryInsert = "insert"
	DBQueryUpdate = "update"
	DBQueryDelete = "delete"
)

// Table name constants.
const (
	TableVideos = "videos"
)

// Singleflight result constants.
const (
	SingleflightInitiated = "initiated"
	SingleflightShared    = "shared"
)

// Upstream operation and result constants.
const (
	UpstreamOpHead   = "head"
	UpstreamOpGet    = "get"
	UpstreamOpPut    = "put"
	UpstreamOpDelete = "delete"

	UpstreamResultSuccess  = "success"
	UpstreamResultNotFound = "not_found"
	UpstreamResultError    = "error"
)

// Stream endpoint constants.
const (
	StreamEndpointVideo     = "video"
	StreamEndpointThumbnail = "thumbnail"
)

// Cleanup result constants.
const (
	CleanupDeleted = "deleted"
	CleanupFailed  = "failed"
	CleanupQueued  = "queued"
)

// PoolStats is a point-in-time view of a database connection pool.
type PoolStats struct {
	Acquired int32
	Idle     int32
	Total    int32
	Max      int32
}

// RegisterPoolStats exposes pool gauges sampled on every scrape.
// Call it once per process.
func RegisterPoolStats(sample func() PoolStats) {
	gauge := func(name, help string, pick func(PoolStats) int32) {
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(pick(sample()))
		})
	}

	gauge("acquired_conns", "Connections currently checked out", func(s PoolStats) int32 { return s.Acquired })
	gauge("idle_conns", "Idle connections in the pool", func(s PoolStats) int32 { return s.Idle })
	gauge("total_conns", "Open connections in the pool", func(s PoolStats) int32 { return s.Total })
	gauge("max_conns", "Configured pool size", func(s PoolStats) int32 { return s.Max })
}
