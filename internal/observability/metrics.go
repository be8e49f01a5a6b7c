// Package observability exposes Prometheus metrics for the service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribune_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheRequests counts cache-aside lookups by key prefix and outcome (hit/miss).
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribune_cache_requests_total",
		Help: "Total number of cache-aside lookups by outcome",
	}, []string{"prefix", "outcome"})

	// EventsPublished counts change-notification events by domain.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tribune_events_published_total",
		Help: "Total number of change-notification events published",
	}, []string{"domain"})

	// AttachmentFilesDeleted counts attachment files removed from disk during cascades.
	AttachmentFilesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tribune_attachment_files_deleted_total",
		Help: "Total number of attachment files deleted from disk",
	})
)
