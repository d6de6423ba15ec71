// Package observability provides Prometheus collectors and OpenTelemetry tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accountly_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// ProfileImageUploads counts profile picture uploads by result.
	ProfileImageUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accountly_profile_image_uploads_total",
		Help: "Total number of profile picture uploads by result",
	}, []string{"result"})

	// BlobUploadLatency records blob store upload latency.
	BlobUploadLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "accountly_blob_upload_latency_seconds",
		Help:    "Blob store upload latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// BlobOpErrors counts blob store operation failures by operation.
	BlobOpErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accountly_blob_op_errors_total",
		Help: "Total number of blob store operation failures",
	}, []string{"operation"})

	// VerificationTokens counts verification token lifecycle events by outcome.
	VerificationTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accountly_verification_tokens_total",
		Help: "Verification token lifecycle events by outcome",
	}, []string{"outcome"})

	// NotifierPublishErrors counts failed event publishes.
	NotifierPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accountly_notifier_publish_errors_total",
		Help: "Total number of failed notifier publishes",
	})
)
