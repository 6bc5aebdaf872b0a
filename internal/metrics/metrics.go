package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamingvideo_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamingvideo_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Conversion Metrics
	ConversionsSubmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamingvideo_conversions_submitted_total",
			Help: "Total number of HLS conversions submitted",
		},
	)

	ConversionsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamingvideo_conversions_completed_total",
			Help: "Total number of finished HLS conversions",
		},
		[]string{"status"},
	)

	ConversionsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streamingvideo_conversions_in_progress",
			Help: "Number of conversions currently running",
		},
	)

	ConversionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamingvideo_conversion_duration_seconds",
			Help:    "End to end conversion duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1s to ~4.5 hours
		},
		[]string{"status"},
	)

	VariantTranscodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamingvideo_variant_transcode_duration_seconds",
			Help:    "Encoding duration per variant in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"variant"},
	)

	VariantsProducedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamingvideo_variants_produced_total",
			Help: "Total number of variants encoded and published",
		},
		[]string{"variant"},
	)

	ProbeFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamingvideo_probe_failures_total",
			Help: "Total number of failed resolution probes",
		},
		[]string{"target"},
	)

	// Storage Metrics
	UploadAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamingvideo_upload_attempts_total",
			Help: "Total number of upload attempts",
		},
		[]string{"result"},
	)

	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamingvideo_storage_operation_duration_seconds",
			Help:    "Storage operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	// Database Metrics
	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "streamingvideo_database_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation", "status"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamingvideo_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamingvideo_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Queue Metrics
	JobsDeadLetteredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "streamingvideo_jobs_dead_lettered_total",
			Help: "Total number of conversion jobs moved to the dead letter queue",
		},
	)

	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamingvideo_queue_depth",
			Help: "Messages waiting in each conversion queue",
		},
		[]string{"queue"},
	)

	// Webhook Metrics
	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamingvideo_webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts",
		},
		[]string{"event", "status"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamingvideo_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordConversionSubmitted records a conversion handed to the queue
func RecordConversionSubmitted() {
	ConversionsSubmittedTotal.Inc()
}

// RecordConversionStarted marks a conversion as running
func RecordConversionStarted() {
	ConversionsInProgress.Inc()
}

// RecordConversionFinished records the outcome of a conversion run
func RecordConversionFinished(status string, duration float64) {
	ConversionsInProgress.Dec()
	ConversionsCompletedTotal.WithLabelValues(status).Inc()
	ConversionDuration.WithLabelValues(status).Observe(duration)
}

// RecordVariant records one encoded and published variant
func RecordVariant(variant string, duration float64) {
	VariantTranscodeDuration.WithLabelValues(variant).Observe(duration)
	VariantsProducedTotal.WithLabelValues(variant).Inc()
}

// RecordProbeFailure records a failed probe of a "source" or "variant"
func RecordProbeFailure(target string) {
	ProbeFailuresTotal.WithLabelValues(target).Inc()
}

// RecordUploadAttempt records one upload try
func RecordUploadAttempt(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	UploadAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordStorageOperation records a storage operation
func RecordStorageOperation(operation, status string, duration float64) {
	StorageOperationDuration.WithLabelValues(operation, status).Observe(duration)
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string, duration float64) {
	DatabaseOperationDuration.WithLabelValues(operation, status).Observe(duration)
}

// RecordCacheAccess records cache hit/miss
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// RecordDeadLettered records a job moved to the dead letter queue
func RecordDeadLettered() {
	JobsDeadLetteredTotal.Inc()
}

// RecordQueueDepth records the current depth of a queue
func RecordQueueDepth(queue string, depth int) {
	QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordWebhookDelivery records a webhook delivery attempt
func RecordWebhookDelivery(event, status string) {
	WebhookDeliveriesTotal.WithLabelValues(event, status).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
