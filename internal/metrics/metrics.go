package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scribe_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Pipeline metrics
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_batches_total",
			Help: "Total number of generation batches by outcome",
		},
		[]string{"outcome"},
	)

	ArticlesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_articles_generated_total",
			Help: "Total number of articles persisted",
		},
		[]string{"category"},
	)

	ItemFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_item_failures_total",
			Help: "Total number of failed batch items by pipeline stage",
		},
		[]string{"stage"},
	)

	ItemDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scribe_item_duration_seconds",
			Help:    "Time spent producing a single article",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 90, 120, 180},
		},
	)

	ImageFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_image_resolutions_total",
			Help: "Cover image resolutions by tier",
		},
		[]string{"tier"},
	)

	CommentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scribe_comments_created_total",
			Help: "Total number of generated comments persisted",
		},
	)

	// NATS metrics
	NatsMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scribe_nats_messages_published_total",
			Help: "Total number of NATS messages published",
		},
		[]string{"subject", "status"},
	)

	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scribe_application_info",
			Help: "Application information",
		},
		[]string{"version"},
	)
)

// Init sets static gauges.
func Init(version string) {
	ApplicationInfo.WithLabelValues(version).Set(1)
}
