// Package metrics holds the prometheus collectors of the content pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "estatehub"

var (
	// Submissions counts submit attempts by kind (listing, blog) and outcome.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Content submissions by kind and outcome.",
	}, []string{"kind", "outcome"})

	MediaUploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "media_uploads_total",
		Help:      "Single-file uploads to the object store by bucket and outcome.",
	}, []string{"bucket", "outcome"})

	UploadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "media_upload_duration_seconds",
		Help:      "Latency of single-file uploads.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
	}, []string{"bucket"})

	// OrphanedMedia counts uploaded objects left without an owning record,
	// by how they were handled: deleted, queued for the janitor, or dropped.
	OrphanedMedia = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orphaned_media_total",
		Help:      "Uploaded objects whose record was never written.",
	}, []string{"bucket", "action"})

	QueryCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "query_cache_requests_total",
		Help:      "Published-corpus cache lookups by result.",
	}, []string{"result"})
)
