package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ThumbnailsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thumbnailer_thumbnails_generated_total",
		Help: "Total number of thumbnails generated, by outcome",
	}, []string{"outcome"})

	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "thumbnailer_generation_duration_seconds",
		Help:    "Duration of the thumbnail pipeline, by stage",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"stage"})

	FramesGrabbedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thumbnailer_frames_grabbed_total",
		Help: "Total number of candidate frames grabbed across all requests",
	})

	FrameGrabFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thumbnailer_frame_grab_failures_total",
		Help: "Total number of candidate frame grabs that failed",
	})

	SelectionFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "thumbnailer_selection_fallbacks_total",
		Help: "Times frame selection failed and the fixed fallback timestamp was used",
	})

	UploadedBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thumbnailer_uploaded_bytes_total",
		Help: "Total bytes uploaded to storage, by backend",
	}, []string{"backend"})
)
