package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TrialsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cse_trials_processed_total",
		Help: "Total number of trials processed, by status",
	}, []string{"status"})

	TrialStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cse_trial_stage_duration_seconds",
		Help:    "Duration of each trial pipeline stage",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cse_frames_extracted_total",
		Help: "Total number of video frames decoded across all trials",
	})

	DetectionFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cse_detection_fallbacks_total",
		Help: "Frames where region detection failed and a fallback box was used",
	}, []string{"kind"})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cse_active_workers",
		Help: "Number of trials currently in the compute stage",
	})
)
