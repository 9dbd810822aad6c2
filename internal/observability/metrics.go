package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesRead = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "glasscore",
		Name:      "frames_read_total",
		Help:      "Total number of VXL0 frame records read from the camera socket",
	})

	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "glasscore",
		Name:      "frames_dropped_total",
		Help:      "Total number of frames dropped by the bounded recognition queue",
	})

	FramesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "glasscore",
		Name:      "frames_processed_total",
		Help:      "Total number of frames decoded and run through recognition",
	})

	FacesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "glasscore",
		Name:      "faces_detected_total",
		Help:      "Total number of frames where at least one face passed the detection floor",
	})

	GalleryInserts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "glasscore",
		Name:      "gallery_inserts_total",
		Help:      "Total number of new PersonId gallery entries created",
	})

	GalleryCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "glasscore",
		Name:      "gallery_cache_requests_total",
		Help:      "Gallery cache lookups by outcome (hit/miss/refresh)",
	}, []string{"outcome"})

	SwitchEvents = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "glasscore",
		Name:      "switch_events_total",
		Help:      "Total number of SwitchEvent transitions emitted",
	})

	InferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "glasscore",
		Name:      "inference_duration_seconds",
		Help:      "Duration of ML inference stages",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"stage"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "glasscore",
		Name:      "recognition_queue_depth",
		Help:      "Current depth of the frame ingest to recognition worker queue",
	})

	SummaryTasksSpawned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "glasscore",
		Name:      "summary_tasks_spawned_total",
		Help:      "Total number of detached background summarization tasks spawned",
	})

	RecapTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "glasscore",
		Name:      "recap_timeouts_total",
		Help:      "Total number of recap generations that hit the 30s timeout",
	})

	AgentTurns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "glasscore",
		Name:      "agent_turns_total",
		Help:      "Agent turns by outcome (reply/suppressed/error)",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "glasscore",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "glasscore",
		Name:      "ws_connections",
		Help:      "Number of active glasses WebSocket connections",
	})

	AdminAuthRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "glasscore",
		Name:      "admin_auth_rejections_total",
		Help:      "Admin API requests rejected by APIKeyMiddleware, by reason (missing/invalid)",
	}, []string{"reason"})
)
