package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voiceassist_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "voiceassist_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "endpoint"},
	)

	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voiceassist_turns_total",
			Help: "Completed turns by detected language, intent and reported stage",
		},
		[]string{"language", "intent", "stage"},
	)

	AbusiveTurns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voiceassist_abusive_turns_total",
			Help: "Turns rejected by the abuse gate",
		},
	)

	Goodbyes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voiceassist_goodbyes_total",
			Help: "Turns that closed the call with a farewell",
		},
	)

	Escalations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voiceassist_escalations_total",
			Help: "Turns that handed the call to a human, by reason",
		},
		[]string{"reason"},
	)

	EngineFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "voiceassist_engine_failures_total",
			Help: "Turns answered with the error fallback",
		},
	)

	GenerateLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voiceassist_generate_latency_seconds",
			Help:    "Engine turn latency in seconds",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "voiceassist_active_sessions",
			Help: "Number of call sessions held in memory",
		},
	)

	CollaboratorErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voiceassist_collaborator_errors_total",
			Help: "Failed calls to external collaborators",
		},
		[]string{"collaborator"},
	)

	RecorderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voiceassist_turn_recorder_errors_total",
			Help: "Failed turn log writes, by recorder",
		},
		[]string{"recorder"},
	)
)
