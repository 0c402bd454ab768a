package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/elach8/hayvn-match/internal/platform/logger"
)

// Manager holds the service's Prometheus metrics on a private registry.
type Manager struct {
	Registry *prometheus.Registry

	MatchRunsTotal                prometheus.Counter
	RecommendationsInsertedTotal  prometheus.Counter
	RecommendationsRefreshedTotal prometheus.Counter
	RecommendationsSkippedTotal   prometheus.Counter
	DismissalsTotal               prometheus.Counter
	AttachesTotal                 prometheus.Counter
	ReinstatesTotal               prometheus.Counter
	ExternalIDConflictsTotal      prometheus.Counter
	APIErrorsTotal                *prometheus.CounterVec
	APILatency                    *prometheus.HistogramVec
}

// NewManager initializes and registers the service metrics. The namespace is
// derived from the service name; hyphens are not legal in metric names.
func NewManager(serviceName string) *Manager {
	ns := strings.ReplaceAll(serviceName, "-", "_")
	registry := prometheus.NewRegistry()

	matchRunsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "match_runs_total",
		Help:      "Total number of matcher runs.",
	})
	recommendationsInsertedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "recommendations_inserted_total",
		Help:      "Total number of recommendation rows inserted as new.",
	})
	recommendationsRefreshedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "recommendations_refreshed_total",
		Help:      "Total number of still-new recommendation rows refreshed by a rerun.",
	})
	recommendationsSkippedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "recommendations_skipped_total",
		Help:      "Total number of candidates skipped because the stored row was already resolved.",
	})
	dismissalsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "recommendation_dismissals_total",
		Help:      "Total number of recommendations dismissed by operators.",
	})
	attachesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "recommendation_attaches_total",
		Help:      "Total number of recommendations attached.",
	})
	reinstatesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "recommendation_reinstates_total",
		Help:      "Total number of dismissed recommendations reinstated.",
	})
	externalIDConflictsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "property_external_id_conflicts_total",
		Help:      "Total number of attach races resolved by reusing an existing property.",
	})
	apiErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "api_errors_total",
		Help:      "Total number of API errors by handler.",
	}, []string{"handler", "error_type"})
	apiLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "api_request_latency_seconds",
		Help:      "Latency of API requests by handler.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"handler"})

	registry.MustRegister(
		matchRunsTotal,
		recommendationsInsertedTotal,
		recommendationsRefreshedTotal,
		recommendationsSkippedTotal,
		dismissalsTotal,
		attachesTotal,
		reinstatesTotal,
		externalIDConflictsTotal,
		apiErrorsTotal,
		apiLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &Manager{
		Registry:                      registry,
		MatchRunsTotal:                matchRunsTotal,
		RecommendationsInsertedTotal:  recommendationsInsertedTotal,
		RecommendationsRefreshedTotal: recommendationsRefreshedTotal,
		RecommendationsSkippedTotal:   recommendationsSkippedTotal,
		DismissalsTotal:               dismissalsTotal,
		AttachesTotal:                 attachesTotal,
		ReinstatesTotal:               reinstatesTotal,
		ExternalIDConflictsTotal:      externalIDConflictsTotal,
		APIErrorsTotal:                apiErrorsTotal,
		APILatency:                    apiLatency,
	}
}

// StartMetricsServer exposes the registry at /metrics. Blocks until the
// server stops; run it in a goroutine.
func StartMetricsServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Metrics server port not configured, server will not start")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))
	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	return server.ListenAndServe()
}
