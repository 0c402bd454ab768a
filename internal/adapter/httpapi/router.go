package httpapi

import (
	"github.com/go-chi/chi/v5"

	"github.com/elach8/hayvn-match/internal/platform/logger"
	"github.com/elach8/hayvn-match/internal/platform/metrics"
)

// NewRouter wires the service routes. Reinstate lives under /api/admin
// because it reverses an operator decision; the gateway scopes who may
// reach it.
func NewRouter(h *Handler, log *logger.Logger, metricsManager *metrics.Manager) *chi.Mux {
	mux := chi.NewRouter()
	mux.Use(RequestLogger(log))
	mux.Use(Latency(metricsManager))

	mux.Get("/health", h.HandleHealth)

	mux.Post("/api/clients/{clientID}/recommendations/generate", h.HandleGenerateRecommendations)
	mux.Get("/api/clients/{clientID}/recommendations", h.HandleListRecommendations)
	mux.Post("/api/recommendations/{recommendationID}/dismiss", h.HandleDismissRecommendation)
	mux.Post("/api/recommendations/{recommendationID}/attach", h.HandleAttachRecommendation)
	mux.Post("/api/admin/recommendations/{recommendationID}/reinstate", h.HandleReinstateRecommendation)

	mux.Get("/api/clients/{clientID}/links", h.HandleListClientLinks)
	mux.Post("/api/clients/{clientID}/links", h.HandleCreateLink)
	mux.Patch("/api/links/{linkID}/feedback", h.HandleUpdateLinkFeedback)
	mux.Post("/api/links/{linkID}/archive", h.HandleArchiveLink)
	mux.Post("/api/links/{linkID}/restore", h.HandleRestoreLink)

	return mux
}
