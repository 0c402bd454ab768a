package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/elach8/hayvn-match/internal/domain"
	"github.com/elach8/hayvn-match/internal/platform/logger"
	"github.com/elach8/hayvn-match/internal/platform/metrics"
	"github.com/elach8/hayvn-match/internal/usecase"
)

// RecommendationService is the slice of the recommendation usecase the HTTP
// layer consumes.
type RecommendationService interface {
	Generate(ctx context.Context, clientID string, input usecase.GenerateInput) (*usecase.GenerateResult, error)
	List(ctx context.Context, clientID string, statusFilter *string, limit int64) ([]domain.QueueItem, error)
	Dismiss(ctx context.Context, recommendationID string) error
	Reinstate(ctx context.Context, recommendationID string) error
}

// AttachService promotes recommendations into properties and links.
type AttachService interface {
	Attach(ctx context.Context, recommendationID string) (*usecase.AttachResult, error)
}

// LinkService manages client-property links.
type LinkService interface {
	CreateLink(ctx context.Context, input usecase.CreateLinkInput) (*domain.ClientPropertyLink, error)
	UpdateFeedback(ctx context.Context, linkID string, input usecase.UpdateFeedbackInput) (*domain.ClientPropertyLink, error)
	Archive(ctx context.Context, linkID string) (*domain.ClientPropertyLink, error)
	Restore(ctx context.Context, linkID string) (*domain.ClientPropertyLink, error)
	ListClientLinks(ctx context.Context, clientID string, includeArchived bool) ([]*domain.ClientPropertyLink, error)
}

// Handler serves the recommendation and link HTTP API.
type Handler struct {
	recommendations RecommendationService
	attaches        AttachService
	links           LinkService
	metrics         *metrics.Manager
	logger          *logger.Logger
}

// NewHandler creates the HTTP handler. metricsManager may be nil.
func NewHandler(
	recommendations RecommendationService,
	attaches AttachService,
	links LinkService,
	metricsManager *metrics.Manager,
	log *logger.Logger,
) *Handler {
	return &Handler{
		recommendations: recommendations,
		attaches:        attaches,
		links:           links,
		metrics:         metricsManager,
		logger:          log.Named("HTTPHandler"),
	}
}

// --- Request and response shapes ---

type generateRequest struct {
	IncludeClosed bool `json:"include_closed"`
	Limit         int  `json:"limit"`
}

type createLinkRequest struct {
	PropertyID   string `json:"property_id"`
	Relationship string `json:"relationship"`
	Interest     string `json:"interest"`
	Favorite     *bool  `json:"favorite"`
}

type feedbackRequest struct {
	Feedback *string `json:"feedback"`
	Rating   *int32  `json:"rating"`
}

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

type recommendationResponse struct {
	ID         string     `json:"id"`
	ClientID   string     `json:"client_id"`
	ListingID  string     `json:"listing_id"`
	Score      int32      `json:"score"`
	Reasons    []string   `json:"reasons"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	LastSeenAt time.Time  `json:"last_seen_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

func toRecommendationResponse(rec *domain.Recommendation) recommendationResponse {
	return recommendationResponse{
		ID:         rec.ID,
		ClientID:   rec.ClientID,
		ListingID:  rec.ListingID,
		Score:      rec.Score,
		Reasons:    rec.Reasons,
		Status:     string(rec.Status),
		CreatedAt:  rec.CreatedAt,
		UpdatedAt:  rec.UpdatedAt,
		LastSeenAt: rec.LastSeenAt,
		ResolvedAt: rec.ResolvedAt,
	}
}

type generateResponse struct {
	Recommendations []recommendationResponse `json:"recommendations"`
	Inserted        int                      `json:"inserted"`
	Refreshed       int                      `json:"refreshed"`
	Skipped         int                      `json:"skipped"`
}

type listingView struct {
	ID           string    `json:"id"`
	ExternalID   string    `json:"external_id"`
	AddressLine  string    `json:"address_line,omitempty"`
	City         string    `json:"city,omitempty"`
	Neighborhood string    `json:"neighborhood,omitempty"`
	State        string    `json:"state,omitempty"`
	PostalCode   string    `json:"postal_code,omitempty"`
	Price        *float64  `json:"price,omitempty"`
	Beds         *int32    `json:"beds,omitempty"`
	Baths        *float64  `json:"baths,omitempty"`
	Sqft         *int32    `json:"sqft,omitempty"`
	PropertyType string    `json:"property_type,omitempty"`
	SourceStatus string    `json:"source_status"`
	ListedAt     time.Time `json:"listed_at"`
}

func toListingView(l *domain.Listing) *listingView {
	if l == nil {
		return nil
	}
	return &listingView{
		ID:           l.ID,
		ExternalID:   l.ExternalID,
		AddressLine:  l.AddressLine,
		City:         l.City,
		Neighborhood: l.Neighborhood,
		State:        l.State,
		PostalCode:   l.PostalCode,
		Price:        l.Price,
		Beds:         l.Beds,
		Baths:        l.Baths,
		Sqft:         l.Sqft,
		PropertyType: l.PropertyType,
		SourceStatus: string(l.SourceStatus),
		ListedAt:     l.ListedAt,
	}
}

type queueItemResponse struct {
	Recommendation recommendationResponse `json:"recommendation"`
	// Listing is null when the feed no longer carries the row; the
	// recommendation is stale but deliberately kept visible.
	Listing *listingView `json:"listing"`
}

type attachResponse struct {
	RecommendationID string `json:"recommendation_id"`
	PropertyID       string `json:"property_id"`
	LinkID           string `json:"link_id"`
}

type linkResponse struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"client_id"`
	PropertyID   string     `json:"property_id"`
	Relationship string     `json:"relationship"`
	Interest     string     `json:"interest"`
	Favorite     bool       `json:"favorite"`
	Feedback     string     `json:"feedback,omitempty"`
	Rating       *int32     `json:"rating,omitempty"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ArchivedAt   *time.Time `json:"archived_at,omitempty"`
}

func toLinkResponse(l *domain.ClientPropertyLink) linkResponse {
	return linkResponse{
		ID:           l.ID,
		ClientID:     l.ClientID,
		PropertyID:   l.PropertyID,
		Relationship: string(l.Relationship),
		Interest:     string(l.Interest),
		Favorite:     l.Favorite,
		Feedback:     l.Feedback,
		Rating:       l.Rating,
		Status:       string(l.Status),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
		ArchivedAt:   l.ArchivedAt,
	}
}

// --- Helpers ---

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		// The status line is already gone out, so an encode failure here can
		// only be logged by the caller's middleware.
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func statusFromError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (h *Handler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	code, errorType := statusFromError(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		h.logger.Warn("Request rejected", zap.String("path", r.URL.Path), zap.Int("status", code), zap.Error(err))
	}
	if h.metrics != nil {
		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = r.URL.Path
		}
		h.metrics.APIErrorsTotal.WithLabelValues(pattern, errorType).Inc()
	}
	respondWithJSON(w, code, errorResponse{Error: err.Error(), Type: errorType})
}

func parseInt64QueryParam(r *http.Request, key string, defaultValue int64) int64 {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	valInt, err := strconv.ParseInt(valStr, 10, 64)
	if err != nil || valInt < 0 {
		return defaultValue
	}
	return valInt
}

// --- Handlers ---

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) HandleGenerateRecommendations(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	var req generateRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondWithError(w, r, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err))
			return
		}
	}

	result, err := h.recommendations.Generate(r.Context(), clientID, usecase.GenerateInput{
		IncludeClosed: req.IncludeClosed,
		Limit:         req.Limit,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	resp := generateResponse{
		Recommendations: make([]recommendationResponse, 0, len(result.Recommendations)),
		Inserted:        result.Inserted,
		Refreshed:       result.Refreshed,
		Skipped:         result.Skipped,
	}
	for _, rec := range result.Recommendations {
		resp.Recommendations = append(resp.Recommendations, toRecommendationResponse(rec))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleListRecommendations(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	var statusFilter *string
	if s := r.URL.Query().Get("status"); s != "" {
		statusFilter = &s
	}
	limit := parseInt64QueryParam(r, "limit", 0)

	items, err := h.recommendations.List(r.Context(), clientID, statusFilter, limit)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	resp := make([]queueItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, queueItemResponse{
			Recommendation: toRecommendationResponse(item.Recommendation),
			Listing:        toListingView(item.Listing),
		})
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleDismissRecommendation(w http.ResponseWriter, r *http.Request) {
	recommendationID := chi.URLParam(r, "recommendationID")
	if err := h.recommendations.Dismiss(r.Context(), recommendationID); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) HandleAttachRecommendation(w http.ResponseWriter, r *http.Request) {
	recommendationID := chi.URLParam(r, "recommendationID")
	result, err := h.attaches.Attach(r.Context(), recommendationID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, attachResponse{
		RecommendationID: result.RecommendationID,
		PropertyID:       result.PropertyID,
		LinkID:           result.LinkID,
	})
}

func (h *Handler) HandleReinstateRecommendation(w http.ResponseWriter, r *http.Request) {
	recommendationID := chi.URLParam(r, "recommendationID")
	if err := h.recommendations.Reinstate(r.Context(), recommendationID); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) HandleListClientLinks(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	links, err := h.links.ListClientLinks(r.Context(), clientID, includeArchived)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	resp := make([]linkResponse, 0, len(links))
	for _, l := range links {
		resp = append(resp, toLinkResponse(l))
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleCreateLink(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")

	var req createLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, r, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err))
		return
	}

	link, err := h.links.CreateLink(r.Context(), usecase.CreateLinkInput{
		ClientID:     clientID,
		PropertyID:   req.PropertyID,
		Relationship: req.Relationship,
		Interest:     req.Interest,
		Favorite:     req.Favorite,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, toLinkResponse(link))
}

func (h *Handler) HandleUpdateLinkFeedback(w http.ResponseWriter, r *http.Request) {
	linkID := chi.URLParam(r, "linkID")

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, r, fmt.Errorf("%w: invalid request body: %v", domain.ErrInvalidInput, err))
		return
	}

	link, err := h.links.UpdateFeedback(r.Context(), linkID, usecase.UpdateFeedbackInput{
		Feedback: req.Feedback,
		Rating:   req.Rating,
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toLinkResponse(link))
}

func (h *Handler) HandleArchiveLink(w http.ResponseWriter, r *http.Request) {
	linkID := chi.URLParam(r, "linkID")
	link, err := h.links.Archive(r.Context(), linkID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toLinkResponse(link))
}

func (h *Handler) HandleRestoreLink(w http.ResponseWriter, r *http.Request) {
	linkID := chi.URLParam(r, "linkID")
	link, err := h.links.Restore(r.Context(), linkID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toLinkResponse(link))
}
