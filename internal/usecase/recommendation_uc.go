package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/elach8/hayvn-match/internal/domain"
	"github.com/elach8/hayvn-match/internal/matching"
	"github.com/elach8/hayvn-match/internal/platform/logger"
	"github.com/elach8/hayvn-match/internal/platform/metrics"
	"github.com/elach8/hayvn-match/internal/port/cache"
)

// RecommendationUsecase implements the recommendation queue lifecycle:
// generating candidates from a matcher run, listing the queue, and the
// dismiss/reinstate operator actions.
type RecommendationUsecase struct {
	criteriaRepo domain.CriteriaRepository
	listingRepo  domain.ListingRepository
	recRepo      domain.RecommendationRepository
	matcher      *matching.Matcher
	listings     *listingReader
	natsPub      EventPublisher
	metrics      *metrics.Manager
	logger       *logger.Logger
}

// NewRecommendationUsecase creates a new RecommendationUsecase. cacheRepo,
// natsPub and metricsManager may be nil; the usecase degrades gracefully.
func NewRecommendationUsecase(
	criteriaRepo domain.CriteriaRepository,
	listingRepo domain.ListingRepository,
	recRepo domain.RecommendationRepository,
	matcher *matching.Matcher,
	cacheRepo cache.CacheRepository,
	natsPub EventPublisher,
	metricsManager *metrics.Manager,
	log *logger.Logger,
) *RecommendationUsecase {
	return &RecommendationUsecase{
		criteriaRepo: criteriaRepo,
		listingRepo:  listingRepo,
		recRepo:      recRepo,
		matcher:      matcher,
		listings:     newListingReader(listingRepo, cacheRepo, log),
		natsPub:      natsPub,
		metrics:      metricsManager,
		logger:       log.Named("RecommendationUsecase"),
	}
}

// GenerateInput holds the optional knobs for one generation run.
type GenerateInput struct {
	IncludeClosed bool
	Limit         int
}

// GenerateResult reports what one run did. Recommendations holds the
// inserted and refreshed rows in rank order; candidates whose stored row was
// already attached or dismissed are counted in Skipped and never returned.
type GenerateResult struct {
	Recommendations []*domain.Recommendation
	Inserted        int
	Refreshed       int
	Skipped         int
}

// Generate runs the matcher for one client and upserts every candidate.
// Reruns are non-destructive: resolved rows are left untouched, still-new
// rows get fresh scores and reasons.
func (uc *RecommendationUsecase) Generate(ctx context.Context, clientID string, input GenerateInput) (*GenerateResult, error) {
	uc.logger.Info("Generating recommendations",
		zap.String("client_id", clientID),
		zap.Bool("include_closed", input.IncludeClosed),
		zap.Int("limit", input.Limit))

	if clientID == "" {
		return nil, fmt.Errorf("%w: client id cannot be empty", domain.ErrInvalidInput)
	}

	criteria, err := uc.criteriaRepo.GetByClientID(ctx, clientID)
	if err != nil {
		uc.logger.Error("Failed to load criteria", zap.Error(err), zap.String("client_id", clientID))
		return nil, err
	}
	if err := criteria.Validate(); err != nil {
		uc.logger.Warn("Stored criteria failed validation", zap.Error(err), zap.String("client_id", clientID))
		return nil, err
	}

	pool, err := uc.listingRepo.FindByBrokerage(ctx, criteria.BrokerageID, input.IncludeClosed)
	if err != nil {
		uc.logger.Error("Failed to load listing pool", zap.Error(err), zap.String("brokerage_id", criteria.BrokerageID))
		return nil, err
	}

	candidates := uc.matcher.Match(criteria, pool, matching.Params{
		IncludeClosed: input.IncludeClosed,
		Limit:         input.Limit,
	})
	if uc.metrics != nil {
		uc.metrics.MatchRunsTotal.Inc()
	}

	result := &GenerateResult{}
	for _, cand := range candidates {
		rec, err := domain.NewRecommendation(clientID, cand.Listing.ID, cand.Score, cand.Reasons)
		if err != nil {
			return nil, err
		}
		stored, outcome, err := uc.recRepo.Upsert(ctx, rec)
		if err != nil {
			uc.logger.Error("Failed to upsert recommendation",
				zap.Error(err),
				zap.String("client_id", clientID),
				zap.String("listing_id", cand.Listing.ID))
			return nil, err
		}
		switch outcome {
		case domain.UpsertInserted:
			result.Inserted++
			result.Recommendations = append(result.Recommendations, stored)
		case domain.UpsertRefreshed:
			result.Refreshed++
			result.Recommendations = append(result.Recommendations, stored)
		case domain.UpsertSkipped:
			result.Skipped++
		}
	}
	if uc.metrics != nil {
		uc.metrics.RecommendationsInsertedTotal.Add(float64(result.Inserted))
		uc.metrics.RecommendationsRefreshedTotal.Add(float64(result.Refreshed))
		uc.metrics.RecommendationsSkippedTotal.Add(float64(result.Skipped))
	}

	if uc.natsPub != nil {
		eventData := map[string]interface{}{
			"client_id":    clientID,
			"candidates":   len(candidates),
			"inserted":     result.Inserted,
			"refreshed":    result.Refreshed,
			"skipped":      result.Skipped,
			"generated_at": time.Now().UTC().Format(time.RFC3339Nano),
		}
		if err := uc.natsPub.Publish(ctx, "recommendation.generated", eventData); err != nil {
			uc.logger.Warn("Failed to publish recommendation.generated event to NATS", zap.Error(err), zap.String("client_id", clientID))
		}
	}

	uc.logger.Info("Recommendations generated",
		zap.String("client_id", clientID),
		zap.Int("candidates", len(candidates)),
		zap.Int("inserted", result.Inserted),
		zap.Int("refreshed", result.Refreshed),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// List returns a client's recommendation queue enriched with listing data.
// A nil statusFilter shows the open queue ("new"); "all" lifts the filter.
// Items whose listing has dropped out of the feed are kept with a nil
// Listing so operators can see the stale row.
func (uc *RecommendationUsecase) List(ctx context.Context, clientID string, statusFilter *string, limit int64) ([]domain.QueueItem, error) {
	uc.logger.Info("Listing recommendations",
		zap.String("client_id", clientID),
		zap.Any("status_filter", statusFilter),
		zap.Int64("limit", limit))

	if clientID == "" {
		return nil, fmt.Errorf("%w: client id cannot be empty", domain.ErrInvalidInput)
	}

	filter := domain.RecommendationFilter{Limit: limit}
	if statusFilter == nil {
		newStatus := domain.RecommendationStatusNew
		filter.Status = &newStatus
	} else if *statusFilter != "all" {
		s := domain.RecommendationStatus(*statusFilter)
		if !s.IsValid() {
			return nil, fmt.Errorf("%w: invalid status filter value '%s'", domain.ErrInvalidInput, *statusFilter)
		}
		filter.Status = &s
	}

	recs, err := uc.recRepo.FindByClient(ctx, clientID, filter)
	if err != nil {
		uc.logger.Error("Failed to list recommendations", zap.Error(err), zap.String("client_id", clientID))
		return nil, err
	}

	items := make([]domain.QueueItem, 0, len(recs))
	for _, rec := range recs {
		listing, err := uc.listings.fetch(ctx, rec.ListingID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				uc.logger.Warn("Listing behind recommendation no longer exists",
					zap.String("recommendation_id", rec.ID),
					zap.String("listing_id", rec.ListingID))
				items = append(items, domain.QueueItem{Recommendation: rec})
				continue
			}
			return nil, err
		}
		items = append(items, domain.QueueItem{Recommendation: rec, Listing: listing})
	}
	return items, nil
}

// Dismiss rejects a new recommendation. The conditional write in the
// repository is what makes concurrent dismiss/attach safe; the in-memory
// guard just fails fast with a better message.
func (uc *RecommendationUsecase) Dismiss(ctx context.Context, recommendationID string) error {
	uc.logger.Info("Dismissing recommendation", zap.String("recommendation_id", recommendationID))

	rec, err := uc.recRepo.GetByID(ctx, recommendationID)
	if err != nil {
		return err
	}
	if err := rec.Dismiss(); err != nil {
		return err
	}

	if err := uc.recRepo.TransitionStatus(ctx, rec.ID, domain.RecommendationStatusNew, domain.RecommendationStatusDismissed); err != nil {
		return err
	}
	if uc.metrics != nil {
		uc.metrics.DismissalsTotal.Inc()
	}

	if uc.natsPub != nil {
		eventData := map[string]interface{}{
			"recommendation_id": rec.ID,
			"client_id":         rec.ClientID,
			"listing_id":        rec.ListingID,
			"dismissed_at":      time.Now().UTC().Format(time.RFC3339Nano),
		}
		if err := uc.natsPub.Publish(ctx, "recommendation.dismissed", eventData); err != nil {
			uc.logger.Warn("Failed to publish recommendation.dismissed event to NATS", zap.Error(err), zap.String("recommendation_id", rec.ID))
		}
	}

	uc.logger.Info("Recommendation dismissed", zap.String("recommendation_id", rec.ID))
	return nil
}

// Reinstate moves a dismissed recommendation back into the open queue.
func (uc *RecommendationUsecase) Reinstate(ctx context.Context, recommendationID string) error {
	uc.logger.Info("Reinstating recommendation", zap.String("recommendation_id", recommendationID))

	rec, err := uc.recRepo.GetByID(ctx, recommendationID)
	if err != nil {
		return err
	}
	if err := rec.Reinstate(); err != nil {
		return err
	}

	if err := uc.recRepo.TransitionStatus(ctx, rec.ID, domain.RecommendationStatusDismissed, domain.RecommendationStatusNew); err != nil {
		return err
	}
	if uc.metrics != nil {
		uc.metrics.ReinstatesTotal.Inc()
	}

	if uc.natsPub != nil {
		eventData := map[string]interface{}{
			"recommendation_id": rec.ID,
			"client_id":         rec.ClientID,
			"listing_id":        rec.ListingID,
			"reinstated_at":     time.Now().UTC().Format(time.RFC3339Nano),
		}
		if err := uc.natsPub.Publish(ctx, "recommendation.reinstated", eventData); err != nil {
			uc.logger.Warn("Failed to publish recommendation.reinstated event to NATS", zap.Error(err), zap.String("recommendation_id", rec.ID))
		}
	}

	uc.logger.Info("Recommendation reinstated", zap.String("recommendation_id", rec.ID))
	return nil
}
