package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/elach8/hayvn-match/internal/domain"
	"github.com/elach8/hayvn-match/internal/platform/logger"
	"github.com/elach8/hayvn-match/internal/platform/metrics"
	"github.com/elach8/hayvn-match/internal/port/cache"
)

// AttachUsecase promotes an accepted recommendation into a canonical
// property and an active client-property link.
type AttachUsecase struct {
	recRepo      domain.RecommendationRepository
	propertyRepo domain.PropertyRepository
	linkRepo     domain.LinkRepository
	listings     *listingReader
	natsPub      EventPublisher
	metrics      *metrics.Manager
	logger       *logger.Logger
}

// NewAttachUsecase creates a new AttachUsecase. cacheRepo, natsPub and
// metricsManager may be nil.
func NewAttachUsecase(
	recRepo domain.RecommendationRepository,
	propertyRepo domain.PropertyRepository,
	linkRepo domain.LinkRepository,
	listingRepo domain.ListingRepository,
	cacheRepo cache.CacheRepository,
	natsPub EventPublisher,
	metricsManager *metrics.Manager,
	log *logger.Logger,
) *AttachUsecase {
	return &AttachUsecase{
		recRepo:      recRepo,
		propertyRepo: propertyRepo,
		linkRepo:     linkRepo,
		listings:     newListingReader(listingRepo, cacheRepo, log),
		natsPub:      natsPub,
		metrics:      metricsManager,
		logger:       log.Named("AttachUsecase"),
	}
}

// AttachResult reports the rows an attach resolved to. The reused flags tell
// whether an existing property or link was picked up instead of created.
type AttachResult struct {
	RecommendationID string
	PropertyID       string
	LinkID           string
	PropertyReused   bool
	LinkReused       bool
}

// Attach accepts a new recommendation: it finds or creates the canonical
// property for the listing's external id, finds or creates the active
// client-property link, then flips the recommendation to attached. Every
// step up to the status flip is idempotent, so a failed attempt can simply
// be retried.
func (uc *AttachUsecase) Attach(ctx context.Context, recommendationID string) (*AttachResult, error) {
	uc.logger.Info("Attaching recommendation", zap.String("recommendation_id", recommendationID))

	rec, err := uc.recRepo.GetByID(ctx, recommendationID)
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.RecommendationStatusNew {
		return nil, fmt.Errorf("%w: recommendation %s is %s, only new recommendations can be attached",
			domain.ErrInvalidTransition, rec.ID, rec.Status)
	}

	listing, err := uc.listings.fetch(ctx, rec.ListingID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: listing %s behind recommendation %s is gone from the feed",
				domain.ErrNotFound, rec.ListingID, rec.ID)
		}
		return nil, err
	}

	property, propertyReused, err := uc.resolveProperty(ctx, listing)
	if err != nil {
		return nil, err
	}

	link, linkReused, err := uc.resolveLink(ctx, rec.ClientID, property.ID)
	if err != nil {
		return nil, err
	}

	// Property and link creation above are idempotent, so losing the status
	// race here leaves nothing to undo.
	if err := uc.recRepo.TransitionStatus(ctx, rec.ID, domain.RecommendationStatusNew, domain.RecommendationStatusAttached); err != nil {
		return nil, err
	}
	if uc.metrics != nil {
		uc.metrics.AttachesTotal.Inc()
	}

	if uc.natsPub != nil {
		eventData := map[string]interface{}{
			"recommendation_id": rec.ID,
			"client_id":         rec.ClientID,
			"listing_id":        rec.ListingID,
			"property_id":       property.ID,
			"link_id":           link.ID,
			"property_reused":   propertyReused,
			"link_reused":       linkReused,
			"attached_at":       time.Now().UTC().Format(time.RFC3339Nano),
		}
		if err := uc.natsPub.Publish(ctx, "recommendation.attached", eventData); err != nil {
			uc.logger.Warn("Failed to publish recommendation.attached event to NATS", zap.Error(err), zap.String("recommendation_id", rec.ID))
		}
	}

	uc.logger.Info("Recommendation attached",
		zap.String("recommendation_id", rec.ID),
		zap.String("property_id", property.ID),
		zap.String("link_id", link.ID))
	return &AttachResult{
		RecommendationID: rec.ID,
		PropertyID:       property.ID,
		LinkID:           link.ID,
		PropertyReused:   propertyReused,
		LinkReused:       linkReused,
	}, nil
}

// resolveProperty finds the canonical property for the listing's external id
// or creates it. An insert that loses the uniqueness race re-reads and
// reuses the winner instead of failing the attach.
func (uc *AttachUsecase) resolveProperty(ctx context.Context, listing *domain.Listing) (*domain.Property, bool, error) {
	existing, err := uc.propertyRepo.FindByExternalID(ctx, listing.ExternalID)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	property, err := domain.NewPropertyFromListing(listing)
	if err != nil {
		return nil, false, err
	}
	err = uc.propertyRepo.Create(ctx, property)
	if err == nil {
		return property, false, nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		return nil, false, err
	}

	// Lost the insert race on the external id. The unique index guarantees
	// exactly one winner; reuse it.
	if uc.metrics != nil {
		uc.metrics.ExternalIDConflictsTotal.Inc()
	}
	uc.logger.Info("Property insert lost a race on external id, reusing existing row",
		zap.String("external_id", listing.ExternalID))
	winner, err := uc.propertyRepo.FindByExternalID(ctx, listing.ExternalID)
	if err != nil {
		return nil, false, err
	}
	return winner, true, nil
}

// resolveLink finds the client's active link to the property or creates it
// with the attach defaults.
func (uc *AttachUsecase) resolveLink(ctx context.Context, clientID, propertyID string) (*domain.ClientPropertyLink, bool, error) {
	existing, err := uc.linkRepo.FindActiveByPair(ctx, clientID, propertyID)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	link, err := domain.NewClientPropertyLink(clientID, propertyID, domain.RelationshipFavorite, domain.InterestHot, true)
	if err != nil {
		return nil, false, err
	}
	err = uc.linkRepo.Create(ctx, link)
	if err == nil {
		return link, false, nil
	}
	if !errors.Is(err, domain.ErrAlreadyExists) {
		return nil, false, err
	}

	uc.logger.Info("Link insert lost a race on the active pair, reusing existing row",
		zap.String("client_id", clientID),
		zap.String("property_id", propertyID))
	winner, err := uc.linkRepo.FindActiveByPair(ctx, clientID, propertyID)
	if err != nil {
		return nil, false, err
	}
	return winner, true, nil
}
