package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/elach8/hayvn-match/internal/domain"
	"github.com/elach8/hayvn-match/internal/platform/logger"
	"github.com/elach8/hayvn-match/internal/port/cache"
)

func listingCacheKey(listingID string) string {
	return fmt.Sprintf("listing:%s", listingID)
}

const listingCacheTTL = 5 * time.Minute

// listingReader is a cache-aside front for the listing repository, shared by
// the usecases that resolve a recommendation's listing. The cache is
// optional; every cache failure degrades to a repository read.
type listingReader struct {
	repo      domain.ListingRepository
	cacheRepo cache.CacheRepository
	logger    *logger.Logger
}

func newListingReader(repo domain.ListingRepository, cacheRepo cache.CacheRepository, log *logger.Logger) *listingReader {
	return &listingReader{
		repo:      repo,
		cacheRepo: cacheRepo,
		logger:    log.Named("ListingReader"),
	}
}

func (r *listingReader) fetch(ctx context.Context, listingID string) (*domain.Listing, error) {
	if r.cacheRepo != nil {
		key := listingCacheKey(listingID)
		cachedBytes, err := r.cacheRepo.Get(ctx, key)
		if err == nil {
			var listing domain.Listing
			if unmarshalErr := json.Unmarshal(cachedBytes, &listing); unmarshalErr == nil {
				r.logger.Debug("Listing fetched from cache", zap.String("key", key))
				return &listing, nil
			}
			r.logger.Error("Failed to unmarshal listing from cache", zap.String("key", key))
			if delErr := r.cacheRepo.Delete(ctx, key); delErr != nil {
				r.logger.Warn("Failed to delete corrupted listing from cache", zap.String("key", key), zap.Error(delErr))
			}
		} else if !errors.Is(err, cache.ErrNotFound) {
			r.logger.Warn("Failed to get listing from cache (not a cache miss)", zap.Error(err), zap.String("key", key))
		}
	}

	listing, err := r.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if r.cacheRepo != nil {
		listingBytes, marshalErr := json.Marshal(listing)
		if marshalErr != nil {
			r.logger.Warn("Failed to marshal listing for caching", zap.Error(marshalErr), zap.String("listing_id", listingID))
		} else {
			key := listingCacheKey(listingID)
			if setErr := r.cacheRepo.Set(ctx, key, listingBytes, listingCacheTTL); setErr != nil {
				r.logger.Warn("Failed to set listing in cache", zap.Error(setErr), zap.String("key", key))
			}
		}
	}

	return listing, nil
}
