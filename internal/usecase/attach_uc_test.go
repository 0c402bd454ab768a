package usecase

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/elach8/hayvn-match/internal/domain"
)

type attachFixture struct {
	recRepo      *MockRecommendationRepository
	propertyRepo *MockPropertyRepository
	linkRepo     *MockLinkRepository
	listingRepo  *MockListingRepository
	natsPub      *MockEventPublisher
	uc           *AttachUsecase
}

func newAttachFixture() *attachFixture {
	f := &attachFixture{
		recRepo:      new(MockRecommendationRepository),
		propertyRepo: new(MockPropertyRepository),
		linkRepo:     new(MockLinkRepository),
		listingRepo:  new(MockListingRepository),
		natsPub:      new(MockEventPublisher),
	}
	f.uc = NewAttachUsecase(
		f.recRepo,
		f.propertyRepo,
		f.linkRepo,
		f.listingRepo,
		nil,
		f.natsPub,
		nil,
		newTestLogger(),
	)
	return f
}

func newRec(status domain.RecommendationStatus) *domain.Recommendation {
	return &domain.Recommendation{
		ID:        "rec-1",
		ClientID:  "client-1",
		ListingID: "listing-1",
		Status:    status,
	}
}

func TestAttachUsecase_Attach(t *testing.T) {
	ctx := context.Background()
	listing := testListing("listing-1", 850000, "Irvine")

	t.Run("creates property and link for a first attach", func(t *testing.T) {
		f := newAttachFixture()
		f.recRepo.On("GetByID", ctx, "rec-1").Return(newRec(domain.RecommendationStatusNew), nil).Once()
		f.listingRepo.On("GetByID", ctx, "listing-1").Return(listing, nil).Once()
		f.propertyRepo.On("FindByExternalID", ctx, "MLS-listing-1").
			Return(nil, fmt.Errorf("%w: property", domain.ErrNotFound)).Once()
		f.propertyRepo.On("Create", ctx, mock.AnythingOfType("*domain.Property")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.Property).ID = "prop-1"
			}).Return(nil).Once()
		f.linkRepo.On("FindActiveByPair", ctx, "client-1", "prop-1").
			Return(nil, fmt.Errorf("%w: link", domain.ErrNotFound)).Once()
		f.linkRepo.On("Create", ctx, mock.AnythingOfType("*domain.ClientPropertyLink")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.ClientPropertyLink).ID = "link-1"
			}).Return(nil).Once()
		f.recRepo.On("TransitionStatus", ctx, "rec-1", domain.RecommendationStatusNew, domain.RecommendationStatusAttached).
			Return(nil).Once()
		f.natsPub.On("Publish", ctx, "recommendation.attached", mock.Anything).Return(nil).Once()

		result, err := f.uc.Attach(ctx, "rec-1")

		require.NoError(t, err)
		assert.Equal(t, "prop-1", result.PropertyID)
		assert.Equal(t, "link-1", result.LinkID)
		assert.False(t, result.PropertyReused)
		assert.False(t, result.LinkReused)
		f.recRepo.AssertExpectations(t)
		f.propertyRepo.AssertExpectations(t)
		f.linkRepo.AssertExpectations(t)
		f.natsPub.AssertExpectations(t)
	})

	t.Run("link defaults are favorite and hot", func(t *testing.T) {
		f := newAttachFixture()
		f.recRepo.On("GetByID", ctx, "rec-1").Return(newRec(domain.RecommendationStatusNew), nil).Once()
		f.listingRepo.On("GetByID", ctx, "listing-1").Return(listing, nil).Once()
		f.propertyRepo.On("FindByExternalID", ctx, "MLS-listing-1").
			Return(&domain.Property{ID: "prop-1", ExternalID: "MLS-listing-1"}, nil).Once()
		f.linkRepo.On("FindActiveByPair", ctx, "client-1", "prop-1").
			Return(nil, fmt.Errorf("%w: link", domain.ErrNotFound)).Once()
		f.linkRepo.On("Create", ctx, mock.MatchedBy(func(l *domain.ClientPropertyLink) bool {
			return l.Relationship == domain.RelationshipFavorite &&
				l.Interest == domain.InterestHot &&
				l.Favorite &&
				l.Status == domain.LinkStatusActive
		})).Return(nil).Once()
		f.recRepo.On("TransitionStatus", ctx, "rec-1", domain.RecommendationStatusNew, domain.RecommendationStatusAttached).
			Return(nil).Once()
		f.natsPub.On("Publish", ctx, "recommendation.attached", mock.Anything).Return(nil).Once()

		_, err := f.uc.Attach(ctx, "rec-1")

		require.NoError(t, err)
		f.linkRepo.AssertExpectations(t)
	})

	t.Run("reuses existing property and link", func(t *testing.T) {
		f := newAttachFixture()
		f.recRepo.On("GetByID", ctx, "rec-1").Return(newRec(domain.RecommendationStatusNew), nil).Once()
		f.listingRepo.On("GetByID", ctx, "listing-1").Return(listing, nil).Once()
		f.propertyRepo.On("FindByExternalID", ctx, "MLS-listing-1").
			Return(&domain.Property{ID: "prop-1", ExternalID: "MLS-listing-1"}, nil).Once()
		f.linkRepo.On("FindActiveByPair", ctx, "client-1", "prop-1").
			Return(&domain.ClientPropertyLink{ID: "link-1", ClientID: "client-1", PropertyID: "prop-1", Status: domain.LinkStatusActive}, nil).Once()
		f.recRepo.On("TransitionStatus", ctx, "rec-1", domain.RecommendationStatusNew, domain.RecommendationStatusAttached).
			Return(nil).Once()
		f.natsPub.On("Publish", ctx, "recommendation.attached", mock.Anything).Return(nil).Once()

		result, err := f.uc.Attach(ctx, "rec-1")

		require.NoError(t, err)
		assert.Equal(t, "prop-1", result.PropertyID)
		assert.Equal(t, "link-1", result.LinkID)
		assert.True(t, result.PropertyReused)
		assert.True(t, result.LinkReused)
		f.propertyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.linkRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("lost property insert race reuses the winner", func(t *testing.T) {
		f := newAttachFixture()
		f.recRepo.On("GetByID", ctx, "rec-1").Return(newRec(domain.RecommendationStatusNew), nil).Once()
		f.listingRepo.On("GetByID", ctx, "listing-1").Return(listing, nil).Once()
		f.propertyRepo.On("FindByExternalID", ctx, "MLS-listing-1").
			Return(nil, fmt.Errorf("%w: property", domain.ErrNotFound)).Once()
		f.propertyRepo.On("Create", ctx, mock.Anything).
			Return(fmt.Errorf("%w: property with external id MLS-listing-1", domain.ErrAlreadyExists)).Once()
		f.propertyRepo.On("FindByExternalID", ctx, "MLS-listing-1").
			Return(&domain.Property{ID: "prop-winner", ExternalID: "MLS-listing-1"}, nil).Once()
		f.linkRepo.On("FindActiveByPair", ctx, "client-1", "prop-winner").
			Return(nil, fmt.Errorf("%w: link", domain.ErrNotFound)).Once()
		f.linkRepo.On("Create", ctx, mock.Anything).
			Run(func(args mock.Arguments) {
				args.Get(1).(*domain.ClientPropertyLink).ID = "link-1"
			}).Return(nil).Once()
		f.recRepo.On("TransitionStatus", ctx, "rec-1", domain.RecommendationStatusNew, domain.RecommendationStatusAttached).
			Return(nil).Once()
		f.natsPub.On("Publish", ctx, "recommendation.attached", mock.Anything).Return(nil).Once()

		result, err := f.uc.Attach(ctx, "rec-1")

		require.NoError(t, err)
		assert.Equal(t, "prop-winner", result.PropertyID)
		assert.True(t, result.PropertyReused)
		f.propertyRepo.AssertExpectations(t)
	})

	t.Run("lost link insert race reuses the winner", func(t *testing.T) {
		f := newAttachFixture()
		f.recRepo.On("GetByID", ctx, "rec-1").Return(newRec(domain.RecommendationStatusNew), nil).Once()
		f.listingRepo.On("GetByID", ctx, "listing-1").Return(listing, nil).Once()
		f.propertyRepo.On("FindByExternalID", ctx, "MLS-listing-1").
			Return(&domain.Property{ID: "prop-1", ExternalID: "MLS-listing-1"}, nil).Once()
		f.linkRepo.On("FindActiveByPair", ctx, "client-1", "prop-1").
			Return(nil, fmt.Errorf("%w: link", domain.ErrNotFound)).Once()
		f.linkRepo.On("Create", ctx, mock.Anything).
			Return(fmt.Errorf("%w: active link for pair", domain.ErrAlreadyExists)).Once()
		f.linkRepo.On("FindActiveByPair", ctx, "client-1", "prop-1").
			Return(&domain.ClientPropertyLink{ID: "link-winner", ClientID: "client-1", PropertyID: "prop-1", Status: domain.LinkStatusActive}, nil).Once()
		f.recRepo.On("TransitionStatus", ctx, "rec-1", domain.RecommendationStatusNew, domain.RecommendationStatusAttached).
			Return(nil).Once()
		f.natsPub.On("Publish", ctx, "recommendation.attached", mock.Anything).Return(nil).Once()

		result, err := f.uc.Attach(ctx, "rec-1")

		require.NoError(t, err)
		assert.Equal(t, "link-winner", result.LinkID)
		assert.True(t, result.LinkReused)
		f.linkRepo.AssertExpectations(t)
	})

	t.Run("second attach fails with invalid transition", func(t *testing.T) {
		f := newAttachFixture()
		f.recRepo.On("GetByID", ctx, "rec-1").Return(newRec(domain.RecommendationStatusAttached), nil).Once()

		_, err := f.uc.Attach(ctx, "rec-1")

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		f.listingRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		f.propertyRepo.AssertNotCalled(t, "FindByExternalID", mock.Anything, mock.Anything)
	})

	t.Run("dismissed recommendation cannot be attached", func(t *testing.T) {
		f := newAttachFixture()
		f.recRepo.On("GetByID", ctx, "rec-1").Return(newRec(domain.RecommendationStatusDismissed), nil).Once()

		_, err := f.uc.Attach(ctx, "rec-1")

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("vanished listing fails with not found", func(t *testing.T) {
		f := newAttachFixture()
		f.recRepo.On("GetByID", ctx, "rec-1").Return(newRec(domain.RecommendationStatusNew), nil).Once()
		f.listingRepo.On("GetByID", ctx, "listing-1").
			Return(nil, fmt.Errorf("%w: listing listing-1", domain.ErrNotFound)).Once()

		_, err := f.uc.Attach(ctx, "rec-1")

		assert.ErrorIs(t, err, domain.ErrNotFound)
		f.propertyRepo.AssertNotCalled(t, "FindByExternalID", mock.Anything, mock.Anything)
	})

	t.Run("lost status race surfaces after idempotent writes", func(t *testing.T) {
		f := newAttachFixture()
		f.recRepo.On("GetByID", ctx, "rec-1").Return(newRec(domain.RecommendationStatusNew), nil).Once()
		f.listingRepo.On("GetByID", ctx, "listing-1").Return(listing, nil).Once()
		f.propertyRepo.On("FindByExternalID", ctx, "MLS-listing-1").
			Return(&domain.Property{ID: "prop-1", ExternalID: "MLS-listing-1"}, nil).Once()
		f.linkRepo.On("FindActiveByPair", ctx, "client-1", "prop-1").
			Return(&domain.ClientPropertyLink{ID: "link-1", Status: domain.LinkStatusActive}, nil).Once()
		f.recRepo.On("TransitionStatus", ctx, "rec-1", domain.RecommendationStatusNew, domain.RecommendationStatusAttached).
			Return(fmt.Errorf("%w: recommendation rec-1 is dismissed, expected new", domain.ErrInvalidTransition)).Once()

		_, err := f.uc.Attach(ctx, "rec-1")

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		f.natsPub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}
