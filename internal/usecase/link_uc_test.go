package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/elach8/hayvn-match/internal/domain"
)

type linkFixture struct {
	linkRepo     *MockLinkRepository
	propertyRepo *MockPropertyRepository
	natsPub      *MockEventPublisher
	uc           *LinkUsecase
}

func newLinkFixture() *linkFixture {
	f := &linkFixture{
		linkRepo:     new(MockLinkRepository),
		propertyRepo: new(MockPropertyRepository),
		natsPub:      new(MockEventPublisher),
	}
	f.uc = NewLinkUsecase(f.linkRepo, f.propertyRepo, f.natsPub, newTestLogger())
	return f
}

func activeLink() *domain.ClientPropertyLink {
	now := time.Now().UTC()
	return &domain.ClientPropertyLink{
		ID:           "link-1",
		ClientID:     "client-1",
		PropertyID:   "prop-1",
		Relationship: domain.RelationshipFavorite,
		Interest:     domain.InterestHot,
		Favorite:     true,
		Status:       domain.LinkStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestLinkUsecase_CreateLink(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a fresh link", func(t *testing.T) {
		f := newLinkFixture()
		f.propertyRepo.On("GetByID", ctx, "prop-1").Return(&domain.Property{ID: "prop-1"}, nil).Once()
		f.linkRepo.On("FindActiveByPair", ctx, "client-1", "prop-1").
			Return(nil, fmt.Errorf("%w: link", domain.ErrNotFound)).Once()
		f.linkRepo.On("Create", ctx, mock.MatchedBy(func(l *domain.ClientPropertyLink) bool {
			return l.ClientID == "client-1" &&
				l.PropertyID == "prop-1" &&
				l.Relationship == domain.RelationshipToured &&
				l.Interest == domain.InterestWarm &&
				!l.Favorite
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.ClientPropertyLink).ID = "link-1"
		}).Return(nil).Once()
		f.natsPub.On("Publish", ctx, "client_property.linked", mock.Anything).Return(nil).Once()

		link, err := f.uc.CreateLink(ctx, CreateLinkInput{
			ClientID:     "client-1",
			PropertyID:   "prop-1",
			Relationship: "toured",
			Interest:     "warm",
			Favorite:     boolPtr(false),
		})

		require.NoError(t, err)
		assert.Equal(t, "link-1", link.ID)
		f.linkRepo.AssertExpectations(t)
		f.natsPub.AssertExpectations(t)
	})

	t.Run("defaults apply when fields are omitted", func(t *testing.T) {
		f := newLinkFixture()
		f.propertyRepo.On("GetByID", ctx, "prop-1").Return(&domain.Property{ID: "prop-1"}, nil).Once()
		f.linkRepo.On("FindActiveByPair", ctx, "client-1", "prop-1").
			Return(nil, fmt.Errorf("%w: link", domain.ErrNotFound)).Once()
		f.linkRepo.On("Create", ctx, mock.MatchedBy(func(l *domain.ClientPropertyLink) bool {
			return l.Relationship == domain.RelationshipFavorite &&
				l.Interest == domain.InterestHot &&
				l.Favorite
		})).Return(nil).Once()
		f.natsPub.On("Publish", ctx, "client_property.linked", mock.Anything).Return(nil).Once()

		_, err := f.uc.CreateLink(ctx, CreateLinkInput{ClientID: "client-1", PropertyID: "prop-1"})

		require.NoError(t, err)
		f.linkRepo.AssertExpectations(t)
	})

	t.Run("missing property fails with not found", func(t *testing.T) {
		f := newLinkFixture()
		f.propertyRepo.On("GetByID", ctx, "prop-9").
			Return(nil, fmt.Errorf("%w: property prop-9", domain.ErrNotFound)).Once()

		_, err := f.uc.CreateLink(ctx, CreateLinkInput{ClientID: "client-1", PropertyID: "prop-9"})

		assert.ErrorIs(t, err, domain.ErrNotFound)
		f.linkRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("existing active pair is reused", func(t *testing.T) {
		f := newLinkFixture()
		existing := activeLink()
		f.propertyRepo.On("GetByID", ctx, "prop-1").Return(&domain.Property{ID: "prop-1"}, nil).Once()
		f.linkRepo.On("FindActiveByPair", ctx, "client-1", "prop-1").Return(existing, nil).Once()

		link, err := f.uc.CreateLink(ctx, CreateLinkInput{ClientID: "client-1", PropertyID: "prop-1"})

		require.NoError(t, err)
		assert.Equal(t, existing.ID, link.ID)
		f.linkRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.natsPub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost insert race re-reads the winner", func(t *testing.T) {
		f := newLinkFixture()
		winner := activeLink()
		f.propertyRepo.On("GetByID", ctx, "prop-1").Return(&domain.Property{ID: "prop-1"}, nil).Once()
		f.linkRepo.On("FindActiveByPair", ctx, "client-1", "prop-1").
			Return(nil, fmt.Errorf("%w: link", domain.ErrNotFound)).Once()
		f.linkRepo.On("Create", ctx, mock.Anything).
			Return(fmt.Errorf("%w: active link for pair", domain.ErrAlreadyExists)).Once()
		f.linkRepo.On("FindActiveByPair", ctx, "client-1", "prop-1").Return(winner, nil).Once()

		link, err := f.uc.CreateLink(ctx, CreateLinkInput{ClientID: "client-1", PropertyID: "prop-1"})

		require.NoError(t, err)
		assert.Equal(t, winner.ID, link.ID)
		f.linkRepo.AssertExpectations(t)
	})

	t.Run("unknown relationship rejected", func(t *testing.T) {
		f := newLinkFixture()
		f.propertyRepo.On("GetByID", ctx, "prop-1").Return(&domain.Property{ID: "prop-1"}, nil).Once()
		f.linkRepo.On("FindActiveByPair", ctx, "client-1", "prop-1").
			Return(nil, fmt.Errorf("%w: link", domain.ErrNotFound)).Once()

		_, err := f.uc.CreateLink(ctx, CreateLinkInput{
			ClientID:     "client-1",
			PropertyID:   "prop-1",
			Relationship: "stalking",
		})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		f.linkRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestLinkUsecase_UpdateFeedback(t *testing.T) {
	ctx := context.Background()

	t.Run("records feedback and rating", func(t *testing.T) {
		f := newLinkFixture()
		link := activeLink()
		f.linkRepo.On("GetByID", ctx, "link-1").Return(link, nil).Once()
		f.linkRepo.On("Update", ctx, mock.MatchedBy(func(l *domain.ClientPropertyLink) bool {
			return l.Feedback == "loved the backyard" && l.Rating != nil && *l.Rating == 5
		})).Return(nil).Once()
		f.natsPub.On("Publish", ctx, "client_property.feedback", mock.Anything).Return(nil).Once()

		updated, err := f.uc.UpdateFeedback(ctx, "link-1", UpdateFeedbackInput{
			Feedback: strPtr("loved the backyard"),
			Rating:   int32Ptr(5),
		})

		require.NoError(t, err)
		assert.Equal(t, "loved the backyard", updated.Feedback)
		f.linkRepo.AssertExpectations(t)
	})

	t.Run("rating out of range", func(t *testing.T) {
		f := newLinkFixture()
		f.linkRepo.On("GetByID", ctx, "link-1").Return(activeLink(), nil).Once()

		_, err := f.uc.UpdateFeedback(ctx, "link-1", UpdateFeedbackInput{Rating: int32Ptr(6)})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		f.linkRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("nothing to update", func(t *testing.T) {
		f := newLinkFixture()
		f.linkRepo.On("GetByID", ctx, "link-1").Return(activeLink(), nil).Once()

		_, err := f.uc.UpdateFeedback(ctx, "link-1", UpdateFeedbackInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestLinkUsecase_ArchiveRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("archive keeps feedback and rating", func(t *testing.T) {
		f := newLinkFixture()
		link := activeLink()
		link.Feedback = "too dark inside"
		link.Rating = int32Ptr(2)
		f.linkRepo.On("GetByID", ctx, "link-1").Return(link, nil).Once()
		f.linkRepo.On("Update", ctx, mock.MatchedBy(func(l *domain.ClientPropertyLink) bool {
			return l.Status == domain.LinkStatusArchived &&
				l.ArchivedAt != nil &&
				l.Feedback == "too dark inside" &&
				l.Rating != nil && *l.Rating == 2
		})).Return(nil).Once()
		f.natsPub.On("Publish", ctx, "client_property.archived", mock.Anything).Return(nil).Once()

		archived, err := f.uc.Archive(ctx, "link-1")

		require.NoError(t, err)
		assert.Equal(t, domain.LinkStatusArchived, archived.Status)
		f.linkRepo.AssertExpectations(t)
	})

	t.Run("archiving twice is a no-op", func(t *testing.T) {
		f := newLinkFixture()
		link := activeLink()
		link.Archive()
		f.linkRepo.On("GetByID", ctx, "link-1").Return(link, nil).Once()

		archived, err := f.uc.Archive(ctx, "link-1")

		require.NoError(t, err)
		assert.Equal(t, domain.LinkStatusArchived, archived.Status)
		f.linkRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		f.natsPub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("restore reactivates with history intact", func(t *testing.T) {
		f := newLinkFixture()
		link := activeLink()
		link.Feedback = "worth a second look"
		link.Archive()
		f.linkRepo.On("GetByID", ctx, "link-1").Return(link, nil).Once()
		f.linkRepo.On("Update", ctx, mock.MatchedBy(func(l *domain.ClientPropertyLink) bool {
			return l.Status == domain.LinkStatusActive &&
				l.ArchivedAt == nil &&
				l.Feedback == "worth a second look"
		})).Return(nil).Once()
		f.natsPub.On("Publish", ctx, "client_property.restored", mock.Anything).Return(nil).Once()

		restored, err := f.uc.Restore(ctx, "link-1")

		require.NoError(t, err)
		assert.Equal(t, domain.LinkStatusActive, restored.Status)
		assert.Nil(t, restored.ArchivedAt)
	})

	t.Run("restoring an active link is a no-op", func(t *testing.T) {
		f := newLinkFixture()
		f.linkRepo.On("GetByID", ctx, "link-1").Return(activeLink(), nil).Once()

		restored, err := f.uc.Restore(ctx, "link-1")

		require.NoError(t, err)
		assert.Equal(t, domain.LinkStatusActive, restored.Status)
		f.linkRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestLinkUsecase_ListClientLinks(t *testing.T) {
	ctx := context.Background()

	t.Run("delegates with the archived switch", func(t *testing.T) {
		f := newLinkFixture()
		links := []*domain.ClientPropertyLink{activeLink()}
		f.linkRepo.On("FindByClient", ctx, "client-1", true).Return(links, nil).Once()

		got, err := f.uc.ListClientLinks(ctx, "client-1", true)

		require.NoError(t, err)
		assert.Len(t, got, 1)
		f.linkRepo.AssertExpectations(t)
	})

	t.Run("empty client id", func(t *testing.T) {
		f := newLinkFixture()
		_, err := f.uc.ListClientLinks(ctx, "", false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
