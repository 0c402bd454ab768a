package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/elach8/hayvn-match/internal/domain"
	"github.com/elach8/hayvn-match/internal/platform/logger"
)

// LinkUsecase manages client-property links outside the attach workflow:
// manual creation, feedback capture, and the archive lifecycle.
type LinkUsecase struct {
	linkRepo     domain.LinkRepository
	propertyRepo domain.PropertyRepository
	natsPub      EventPublisher
	logger       *logger.Logger
}

// NewLinkUsecase creates a new LinkUsecase. natsPub may be nil.
func NewLinkUsecase(
	linkRepo domain.LinkRepository,
	propertyRepo domain.PropertyRepository,
	natsPub EventPublisher,
	log *logger.Logger,
) *LinkUsecase {
	return &LinkUsecase{
		linkRepo:     linkRepo,
		propertyRepo: propertyRepo,
		natsPub:      natsPub,
		logger:       log.Named("LinkUsecase"),
	}
}

// CreateLinkInput holds the parameters for a manual link creation.
// Relationship and Interest fall back to the attach defaults when empty;
// Favorite defaults to true when nil.
type CreateLinkInput struct {
	ClientID     string
	PropertyID   string
	Relationship string
	Interest     string
	Favorite     *bool
}

// CreateLink links a client to an existing property. When the pair already
// has an active link it is returned as-is instead of erroring, so the
// operation is safe to retry.
func (uc *LinkUsecase) CreateLink(ctx context.Context, input CreateLinkInput) (*domain.ClientPropertyLink, error) {
	uc.logger.Info("Creating client-property link",
		zap.String("client_id", input.ClientID),
		zap.String("property_id", input.PropertyID))

	if input.ClientID == "" {
		return nil, fmt.Errorf("%w: client id cannot be empty", domain.ErrInvalidInput)
	}
	if input.PropertyID == "" {
		return nil, fmt.Errorf("%w: property id cannot be empty", domain.ErrInvalidInput)
	}

	if _, err := uc.propertyRepo.GetByID(ctx, input.PropertyID); err != nil {
		return nil, err
	}

	existing, err := uc.linkRepo.FindActiveByPair(ctx, input.ClientID, input.PropertyID)
	if err == nil {
		uc.logger.Info("Active link already exists for pair, reusing", zap.String("link_id", existing.ID))
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	favorite := true
	if input.Favorite != nil {
		favorite = *input.Favorite
	}
	link, err := domain.NewClientPropertyLink(
		input.ClientID,
		input.PropertyID,
		domain.LinkRelationship(input.Relationship),
		domain.InterestLevel(input.Interest),
		favorite,
	)
	if err != nil {
		return nil, err
	}

	if err := uc.linkRepo.Create(ctx, link); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			winner, findErr := uc.linkRepo.FindActiveByPair(ctx, input.ClientID, input.PropertyID)
			if findErr != nil {
				return nil, findErr
			}
			uc.logger.Info("Link insert lost a race on the active pair, reusing existing row", zap.String("link_id", winner.ID))
			return winner, nil
		}
		return nil, err
	}

	if uc.natsPub != nil {
		eventData := map[string]interface{}{
			"link_id":      link.ID,
			"client_id":    link.ClientID,
			"property_id":  link.PropertyID,
			"relationship": string(link.Relationship),
			"interest":     string(link.Interest),
			"favorite":     link.Favorite,
			"created_at":   link.CreatedAt.Format(time.RFC3339Nano),
		}
		if err := uc.natsPub.Publish(ctx, "client_property.linked", eventData); err != nil {
			uc.logger.Warn("Failed to publish client_property.linked event to NATS", zap.Error(err), zap.String("link_id", link.ID))
		}
	}

	uc.logger.Info("Client-property link created", zap.String("link_id", link.ID))
	return link, nil
}

// UpdateFeedbackInput carries the feedback fields to change. Nil fields are
// left untouched; at least one must be set.
type UpdateFeedbackInput struct {
	Feedback *string
	Rating   *int32
}

// UpdateFeedback records the client's reaction to a linked property.
// Archived links accept feedback too; showings get discussed after the fact.
func (uc *LinkUsecase) UpdateFeedback(ctx context.Context, linkID string, input UpdateFeedbackInput) (*domain.ClientPropertyLink, error) {
	uc.logger.Info("Updating link feedback", zap.String("link_id", linkID))

	link, err := uc.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if err := link.SetFeedback(input.Feedback, input.Rating); err != nil {
		return nil, err
	}
	if err := uc.linkRepo.Update(ctx, link); err != nil {
		return nil, err
	}

	if uc.natsPub != nil {
		eventData := map[string]interface{}{
			"link_id":      link.ID,
			"client_id":    link.ClientID,
			"property_id":  link.PropertyID,
			"has_feedback": input.Feedback != nil,
			"has_rating":   input.Rating != nil,
			"updated_at":   link.UpdatedAt.Format(time.RFC3339Nano),
		}
		if err := uc.natsPub.Publish(ctx, "client_property.feedback", eventData); err != nil {
			uc.logger.Warn("Failed to publish client_property.feedback event to NATS", zap.Error(err), zap.String("link_id", link.ID))
		}
	}

	uc.logger.Info("Link feedback updated", zap.String("link_id", link.ID))
	return link, nil
}

// Archive moves a link out of the client's active views. Feedback and
// rating stay on the row. Archiving an archived link is a no-op.
func (uc *LinkUsecase) Archive(ctx context.Context, linkID string) (*domain.ClientPropertyLink, error) {
	uc.logger.Info("Archiving link", zap.String("link_id", linkID))

	link, err := uc.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if !link.Archive() {
		uc.logger.Info("Link already archived", zap.String("link_id", linkID))
		return link, nil
	}
	if err := uc.linkRepo.Update(ctx, link); err != nil {
		return nil, err
	}

	if uc.natsPub != nil {
		eventData := map[string]interface{}{
			"link_id":     link.ID,
			"client_id":   link.ClientID,
			"property_id": link.PropertyID,
			"archived_at": link.ArchivedAt.Format(time.RFC3339Nano),
		}
		if err := uc.natsPub.Publish(ctx, "client_property.archived", eventData); err != nil {
			uc.logger.Warn("Failed to publish client_property.archived event to NATS", zap.Error(err), zap.String("link_id", link.ID))
		}
	}

	uc.logger.Info("Link archived", zap.String("link_id", link.ID))
	return link, nil
}

// Restore brings an archived link back into active views with its feedback
// intact. Restoring an active link is a no-op.
func (uc *LinkUsecase) Restore(ctx context.Context, linkID string) (*domain.ClientPropertyLink, error) {
	uc.logger.Info("Restoring link", zap.String("link_id", linkID))

	link, err := uc.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if !link.Restore() {
		uc.logger.Info("Link already active", zap.String("link_id", linkID))
		return link, nil
	}
	if err := uc.linkRepo.Update(ctx, link); err != nil {
		return nil, err
	}

	if uc.natsPub != nil {
		eventData := map[string]interface{}{
			"link_id":     link.ID,
			"client_id":   link.ClientID,
			"property_id": link.PropertyID,
			"restored_at": link.UpdatedAt.Format(time.RFC3339Nano),
		}
		if err := uc.natsPub.Publish(ctx, "client_property.restored", eventData); err != nil {
			uc.logger.Warn("Failed to publish client_property.restored event to NATS", zap.Error(err), zap.String("link_id", link.ID))
		}
	}

	uc.logger.Info("Link restored", zap.String("link_id", link.ID))
	return link, nil
}

// ListClientLinks returns a client's links, newest first. Archived links
// are excluded unless includeArchived is set.
func (uc *LinkUsecase) ListClientLinks(ctx context.Context, clientID string, includeArchived bool) ([]*domain.ClientPropertyLink, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client id cannot be empty", domain.ErrInvalidInput)
	}
	return uc.linkRepo.FindByClient(ctx, clientID, includeArchived)
}
