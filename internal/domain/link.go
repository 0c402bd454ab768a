package domain

import (
	"fmt"
	"time"
)

// --- Link Enums ---

// LinkRelationship tags how a client relates to a property.
type LinkRelationship string

const (
	RelationshipFavorite  LinkRelationship = "favorite"
	RelationshipToured    LinkRelationship = "toured"
	RelationshipOffered   LinkRelationship = "offered"
	RelationshipPurchased LinkRelationship = "purchased"
)

// IsValid checks if the LinkRelationship is one of the defined constants.
func (r LinkRelationship) IsValid() bool {
	switch r {
	case RelationshipFavorite, RelationshipToured, RelationshipOffered, RelationshipPurchased:
		return true
	}
	return false
}

// InterestLevel grades how keen the client is on the property.
type InterestLevel string

const (
	InterestHot  InterestLevel = "hot"
	InterestWarm InterestLevel = "warm"
	InterestCold InterestLevel = "cold"
)

// IsValid checks if the InterestLevel is one of the defined constants.
func (i InterestLevel) IsValid() bool {
	switch i {
	case InterestHot, InterestWarm, InterestCold:
		return true
	}
	return false
}

// LinkStatus is the archival state of a client-property link.
type LinkStatus string

const (
	LinkStatusActive   LinkStatus = "active"
	LinkStatusArchived LinkStatus = "archived"
)

// IsValid checks if the LinkStatus is one of the defined constants.
func (s LinkStatus) IsValid() bool {
	switch s {
	case LinkStatusActive, LinkStatusArchived:
		return true
	}
	return false
}

// --- ClientPropertyLink Entity ---

// ClientPropertyLink is the relationship between a client and a canonical
// property. It is the only place user-entered feedback and rating live, so
// archiving must preserve both.
type ClientPropertyLink struct {
	ID           string
	ClientID     string
	PropertyID   string
	Relationship LinkRelationship
	Interest     InterestLevel
	Favorite     bool
	Feedback     string
	Rating       *int32 // 1-5, nil when the client has not rated
	Status       LinkStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ArchivedAt   *time.Time
}

// NewClientPropertyLink creates an active link. Empty relationship and
// interest fall back to the attach-workflow defaults.
func NewClientPropertyLink(clientID, propertyID string, relationship LinkRelationship, interest InterestLevel, favorite bool) (*ClientPropertyLink, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client id cannot be empty", ErrInvalidInput)
	}
	if propertyID == "" {
		return nil, fmt.Errorf("%w: property id cannot be empty", ErrInvalidInput)
	}
	if relationship == "" {
		relationship = RelationshipFavorite
	}
	if !relationship.IsValid() {
		return nil, fmt.Errorf("%w: unknown relationship %q", ErrInvalidInput, relationship)
	}
	if interest == "" {
		interest = InterestHot
	}
	if !interest.IsValid() {
		return nil, fmt.Errorf("%w: unknown interest level %q", ErrInvalidInput, interest)
	}
	now := time.Now().UTC()
	return &ClientPropertyLink{
		ClientID:     clientID,
		PropertyID:   propertyID,
		Relationship: relationship,
		Interest:     interest,
		Favorite:     favorite,
		Status:       LinkStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Archive moves the link out of active views. Feedback and rating are kept.
// Returns false when the link was already archived.
func (l *ClientPropertyLink) Archive() bool {
	if l.Status == LinkStatusArchived {
		return false
	}
	now := time.Now().UTC()
	l.Status = LinkStatusArchived
	l.ArchivedAt = &now
	l.UpdatedAt = now
	return true
}

// Restore reactivates an archived link. Returns false when already active.
func (l *ClientPropertyLink) Restore() bool {
	if l.Status == LinkStatusActive {
		return false
	}
	l.Status = LinkStatusActive
	l.ArchivedAt = nil
	l.UpdatedAt = time.Now().UTC()
	return true
}

// SetFeedback applies the client's feedback text and rating. Nil arguments
// leave the corresponding field unchanged.
func (l *ClientPropertyLink) SetFeedback(feedback *string, rating *int32) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if feedback == nil && rating == nil {
		return fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}
	if feedback != nil {
		l.Feedback = *feedback
	}
	if rating != nil {
		l.Rating = rating
	}
	l.UpdatedAt = time.Now().UTC()
	return nil
}
