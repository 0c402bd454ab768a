package domain

import (
	"fmt"
	"time"
)

// --- Recommendation Status Enum ---

// RecommendationStatus is the lifecycle state of a scored (client, listing)
// pairing.
type RecommendationStatus string

const (
	RecommendationStatusNew       RecommendationStatus = "new"
	RecommendationStatusAttached  RecommendationStatus = "attached"
	RecommendationStatusDismissed RecommendationStatus = "dismissed"
)

// IsValid checks if the RecommendationStatus is one of the defined constants.
func (s RecommendationStatus) IsValid() bool {
	switch s {
	case RecommendationStatusNew, RecommendationStatusAttached, RecommendationStatusDismissed:
		return true
	}
	return false
}

// Resolved reports whether an operator has already acted on the row.
// Resolved rows are never overwritten by regeneration.
func (s RecommendationStatus) Resolved() bool {
	return s == RecommendationStatusAttached || s == RecommendationStatusDismissed
}

// --- Recommendation Entity ---

// Recommendation is one scored candidate match for a client. Identity is the
// (ClientID, ListingID) pair; the store enforces its uniqueness.
type Recommendation struct {
	ID         string
	ClientID   string
	ListingID  string
	Score      int32
	Reasons    []string
	Status     RecommendationStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastSeenAt time.Time // last time a matcher run produced this candidate
	ResolvedAt *time.Time
}

// NewRecommendation creates a fresh recommendation in status "new".
func NewRecommendation(clientID, listingID string, score int32, reasons []string) (*Recommendation, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client id cannot be empty", ErrInvalidInput)
	}
	if listingID == "" {
		return nil, fmt.Errorf("%w: listing id cannot be empty", ErrInvalidInput)
	}
	now := time.Now().UTC()
	return &Recommendation{
		ClientID:   clientID,
		ListingID:  listingID,
		Score:      score,
		Reasons:    reasons,
		Status:     RecommendationStatusNew,
		CreatedAt:  now,
		UpdatedAt:  now,
		LastSeenAt: now,
	}, nil
}

// UpdateStatus applies one lifecycle transition. "attached" is permanently
// terminal; "dismissed" can only be reopened through the explicit reinstate
// operation, which is the sole caller of the dismissed -> new edge.
func (r *Recommendation) UpdateStatus(newStatus RecommendationStatus) error {
	if r.Status == newStatus {
		return nil
	}
	validTransitions := map[RecommendationStatus][]RecommendationStatus{
		RecommendationStatusNew:       {RecommendationStatusAttached, RecommendationStatusDismissed},
		RecommendationStatusAttached:  {},
		RecommendationStatusDismissed: {RecommendationStatusNew},
	}
	allowed, ok := validTransitions[r.Status]
	if !ok {
		return fmt.Errorf("%w: unknown status %s", ErrInvalidTransition, r.Status)
	}
	canTransition := false
	for _, s := range allowed {
		if s == newStatus {
			canTransition = true
			break
		}
	}
	if !canTransition {
		return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, r.Status, newStatus)
	}
	now := time.Now().UTC()
	r.Status = newStatus
	r.UpdatedAt = now
	if newStatus.Resolved() {
		r.ResolvedAt = &now
	} else {
		r.ResolvedAt = nil
	}
	return nil
}

// Dismiss marks the recommendation rejected by the operator.
func (r *Recommendation) Dismiss() error {
	if r.Status != RecommendationStatusNew {
		return fmt.Errorf("%w: only new recommendations can be dismissed, got %s", ErrInvalidTransition, r.Status)
	}
	return r.UpdateStatus(RecommendationStatusDismissed)
}

// MarkAttached records that the attach workflow completed for this row.
func (r *Recommendation) MarkAttached() error {
	if r.Status != RecommendationStatusNew {
		return fmt.Errorf("%w: only new recommendations can be attached, got %s", ErrInvalidTransition, r.Status)
	}
	return r.UpdateStatus(RecommendationStatusAttached)
}

// Reinstate reopens a dismissed recommendation. Attached rows stay attached.
func (r *Recommendation) Reinstate() error {
	if r.Status != RecommendationStatusDismissed {
		return fmt.Errorf("%w: only dismissed recommendations can be reinstated, got %s", ErrInvalidTransition, r.Status)
	}
	return r.UpdateStatus(RecommendationStatusNew)
}

// --- QueueItem ---

// QueueItem pairs a stored recommendation with its listing for review
// surfaces. Listing is nil when the feed store no longer has the row.
type QueueItem struct {
	Recommendation *Recommendation
	Listing        *Listing
}
