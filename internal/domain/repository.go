package domain

import "context"

// UpsertOutcome reports what the recommendation store did with one candidate.
type UpsertOutcome string

const (
	// UpsertInserted means a fresh row was created in status "new".
	UpsertInserted UpsertOutcome = "inserted"
	// UpsertRefreshed means an existing "new" row had its score and reasons updated.
	UpsertRefreshed UpsertOutcome = "refreshed"
	// UpsertSkipped means the row is already attached or dismissed and was left untouched.
	UpsertSkipped UpsertOutcome = "skipped"
)

// RecommendationFilter holds parameters for querying a client's recommendations.
type RecommendationFilter struct {
	Status *RecommendationStatus // nil = all statuses
	Limit  int64                 // 0 = no limit
}

// CriteriaRepository reads a client's stored buying criteria. The client
// record owns this data; there is deliberately no write method.
type CriteriaRepository interface {
	GetByClientID(ctx context.Context, clientID string) (*Criteria, error)
}

// ListingRepository reads the externally refreshed listing pool.
type ListingRepository interface {
	GetByID(ctx context.Context, id string) (*Listing, error)

	// FindByBrokerage returns the current pool for one brokerage. Closed
	// listings are excluded unless includeClosed is set.
	FindByBrokerage(ctx context.Context, brokerageID string, includeClosed bool) ([]*Listing, error)
}

// RecommendationRepository persists scored candidates and owns the
// new/attached/dismissed state machine's storage side.
type RecommendationRepository interface {
	// Upsert writes one candidate. Inserts when the (client, listing) pair is
	// unseen, refreshes score/reasons/last-seen when the stored row is still
	// "new", and skips without touching anything when the row is resolved.
	// On insert or refresh the returned recommendation is the stored row.
	Upsert(ctx context.Context, rec *Recommendation) (*Recommendation, UpsertOutcome, error)

	GetByID(ctx context.Context, id string) (*Recommendation, error)

	FindByClient(ctx context.Context, clientID string, filter RecommendationFilter) ([]*Recommendation, error)

	// TransitionStatus flips a row from one status to another as a single
	// conditional write. Returns a wrapped ErrInvalidTransition when the row
	// is no longer in the expected from status, ErrNotFound when it is gone.
	TransitionStatus(ctx context.Context, id string, from, to RecommendationStatus) error
}

// PropertyRepository persists canonical properties. The unique index on the
// external id is what makes attach retries safe.
type PropertyRepository interface {
	// Create inserts a property. A uniqueness violation on the external id
	// surfaces as a wrapped ErrAlreadyExists so callers can re-read and reuse.
	Create(ctx context.Context, property *Property) error

	GetByID(ctx context.Context, id string) (*Property, error)

	FindByExternalID(ctx context.Context, externalID string) (*Property, error)
}

// LinkRepository persists client-property links.
type LinkRepository interface {
	// Create inserts a link. A second active link for the same
	// (client, property) pair surfaces as a wrapped ErrAlreadyExists.
	Create(ctx context.Context, link *ClientPropertyLink) error

	GetByID(ctx context.Context, id string) (*ClientPropertyLink, error)

	FindActiveByPair(ctx context.Context, clientID, propertyID string) (*ClientPropertyLink, error)

	// FindByClient lists a client's links, excluding archived ones unless
	// includeArchived is set.
	FindByClient(ctx context.Context, clientID string, includeArchived bool) ([]*ClientPropertyLink, error)

	Update(ctx context.Context, link *ClientPropertyLink) error
}
