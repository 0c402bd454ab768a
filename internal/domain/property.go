package domain

import (
	"fmt"
	"time"
)

// Property is the canonical internal record a client can be linked to.
// ExternalID is the natural key when the property originated from a listing;
// it is empty for manually entered properties. At most one Property may
// exist per non-empty ExternalID.
type Property struct {
	ID           string
	ExternalID   string
	BrokerageID  string
	AddressLine  string
	City         string
	Neighborhood string
	State        string
	PostalCode   string
	Price        *float64
	Beds         *int32
	Baths        *float64
	Sqft         *int32
	YearBuilt    *int32
	PropertyType string
	SourceStatus ListingSourceStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewPropertyFromListing copies a listing's display fields into a canonical
// property. The listing's raw payload is deliberately not carried over.
func NewPropertyFromListing(l *Listing) (*Property, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: listing cannot be nil", ErrInvalidInput)
	}
	if l.ExternalID == "" {
		return nil, fmt.Errorf("%w: listing %s has no external id", ErrInvalidInput, l.ID)
	}
	now := time.Now().UTC()
	return &Property{
		ExternalID:   l.ExternalID,
		BrokerageID:  l.BrokerageID,
		AddressLine:  l.AddressLine,
		City:         l.City,
		Neighborhood: l.Neighborhood,
		State:        l.State,
		PostalCode:   l.PostalCode,
		Price:        l.Price,
		Beds:         l.Beds,
		Baths:        l.Baths,
		Sqft:         l.Sqft,
		YearBuilt:    l.YearBuilt,
		PropertyType: l.PropertyType,
		SourceStatus: l.SourceStatus,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
