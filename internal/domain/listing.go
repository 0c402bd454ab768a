package domain

import "time"

// --- Listing Source Status Enum ---

// ListingSourceStatus is the lifecycle status reported by the listing feed.
type ListingSourceStatus string

const (
	ListingStatusActive  ListingSourceStatus = "active"
	ListingStatusPending ListingSourceStatus = "pending"
	ListingStatusSold    ListingSourceStatus = "sold"
	ListingStatusOther   ListingSourceStatus = "other"
)

// IsValid checks if the ListingSourceStatus is one of the defined constants.
func (s ListingSourceStatus) IsValid() bool {
	switch s {
	case ListingStatusActive, ListingStatusPending, ListingStatusSold, ListingStatusOther:
		return true
	}
	return false
}

// Closed reports whether the source considers the listing permanently off
// the market.
func (s ListingSourceStatus) Closed() bool {
	return s == ListingStatusSold
}

// --- Listing Entity ---

// Listing is an externally sourced property record. The feed pipeline owns
// this data; this service only reads it. Unknown numeric fields are nil,
// never zero.
type Listing struct {
	ID           string
	BrokerageID  string
	ExternalID   string // unique per source, e.g. an MLS number
	Price        *float64
	AddressLine  string
	City         string
	Neighborhood string
	State        string
	PostalCode   string
	Beds         *int32
	Baths        *float64
	Sqft         *int32
	YearBuilt    *int32
	PropertyType string
	SourceStatus ListingSourceStatus
	Remarks      string
	// RawPayload is the source record as received. Display-only; scoring
	// must never reach into it.
	RawPayload map[string]interface{}
	ListedAt   time.Time
	UpdatedAt  time.Time
}
