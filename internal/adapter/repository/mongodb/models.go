package mongodb

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/elach8/hayvn-match/internal/domain"
)

// Database documents live here, apart from the clean domain entities. All
// bson tags stay in this package; the mappers below are the only bridge.

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: malformed id %q", domain.ErrInvalidInput, id)
	}
	return oid, nil
}

type criteriaDocument struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	ClientID           string             `bson:"client_id"`
	BrokerageID        string             `bson:"brokerage_id"`
	BudgetMin          *float64           `bson:"budget_min,omitempty"`
	BudgetMax          *float64           `bson:"budget_max,omitempty"`
	PreferredLocations []string           `bson:"preferred_locations,omitempty"`
	MinBeds            *int32             `bson:"min_beds,omitempty"`
	MinBaths           *float64           `bson:"min_baths,omitempty"`
	DealStyle          string             `bson:"deal_style,omitempty"`
	PropertyTypes      []string           `bson:"property_types,omitempty"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

func (d *criteriaDocument) toDomain() *domain.Criteria {
	return &domain.Criteria{
		ClientID:           d.ClientID,
		BrokerageID:        d.BrokerageID,
		BudgetMin:          d.BudgetMin,
		BudgetMax:          d.BudgetMax,
		PreferredLocations: d.PreferredLocations,
		MinBeds:            d.MinBeds,
		MinBaths:           d.MinBaths,
		DealStyle:          domain.DealStyle(d.DealStyle),
		PropertyTypes:      d.PropertyTypes,
		UpdatedAt:          d.UpdatedAt,
	}
}

type listingDocument struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty"`
	BrokerageID  string                 `bson:"brokerage_id"`
	ExternalID   string                 `bson:"external_id"`
	Price        *float64               `bson:"price,omitempty"`
	AddressLine  string                 `bson:"address_line,omitempty"`
	City         string                 `bson:"city,omitempty"`
	Neighborhood string                 `bson:"neighborhood,omitempty"`
	State        string                 `bson:"state,omitempty"`
	PostalCode   string                 `bson:"postal_code,omitempty"`
	Beds         *int32                 `bson:"beds,omitempty"`
	Baths        *float64               `bson:"baths,omitempty"`
	Sqft         *int32                 `bson:"sqft,omitempty"`
	YearBuilt    *int32                 `bson:"year_built,omitempty"`
	PropertyType string                 `bson:"property_type,omitempty"`
	SourceStatus string                 `bson:"source_status"`
	Remarks      string                 `bson:"remarks,omitempty"`
	RawPayload   map[string]interface{} `bson:"raw_payload,omitempty"`
	ListedAt     time.Time              `bson:"listed_at"`
	UpdatedAt    time.Time              `bson:"updated_at"`
}

func (d *listingDocument) toDomain() *domain.Listing {
	return &domain.Listing{
		ID:           d.ID.Hex(),
		BrokerageID:  d.BrokerageID,
		ExternalID:   d.ExternalID,
		Price:        d.Price,
		AddressLine:  d.AddressLine,
		City:         d.City,
		Neighborhood: d.Neighborhood,
		State:        d.State,
		PostalCode:   d.PostalCode,
		Beds:         d.Beds,
		Baths:        d.Baths,
		Sqft:         d.Sqft,
		YearBuilt:    d.YearBuilt,
		PropertyType: d.PropertyType,
		SourceStatus: domain.ListingSourceStatus(d.SourceStatus),
		Remarks:      d.Remarks,
		RawPayload:   d.RawPayload,
		ListedAt:     d.ListedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type recommendationDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ClientID   string             `bson:"client_id"`
	ListingID  string             `bson:"listing_id"`
	Score      int32              `bson:"score"`
	Reasons    []string           `bson:"reasons,omitempty"`
	Status     string             `bson:"status"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
	LastSeenAt time.Time          `bson:"last_seen_at"`
	ResolvedAt *time.Time         `bson:"resolved_at,omitempty"`
}

func (d *recommendationDocument) toDomain() *domain.Recommendation {
	return &domain.Recommendation{
		ID:         d.ID.Hex(),
		ClientID:   d.ClientID,
		ListingID:  d.ListingID,
		Score:      d.Score,
		Reasons:    d.Reasons,
		Status:     domain.RecommendationStatus(d.Status),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
		LastSeenAt: d.LastSeenAt,
		ResolvedAt: d.ResolvedAt,
	}
}

type propertyDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ExternalID   string             `bson:"external_id,omitempty"`
	BrokerageID  string             `bson:"brokerage_id,omitempty"`
	AddressLine  string             `bson:"address_line,omitempty"`
	City         string             `bson:"city,omitempty"`
	Neighborhood string             `bson:"neighborhood,omitempty"`
	State        string             `bson:"state,omitempty"`
	PostalCode   string             `bson:"postal_code,omitempty"`
	Price        *float64           `bson:"price,omitempty"`
	Beds         *int32             `bson:"beds,omitempty"`
	Baths        *float64           `bson:"baths,omitempty"`
	Sqft         *int32             `bson:"sqft,omitempty"`
	YearBuilt    *int32             `bson:"year_built,omitempty"`
	PropertyType string             `bson:"property_type,omitempty"`
	SourceStatus string             `bson:"source_status,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func fromDomainProperty(p *domain.Property) *propertyDocument {
	return &propertyDocument{
		ExternalID:   p.ExternalID,
		BrokerageID:  p.BrokerageID,
		AddressLine:  p.AddressLine,
		City:         p.City,
		Neighborhood: p.Neighborhood,
		State:        p.State,
		PostalCode:   p.PostalCode,
		Price:        p.Price,
		Beds:         p.Beds,
		Baths:        p.Baths,
		Sqft:         p.Sqft,
		YearBuilt:    p.YearBuilt,
		PropertyType: p.PropertyType,
		SourceStatus: string(p.SourceStatus),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (d *propertyDocument) toDomain() *domain.Property {
	return &domain.Property{
		ID:           d.ID.Hex(),
		ExternalID:   d.ExternalID,
		BrokerageID:  d.BrokerageID,
		AddressLine:  d.AddressLine,
		City:         d.City,
		Neighborhood: d.Neighborhood,
		State:        d.State,
		PostalCode:   d.PostalCode,
		Price:        d.Price,
		Beds:         d.Beds,
		Baths:        d.Baths,
		Sqft:         d.Sqft,
		YearBuilt:    d.YearBuilt,
		PropertyType: d.PropertyType,
		SourceStatus: domain.ListingSourceStatus(d.SourceStatus),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type linkDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ClientID     string             `bson:"client_id"`
	PropertyID   string             `bson:"property_id"`
	Relationship string             `bson:"relationship"`
	Interest     string             `bson:"interest"`
	Favorite     bool               `bson:"favorite"`
	Feedback     string             `bson:"feedback,omitempty"`
	Rating       *int32             `bson:"rating,omitempty"`
	Status       string             `bson:"status"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
	ArchivedAt   *time.Time         `bson:"archived_at,omitempty"`
}

func fromDomainLink(l *domain.ClientPropertyLink) *linkDocument {
	return &linkDocument{
		ClientID:     l.ClientID,
		PropertyID:   l.PropertyID,
		Relationship: string(l.Relationship),
		Interest:     string(l.Interest),
		Favorite:     l.Favorite,
		Feedback:     l.Feedback,
		Rating:       l.Rating,
		Status:       string(l.Status),
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
		ArchivedAt:   l.ArchivedAt,
	}
}

func (d *linkDocument) toDomain() *domain.ClientPropertyLink {
	return &domain.ClientPropertyLink{
		ID:           d.ID.Hex(),
		ClientID:     d.ClientID,
		PropertyID:   d.PropertyID,
		Relationship: domain.LinkRelationship(d.Relationship),
		Interest:     domain.InterestLevel(d.Interest),
		Favorite:     d.Favorite,
		Feedback:     d.Feedback,
		Rating:       d.Rating,
		Status:       domain.LinkStatus(d.Status),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		ArchivedAt:   d.ArchivedAt,
	}
}
