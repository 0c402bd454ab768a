package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/elach8/hayvn-match/internal/domain"
	"github.com/elach8/hayvn-match/internal/platform/logger"
)

const listingCollectionName = "listings"

// ListingRepository reads the listing store the feed pipeline refreshes
// out-of-band. Reads only; the pipeline owns the writes.
type ListingRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewListingRepository creates the repository and ensures query indexes.
func NewListingRepository(db *mongo.Database, log *logger.Logger) (*ListingRepository, error) {
	collection := db.Collection(listingCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "brokerage_id", Value: 1}, {Key: "source_status", Value: 1}}},
		{Keys: bson.D{{Key: "external_id", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for listings collection", zap.Error(err))
	} else {
		log.Info("Ensured indexes for listings collection")
	}

	return &ListingRepository{
		collection: collection,
		logger:     log.Named("ListingRepository"),
	}, nil
}

// GetByID retrieves a listing by its ID.
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var doc listingDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: listing %s", domain.ErrNotFound, id)
		}
		r.logger.Error("Failed to get listing by ID", zap.Error(err), zap.String("listing_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByBrokerage returns the brokerage's current pool, newest listings
// first. Sold inventory is excluded unless includeClosed is set.
func (r *ListingRepository) FindByBrokerage(ctx context.Context, brokerageID string, includeClosed bool) ([]*domain.Listing, error) {
	if brokerageID == "" {
		return nil, fmt.Errorf("%w: brokerage id cannot be empty", domain.ErrInvalidInput)
	}

	query := bson.M{"brokerage_id": brokerageID}
	if !includeClosed {
		query["source_status"] = bson.M{"$ne": string(domain.ListingStatusSold)}
	}

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "listed_at", Value: -1}}))
	if err != nil {
		r.logger.Error("Failed to find listings by brokerage", zap.Error(err), zap.String("brokerage_id", brokerageID))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*listingDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode listings", zap.Error(err), zap.String("brokerage_id", brokerageID))
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}

	listings := make([]*domain.Listing, len(docs))
	for i, doc := range docs {
		listings[i] = doc.toDomain()
	}
	return listings, nil
}
