package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/elach8/hayvn-match/internal/domain"
	"github.com/elach8/hayvn-match/internal/platform/logger"
)

const propertyCollectionName = "properties"

// PropertyRepository implements domain.PropertyRepository using MongoDB.
// The partial unique index on external_id enforces the one-property-per-
// listing invariant; manually entered properties have no external_id and
// stay outside the index.
type PropertyRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewPropertyRepository creates the repository and ensures its indexes.
func NewPropertyRepository(db *mongo.Database, log *logger.Logger) (*PropertyRepository, error) {
	collection := db.Collection(propertyCollectionName)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
				"external_id": bson.M{"$exists": true, "$gt": ""},
			}),
		},
		{Keys: bson.D{{Key: "brokerage_id", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for properties collection", zap.Error(err))
	} else {
		log.Info("Ensured indexes for properties collection")
	}

	return &PropertyRepository{
		collection: collection,
		logger:     log.Named("PropertyRepository"),
	}, nil
}

// Create inserts a property. A duplicate external id comes back as a wrapped
// domain.ErrAlreadyExists; the caller is expected to re-read and reuse.
func (r *PropertyRepository) Create(ctx context.Context, property *domain.Property) error {
	doc := fromDomainProperty(property)
	doc.ID = primitive.NewObjectID()

	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Warn("Duplicate external id on property creation",
				zap.String("external_id", property.ExternalID))
			return fmt.Errorf("%w: property with external id %q", domain.ErrAlreadyExists, property.ExternalID)
		}
		r.logger.Error("Failed to insert property", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}

	property.ID = doc.ID.Hex()
	property.CreatedAt = now
	property.UpdatedAt = now
	r.logger.Info("Property created", zap.String("property_id", property.ID), zap.String("external_id", property.ExternalID))
	return nil
}

// GetByID retrieves a property by its ID.
func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var doc propertyDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: property %s", domain.ErrNotFound, id)
		}
		r.logger.Error("Failed to get property by ID", zap.Error(err), zap.String("property_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByExternalID looks a property up by its listing-feed natural key.
func (r *PropertyRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.Property, error) {
	if externalID == "" {
		return nil, fmt.Errorf("%w: external id cannot be empty", domain.ErrInvalidInput)
	}
	var doc propertyDocument
	err := r.collection.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: property with external id %q", domain.ErrNotFound, externalID)
		}
		r.logger.Error("Failed to find property by external id", zap.Error(err), zap.String("external_id", externalID))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}
