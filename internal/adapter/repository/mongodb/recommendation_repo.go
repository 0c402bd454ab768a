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

const recommendationCollectionName = "recommendations"

// RecommendationRepository implements domain.RecommendationRepository using
// MongoDB. The unique (client_id, listing_id) index is what turns the
// non-destructive regeneration rule into a storage guarantee instead of a
// query-ordering accident.
type RecommendationRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewRecommendationRepository creates the repository and ensures its indexes.
func NewRecommendationRepository(db *mongo.Database, log *logger.Logger) (*RecommendationRepository, error) {
	collection := db.Collection(recommendationCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "listing_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "status", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for recommendations collection", zap.Error(err))
	} else {
		log.Info("Ensured indexes for recommendations collection")
	}

	return &RecommendationRepository{
		collection: collection,
		logger:     log.Named("RecommendationRepository"),
	}, nil
}

// Upsert writes one scored candidate. The write is conditional on the stored
// row still being "new": resolved rows fail the filter, hit the unique index
// on the insert leg, and come back as a duplicate key error, which we report
// as a skip rather than a failure.
func (r *RecommendationRepository) Upsert(ctx context.Context, rec *domain.Recommendation) (*domain.Recommendation, domain.UpsertOutcome, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"client_id":  rec.ClientID,
		"listing_id": rec.ListingID,
		"status":     string(domain.RecommendationStatusNew),
	}
	update := bson.M{
		"$set": bson.M{
			"score":        rec.Score,
			"reasons":      rec.Reasons,
			"last_seen_at": now,
			"updated_at":   now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}

	res, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			r.logger.Error("Failed to upsert recommendation", zap.Error(err), zap.String("client_id", rec.ClientID), zap.String("listing_id", rec.ListingID))
			return nil, "", fmt.Errorf("db upsert failed: %w", err)
		}
		// Either the row is resolved, or a concurrent run inserted it a
		// moment ago. Retry without the upsert leg to tell the two apart.
		res, err = r.collection.UpdateOne(ctx, filter, update)
		if err != nil {
			r.logger.Error("Failed to re-run conditional update after duplicate key", zap.Error(err), zap.String("client_id", rec.ClientID), zap.String("listing_id", rec.ListingID))
			return nil, "", fmt.Errorf("db upsert retry failed: %w", err)
		}
		if res.MatchedCount == 0 {
			r.logger.Debug("Skipping resolved recommendation",
				zap.String("client_id", rec.ClientID), zap.String("listing_id", rec.ListingID))
			return nil, domain.UpsertSkipped, nil
		}
	}

	outcome := domain.UpsertRefreshed
	if res.UpsertedCount > 0 {
		outcome = domain.UpsertInserted
	}

	stored, err := r.findByPair(ctx, rec.ClientID, rec.ListingID)
	if err != nil {
		return nil, "", err
	}
	return stored, outcome, nil
}

func (r *RecommendationRepository) findByPair(ctx context.Context, clientID, listingID string) (*domain.Recommendation, error) {
	var doc recommendationDocument
	err := r.collection.FindOne(ctx, bson.M{"client_id": clientID, "listing_id": listingID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: recommendation for client %s and listing %s", domain.ErrNotFound, clientID, listingID)
		}
		r.logger.Error("Failed to load recommendation by pair", zap.Error(err), zap.String("client_id", clientID), zap.String("listing_id", listingID))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}

// GetByID retrieves a recommendation by its ID.
func (r *RecommendationRepository) GetByID(ctx context.Context, id string) (*domain.Recommendation, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var doc recommendationDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: recommendation %s", domain.ErrNotFound, id)
		}
		r.logger.Error("Failed to get recommendation by ID", zap.Error(err), zap.String("recommendation_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByClient lists a client's recommendations, highest score first, newest
// activity breaking ties.
func (r *RecommendationRepository) FindByClient(ctx context.Context, clientID string, filter domain.RecommendationFilter) ([]*domain.Recommendation, error) {
	query := bson.M{"client_id": clientID}
	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "score", Value: -1}, {Key: "last_seen_at", Value: -1}})
	if filter.Limit > 0 {
		findOptions.SetLimit(filter.Limit)
	}

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		r.logger.Error("Failed to find recommendations by client", zap.Error(err), zap.String("client_id", clientID))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*recommendationDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode recommendations", zap.Error(err), zap.String("client_id", clientID))
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}

	recs := make([]*domain.Recommendation, len(docs))
	for i, doc := range docs {
		recs[i] = doc.toDomain()
	}
	return recs, nil
}

// TransitionStatus flips a row from one status to another as a single
// conditional write, so two operators racing on the same row cannot both win.
func (r *RecommendationRepository) TransitionStatus(ctx context.Context, id string, from, to domain.RecommendationStatus) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	set := bson.M{"status": string(to), "updated_at": now}
	update := bson.M{"$set": set}
	if to.Resolved() {
		set["resolved_at"] = now
	} else {
		update["$unset"] = bson.M{"resolved_at": ""}
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid, "status": string(from)}, update)
	if err != nil {
		r.logger.Error("Failed to transition recommendation status", zap.Error(err), zap.String("recommendation_id", id))
		return fmt.Errorf("db update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		// Re-read to distinguish a vanished row from a lost race.
		var doc recommendationDocument
		err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("%w: recommendation %s", domain.ErrNotFound, id)
		}
		if err != nil {
			r.logger.Error("Failed to re-read recommendation after no-match update", zap.Error(err), zap.String("recommendation_id", id))
			return fmt.Errorf("db findone failed: %w", err)
		}
		return fmt.Errorf("%w: recommendation %s is %s, expected %s", domain.ErrInvalidTransition, id, doc.Status, from)
	}

	r.logger.Info("Recommendation status transitioned",
		zap.String("recommendation_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	return nil
}
