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

const linkCollectionName = "client_property_links"

// LinkRepository implements domain.LinkRepository using MongoDB. The partial
// unique index keeps one active link per (client, property) pair while
// letting archived history accumulate.
type LinkRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewLinkRepository creates the repository and ensures its indexes.
func NewLinkRepository(db *mongo.Database, log *logger.Logger) (*LinkRepository, error) {
	collection := db.Collection(linkCollectionName)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "property_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.M{
				"status": string(domain.LinkStatusActive),
			}),
		},
		{Keys: bson.D{{Key: "client_id", Value: 1}, {Key: "status", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for client_property_links collection", zap.Error(err))
	} else {
		log.Info("Ensured indexes for client_property_links collection")
	}

	return &LinkRepository{
		collection: collection,
		logger:     log.Named("LinkRepository"),
	}, nil
}

// Create inserts a link. A second active link for the pair surfaces as a
// wrapped domain.ErrAlreadyExists.
func (r *LinkRepository) Create(ctx context.Context, link *domain.ClientPropertyLink) error {
	doc := fromDomainLink(link)
	doc.ID = primitive.NewObjectID()

	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Warn("Active link already exists for pair",
				zap.String("client_id", link.ClientID), zap.String("property_id", link.PropertyID))
			return fmt.Errorf("%w: active link for client %s and property %s", domain.ErrAlreadyExists, link.ClientID, link.PropertyID)
		}
		r.logger.Error("Failed to insert client-property link", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}

	link.ID = doc.ID.Hex()
	link.CreatedAt = now
	link.UpdatedAt = now
	r.logger.Info("Client-property link created",
		zap.String("link_id", link.ID),
		zap.String("client_id", link.ClientID),
		zap.String("property_id", link.PropertyID))
	return nil
}

// GetByID retrieves a link by its ID.
func (r *LinkRepository) GetByID(ctx context.Context, id string) (*domain.ClientPropertyLink, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var doc linkDocument
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: link %s", domain.ErrNotFound, id)
		}
		r.logger.Error("Failed to get link by ID", zap.Error(err), zap.String("link_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}

// FindActiveByPair returns the active link for a (client, property) pair.
func (r *LinkRepository) FindActiveByPair(ctx context.Context, clientID, propertyID string) (*domain.ClientPropertyLink, error) {
	var doc linkDocument
	err := r.collection.FindOne(ctx, bson.M{
		"client_id":   clientID,
		"property_id": propertyID,
		"status":      string(domain.LinkStatusActive),
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: active link for client %s and property %s", domain.ErrNotFound, clientID, propertyID)
		}
		r.logger.Error("Failed to find link by pair", zap.Error(err), zap.String("client_id", clientID), zap.String("property_id", propertyID))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByClient lists a client's links, newest first. Archived links stay out
// unless includeArchived is set.
func (r *LinkRepository) FindByClient(ctx context.Context, clientID string, includeArchived bool) ([]*domain.ClientPropertyLink, error) {
	query := bson.M{"client_id": clientID}
	if !includeArchived {
		query["status"] = string(domain.LinkStatusActive)
	}

	cursor, err := r.collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		r.logger.Error("Failed to find links by client", zap.Error(err), zap.String("client_id", clientID))
		return nil, fmt.Errorf("db find failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*linkDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode links", zap.Error(err), zap.String("client_id", clientID))
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}

	links := make([]*domain.ClientPropertyLink, len(docs))
	for i, doc := range docs {
		links[i] = doc.toDomain()
	}
	return links, nil
}

// Update writes the link's mutable fields back. Feedback and rating are
// always written as stored on the entity, so archive and restore round trips
// cannot lose them.
func (r *LinkRepository) Update(ctx context.Context, link *domain.ClientPropertyLink) error {
	oid, err := parseID(link.ID)
	if err != nil {
		return err
	}

	link.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"relationship": string(link.Relationship),
		"interest":     string(link.Interest),
		"favorite":     link.Favorite,
		"feedback":     link.Feedback,
		"rating":       link.Rating,
		"status":       string(link.Status),
		"updated_at":   link.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if link.ArchivedAt != nil {
		set["archived_at"] = *link.ArchivedAt
	} else {
		update["$unset"] = bson.M{"archived_at": ""}
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		r.logger.Error("Failed to update link", zap.Error(err), zap.String("link_id", link.ID))
		return fmt.Errorf("db update failed: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: link %s", domain.ErrNotFound, link.ID)
	}
	return nil
}
