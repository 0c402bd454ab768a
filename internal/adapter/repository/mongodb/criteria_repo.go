package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/elach8/hayvn-match/internal/domain"
	"github.com/elach8/hayvn-match/internal/platform/logger"
)

const criteriaCollectionName = "client_criteria"

// CriteriaRepository reads the criteria view maintained by the client
// record's editing flow. This service never writes it, so there is no
// create or update here and no index management.
type CriteriaRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewCriteriaRepository(db *mongo.Database, log *logger.Logger) *CriteriaRepository {
	return &CriteriaRepository{
		collection: db.Collection(criteriaCollectionName),
		logger:     log.Named("CriteriaRepository"),
	}
}

// GetByClientID loads one client's criteria.
func (r *CriteriaRepository) GetByClientID(ctx context.Context, clientID string) (*domain.Criteria, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client id cannot be empty", domain.ErrInvalidInput)
	}
	var doc criteriaDocument
	err := r.collection.FindOne(ctx, bson.M{"client_id": clientID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: criteria for client %s", domain.ErrNotFound, clientID)
		}
		r.logger.Error("Failed to get criteria by client id", zap.Error(err), zap.String("client_id", clientID))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}
