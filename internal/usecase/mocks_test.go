package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/elach8/hayvn-match/internal/domain"
	"github.com/elach8/hayvn-match/internal/platform/logger"
)

func newTestLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func strPtr(v string) *string { return &v }

func int32Ptr(v int32) *int32 { return &v }

func float64Ptr(v float64) *float64 { return &v }

func boolPtr(v bool) *bool { return &v }

type MockCriteriaRepository struct{ mock.Mock }

func (m *MockCriteriaRepository) GetByClientID(ctx context.Context, clientID string) (*domain.Criteria, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Criteria), args.Error(1)
}

type MockListingRepository struct{ mock.Mock }

func (m *MockListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}

func (m *MockListingRepository) FindByBrokerage(ctx context.Context, brokerageID string, includeClosed bool) ([]*domain.Listing, error) {
	args := m.Called(ctx, brokerageID, includeClosed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}

type MockRecommendationRepository struct{ mock.Mock }

func (m *MockRecommendationRepository) Upsert(ctx context.Context, rec *domain.Recommendation) (*domain.Recommendation, domain.UpsertOutcome, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Get(1).(domain.UpsertOutcome), args.Error(2)
	}
	return args.Get(0).(*domain.Recommendation), args.Get(1).(domain.UpsertOutcome), args.Error(2)
}

func (m *MockRecommendationRepository) GetByID(ctx context.Context, id string) (*domain.Recommendation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Recommendation), args.Error(1)
}

func (m *MockRecommendationRepository) FindByClient(ctx context.Context, clientID string, filter domain.RecommendationFilter) ([]*domain.Recommendation, error) {
	args := m.Called(ctx, clientID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Recommendation), args.Error(1)
}

func (m *MockRecommendationRepository) TransitionStatus(ctx context.Context, id string, from, to domain.RecommendationStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

type MockPropertyRepository struct{ mock.Mock }

func (m *MockPropertyRepository) Create(ctx context.Context, property *domain.Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}

func (m *MockPropertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

func (m *MockPropertyRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.Property, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Property), args.Error(1)
}

type MockLinkRepository struct{ mock.Mock }

func (m *MockLinkRepository) Create(ctx context.Context, link *domain.ClientPropertyLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id string) (*domain.ClientPropertyLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClientPropertyLink), args.Error(1)
}

func (m *MockLinkRepository) FindActiveByPair(ctx context.Context, clientID, propertyID string) (*domain.ClientPropertyLink, error) {
	args := m.Called(ctx, clientID, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClientPropertyLink), args.Error(1)
}

func (m *MockLinkRepository) FindByClient(ctx context.Context, clientID string, includeArchived bool) ([]*domain.ClientPropertyLink, error) {
	args := m.Called(ctx, clientID, includeArchived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ClientPropertyLink), args.Error(1)
}

func (m *MockLinkRepository) Update(ctx context.Context, link *domain.ClientPropertyLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type MockCacheRepository struct{ mock.Mock }

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
