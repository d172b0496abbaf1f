package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"claimintake/internal/domain"
	"claimintake/internal/port"
)

// MockClaimRepository is a mock implementation of port.ClaimRepository.
type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) Submit(ctx context.Context, input port.SubmitClaimInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

// MockClaimStore is a mock implementation of port.ClaimStore.
type MockClaimStore struct {
	mock.Mock
}

func (m *MockClaimStore) GetByID(ctx context.Context, claimID string) (*domain.Claim, error) {
	args := m.Called(ctx, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Claim), args.Error(1)
}

func (m *MockClaimStore) ListByClaimant(ctx context.Context, claimantID string, offset, limit int) ([]domain.Claim, int, error) {
	args := m.Called(ctx, claimantID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Claim), args.Int(1), args.Error(2)
}

func (m *MockClaimStore) ListByStatus(ctx context.Context, status domain.DecisionStatus, offset, limit int) ([]domain.Claim, int, error) {
	args := m.Called(ctx, status, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Claim), args.Int(1), args.Error(2)
}

func (m *MockClaimStore) UpdateReview(ctx context.Context, claim *domain.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}
