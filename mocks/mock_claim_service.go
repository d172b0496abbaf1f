package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"claimintake/internal/domain"
	"claimintake/internal/service"
)

// MockClaimService is a mock implementation of service.ClaimService.
type MockClaimService struct {
	mock.Mock
}

func (m *MockClaimService) claims(args mock.Arguments) ([]domain.Claim, int, error) {
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Claim), args.Int(1), args.Error(2)
}

func (m *MockClaimService) claim(args mock.Arguments) (*domain.Claim, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Claim), args.Error(1)
}

func (m *MockClaimService) ListMine(ctx context.Context, claimantID string, offset, limit int) ([]domain.Claim, int, error) {
	return m.claims(m.Called(ctx, claimantID, offset, limit))
}

func (m *MockClaimService) GetMine(ctx context.Context, claimantID, claimID string) (*domain.Claim, error) {
	return m.claim(m.Called(ctx, claimantID, claimID))
}

func (m *MockClaimService) ListForReview(ctx context.Context, status domain.DecisionStatus, offset, limit int) ([]domain.Claim, int, error) {
	return m.claims(m.Called(ctx, status, offset, limit))
}

func (m *MockClaimService) Get(ctx context.Context, claimID string) (*domain.Claim, error) {
	return m.claim(m.Called(ctx, claimID))
}

func (m *MockClaimService) Review(ctx context.Context, input service.ReviewInput) (*domain.Claim, error) {
	return m.claim(m.Called(ctx, input))
}

func (m *MockClaimService) ArtifactLinks(ctx context.Context, claimID string) (*service.ArtifactLinks, error) {
	args := m.Called(ctx, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ArtifactLinks), args.Error(1)
}
