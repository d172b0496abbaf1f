package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"claimintake/internal/domain"
	"claimintake/internal/intake"
	"claimintake/internal/service"
)

// MockIntakeService is a mock implementation of service.IntakeService.
type MockIntakeService struct {
	mock.Mock
}

func (m *MockIntakeService) draft(args mock.Arguments) (*domain.ClaimDraft, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClaimDraft), args.Error(1)
}

func (m *MockIntakeService) transition(args mock.Arguments) (*service.TransitionResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TransitionResult), args.Error(1)
}

func (m *MockIntakeService) Start(ctx context.Context, claimantID string) (*domain.ClaimDraft, error) {
	return m.draft(m.Called(ctx, claimantID))
}

func (m *MockIntakeService) Get(ctx context.Context, claimantID string, draftID uuid.UUID) (*domain.ClaimDraft, error) {
	return m.draft(m.Called(ctx, claimantID, draftID))
}

func (m *MockIntakeService) SetField(ctx context.Context, claimantID string, draftID uuid.UUID, name, value string) (*domain.ClaimDraft, error) {
	return m.draft(m.Called(ctx, claimantID, draftID, name, value))
}

func (m *MockIntakeService) AttachEvidence(ctx context.Context, claimantID string, draftID uuid.UUID, upload intake.ArtifactUpload) (*domain.ClaimDraft, error) {
	return m.draft(m.Called(ctx, claimantID, draftID, upload))
}

func (m *MockIntakeService) AttachPolicyDocument(ctx context.Context, claimantID string, draftID uuid.UUID, upload intake.ArtifactUpload) (*domain.ClaimDraft, error) {
	return m.draft(m.Called(ctx, claimantID, draftID, upload))
}

func (m *MockIntakeService) RetryFetch(ctx context.Context, claimantID string, draftID uuid.UUID) (*domain.ClaimDraft, error) {
	return m.draft(m.Called(ctx, claimantID, draftID))
}

func (m *MockIntakeService) Advance(ctx context.Context, claimantID string, draftID uuid.UUID) (*service.TransitionResult, error) {
	return m.transition(m.Called(ctx, claimantID, draftID))
}

func (m *MockIntakeService) Back(ctx context.Context, claimantID string, draftID uuid.UUID) (*service.TransitionResult, error) {
	return m.transition(m.Called(ctx, claimantID, draftID))
}

func (m *MockIntakeService) Submit(ctx context.Context, claimantID string, draftID uuid.UUID) (*intake.Receipt, error) {
	args := m.Called(ctx, claimantID, draftID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*intake.Receipt), args.Error(1)
}

func (m *MockIntakeService) Cancel(ctx context.Context, claimantID string, draftID uuid.UUID) error {
	args := m.Called(ctx, claimantID, draftID)
	return args.Error(0)
}

func (m *MockIntakeService) SweepIdle() int {
	args := m.Called()
	return args.Int(0)
}
