package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"claimintake/internal/domain"
	"claimintake/internal/port"
)

// MockImageClassifier is a mock implementation of port.ImageClassifier.
type MockImageClassifier struct {
	mock.Mock
}

func (m *MockImageClassifier) Classify(ctx context.Context, input port.ArtifactInput) (*domain.ClassificationResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClassificationResult), args.Error(1)
}

// MockDocumentExtractor is a mock implementation of port.DocumentExtractor.
type MockDocumentExtractor struct {
	mock.Mock
}

func (m *MockDocumentExtractor) Extract(ctx context.Context, input port.ArtifactInput, endpointID string) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, input, endpointID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}
