package mocks

import (
	"github.com/stretchr/testify/mock"

	"claimintake/internal/auth"
)

// MockTokenVerifier is a mock implementation of middleware.TokenVerifier.
type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) Verify(token string) (*auth.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}
