package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"claimintake/internal/domain"
	"claimintake/internal/service"
	"claimintake/mocks"
)

func storedClaim() *domain.Claim {
	return &domain.Claim{
		ID:                "CLM-2024-000020",
		ClaimantID:        "alice",
		ClaimType:         domain.ClaimTypeHome,
		DecisionStatus:    domain.DecisionManualReview,
		Status:            domain.DecisionManualReview,
		EvidenceKey:       "claims/tok/evidence.png",
		PolicyDocumentKey: "claims/tok/policy.pdf",
	}
}

func TestClaimService_GetMine_HidesOtherClaimants(t *testing.T) {
	store := new(mocks.MockClaimStore)
	svc := service.NewClaimService(store, nil, "")
	store.On("GetByID", mock.Anything, "CLM-2024-000020").Return(storedClaim(), nil)

	c, err := svc.GetMine(context.Background(), "alice", "CLM-2024-000020")
	require.NoError(t, err)
	assert.Equal(t, domain.ClaimTypeHome, c.ClaimType)

	_, err = svc.GetMine(context.Background(), "bob", "CLM-2024-000020")
	assert.ErrorIs(t, err, domain.ErrClaimNotFound)
}

func TestClaimService_ListForReview_DefaultsToManualReview(t *testing.T) {
	store := new(mocks.MockClaimStore)
	svc := service.NewClaimService(store, nil, "")
	store.On("ListByStatus", mock.Anything, domain.DecisionManualReview, 0, 20).
		Return([]domain.Claim{*storedClaim()}, 1, nil)

	claims, total, err := svc.ListForReview(context.Background(), "", 0, 20)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, claims, 1)

	_, _, err = svc.ListForReview(context.Background(), "PENDING", 0, 20)
	assert.ErrorIs(t, err, domain.ErrInvalidReviewStatus)
}

func TestClaimService_Review_Reject(t *testing.T) {
	store := new(mocks.MockClaimStore)
	svc := service.NewClaimService(store, nil, "")
	store.On("GetByID", mock.Anything, "CLM-2024-000020").Return(storedClaim(), nil)
	store.On("UpdateReview", mock.Anything, mock.AnythingOfType("*domain.Claim")).Return(nil)

	c, err := svc.Review(context.Background(), service.ReviewInput{
		ClaimID:    "CLM-2024-000020",
		ReviewerID: "adjuster-7",
		Status:     domain.DecisionRejected,
		Notes:      "  policy lapsed  ",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.DecisionRejected, c.Status)
	assert.Equal(t, domain.DecisionManualReview, c.DecisionStatus, "the automated decision is kept for audit")
	require.NotNil(t, c.ReviewedBy)
	assert.Equal(t, "adjuster-7", *c.ReviewedBy)
	assert.NotNil(t, c.ReviewedAt)
	assert.Equal(t, "policy lapsed", c.ReviewerNotes)
}

func TestClaimService_Review_InvalidStatus(t *testing.T) {
	store := new(mocks.MockClaimStore)
	svc := service.NewClaimService(store, nil, "")

	_, err := svc.Review(context.Background(), service.ReviewInput{ClaimID: "x", Status: "CLOSED"})

	assert.ErrorIs(t, err, domain.ErrInvalidReviewStatus)
	store.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestClaimService_Review_StoreFailure(t *testing.T) {
	store := new(mocks.MockClaimStore)
	svc := service.NewClaimService(store, nil, "")
	store.On("GetByID", mock.Anything, "CLM-2024-000020").Return(storedClaim(), nil)
	store.On("UpdateReview", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.Review(context.Background(), service.ReviewInput{ClaimID: "CLM-2024-000020", Status: domain.DecisionApproved})

	assert.Error(t, err)
}

func TestClaimService_ArtifactLinks(t *testing.T) {
	store := new(mocks.MockClaimStore)
	storage := new(mocks.MockObjectStorage)
	svc := service.NewClaimService(store, storage, "claim-artifacts")
	store.On("GetByID", mock.Anything, "CLM-2024-000020").Return(storedClaim(), nil)
	storage.On("GetPresignedURL", mock.Anything, "claim-artifacts", "claims/tok/evidence.png", int64(3600)).
		Return("https://s3/evidence", nil)
	storage.On("GetPresignedURL", mock.Anything, "claim-artifacts", "claims/tok/policy.pdf", int64(3600)).
		Return("https://s3/policy", nil)

	links, err := svc.ArtifactLinks(context.Background(), "CLM-2024-000020")

	require.NoError(t, err)
	assert.Equal(t, "https://s3/evidence", links.EvidenceURL)
	assert.Equal(t, "https://s3/policy", links.PolicyDocumentURL)
	assert.Equal(t, int64(3600), links.ExpiresIn)
}

func TestClaimService_ArtifactLinks_NoStorage(t *testing.T) {
	store := new(mocks.MockClaimStore)
	svc := service.NewClaimService(store, nil, "")
	store.On("GetByID", mock.Anything, "CLM-2024-000020").Return(storedClaim(), nil)

	links, err := svc.ArtifactLinks(context.Background(), "CLM-2024-000020")

	require.NoError(t, err)
	assert.Empty(t, links.EvidenceURL)
}
