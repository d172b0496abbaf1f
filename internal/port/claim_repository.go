package port

import (
	"context"

	"github.com/google/uuid"

	"claimintake/internal/domain"
)

// SubmitClaimInput is a finalized draft snapshot handed to the repository.
// Token is stable for the lifetime of the draft instance.
type SubmitClaimInput struct {
	Token             uuid.UUID
	Draft             *domain.ClaimDraft
	Decision          domain.Decision
	EvidenceKey       string
	PolicyDocumentKey string
}

// ClaimRepository persists submitted claims. Submit must be idempotent per
// Token: repeated calls return the same claim ID and create one record.
type ClaimRepository interface {
	Submit(ctx context.Context, input SubmitClaimInput) (string, error)
}

// ClaimStore is the read and adjuster-review side of claim persistence.
type ClaimStore interface {
	GetByID(ctx context.Context, claimID string) (*domain.Claim, error)
	ListByClaimant(ctx context.Context, claimantID string, offset, limit int) ([]domain.Claim, int, error)
	ListByStatus(ctx context.Context, status domain.DecisionStatus, offset, limit int) ([]domain.Claim, int, error)
	UpdateReview(ctx context.Context, claim *domain.Claim) error
}
