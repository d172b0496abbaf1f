package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"claimintake/internal/domain"
	"claimintake/internal/port"
)

const artifactURLExpirySeconds = 3600

// ReviewInput is the DTO for an adjuster's review of a submitted claim.
type ReviewInput struct {
	ClaimID    string
	ReviewerID string
	Status     domain.DecisionStatus
	Notes      string
}

// ArtifactLinks holds short-lived download URLs for a claim's archived artifacts.
type ArtifactLinks struct {
	EvidenceURL       string `json:"evidence_url,omitempty"`
	PolicyDocumentURL string `json:"policy_document_url,omitempty"`
	ExpiresIn         int64  `json:"expires_in"`
}

// ClaimService is the read side of submitted claims and the adjuster review
// workflow, which is the only place a claim can become REJECTED.
type ClaimService interface {
	ListMine(ctx context.Context, claimantID string, offset, limit int) ([]domain.Claim, int, error)
	GetMine(ctx context.Context, claimantID, claimID string) (*domain.Claim, error)
	ListForReview(ctx context.Context, status domain.DecisionStatus, offset, limit int) ([]domain.Claim, int, error)
	Get(ctx context.Context, claimID string) (*domain.Claim, error)
	Review(ctx context.Context, input ReviewInput) (*domain.Claim, error)
	ArtifactLinks(ctx context.Context, claimID string) (*ArtifactLinks, error)
}

type claimService struct {
	store   port.ClaimStore
	storage port.ObjectStorage
	bucket  string
	now     func() time.Time
}

// NewClaimService creates a new ClaimService. storage may be nil when
// artifacts are not archived.
func NewClaimService(store port.ClaimStore, storage port.ObjectStorage, bucket string) ClaimService {
	return &claimService{store: store, storage: storage, bucket: bucket, now: time.Now}
}

func (s *claimService) ListMine(ctx context.Context, claimantID string, offset, limit int) ([]domain.Claim, int, error) {
	return s.store.ListByClaimant(ctx, claimantID, offset, limit)
}

func (s *claimService) GetMine(ctx context.Context, claimantID, claimID string) (*domain.Claim, error) {
	c, err := s.store.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if c.ClaimantID != claimantID {
		return nil, domain.ErrClaimNotFound
	}
	return c, nil
}

func (s *claimService) ListForReview(ctx context.Context, status domain.DecisionStatus, offset, limit int) ([]domain.Claim, int, error) {
	if status == "" {
		status = domain.DecisionManualReview
	}
	if !domain.ValidReviewStatuses[status] {
		return nil, 0, domain.ErrInvalidReviewStatus
	}
	return s.store.ListByStatus(ctx, status, offset, limit)
}

func (s *claimService) Get(ctx context.Context, claimID string) (*domain.Claim, error) {
	return s.store.GetByID(ctx, claimID)
}

func (s *claimService) Review(ctx context.Context, input ReviewInput) (*domain.Claim, error) {
	if !domain.ValidReviewStatuses[input.Status] {
		return nil, domain.ErrInvalidReviewStatus
	}
	c, err := s.store.GetByID(ctx, input.ClaimID)
	if err != nil {
		return nil, err
	}

	reviewer := input.ReviewerID
	reviewedAt := s.now().UTC()
	c.Status = input.Status
	c.ReviewedBy = &reviewer
	c.ReviewedAt = &reviewedAt
	c.ReviewerNotes = strings.TrimSpace(input.Notes)

	if err := s.store.UpdateReview(ctx, c); err != nil {
		return nil, fmt.Errorf("updating review: %w", err)
	}
	log.Printf("service.ClaimService.Review: claim %s set to %s by %s", c.ID, c.Status, reviewer)
	return c, nil
}

func (s *claimService) ArtifactLinks(ctx context.Context, claimID string) (*ArtifactLinks, error) {
	c, err := s.store.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	links := &ArtifactLinks{ExpiresIn: artifactURLExpirySeconds}
	if s.storage == nil {
		return links, nil
	}
	if c.EvidenceKey != "" {
		if links.EvidenceURL, err = s.storage.GetPresignedURL(ctx, s.bucket, c.EvidenceKey, artifactURLExpirySeconds); err != nil {
			return nil, fmt.Errorf("presigning evidence: %w", err)
		}
	}
	if c.PolicyDocumentKey != "" {
		if links.PolicyDocumentURL, err = s.storage.GetPresignedURL(ctx, s.bucket, c.PolicyDocumentKey, artifactURLExpirySeconds); err != nil {
			return nil, fmt.Errorf("presigning policy document: %w", err)
		}
	}
	return links, nil
}
