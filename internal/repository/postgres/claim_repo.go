package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"claimintake/internal/domain"
	"claimintake/internal/port"
)

const claimColumns = `id, submission_token, claimant_id, claim_type, policy_id, claimed_amount,
	incident_date, description, decision_status, issues, extracted_snapshot,
	classification_label, classification_confidence, evidence_key, policy_document_key,
	status, reviewed_by, reviewed_at, reviewer_notes, created_at, updated_at`

// ClaimRepo persists submitted claims. It implements both port.ClaimRepository
// and port.ClaimStore.
type ClaimRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewClaimRepo creates a new PostgreSQL-backed claim repository.
func NewClaimRepo(db *sqlx.DB) *ClaimRepo {
	return &ClaimRepo{db: db, now: time.Now}
}

var (
	_ port.ClaimRepository = (*ClaimRepo)(nil)
	_ port.ClaimStore      = (*ClaimRepo)(nil)
)

// Submit inserts the claim unless one already exists for the submission token,
// in which case the existing ID is returned.
func (r *ClaimRepo) Submit(ctx context.Context, input port.SubmitClaimInput) (string, error) {
	d := input.Draft
	if d == nil {
		return "", fmt.Errorf("claimRepo.Submit: draft is required")
	}

	issues, err := json.Marshal(nonNil(input.Decision.Issues))
	if err != nil {
		return "", fmt.Errorf("claimRepo.Submit marshal issues: %w", err)
	}
	snapshot, err := json.Marshal(nonNilFields(input.Decision.ExtractedSnapshot))
	if err != nil {
		return "", fmt.Errorf("claimRepo.Submit marshal snapshot: %w", err)
	}

	var label *string
	var confidence *float64
	if d.Classification != nil {
		l, c := d.Classification.Label, d.Classification.Confidence
		label, confidence = &l, &c
	}

	now := r.now().UTC()
	query := `INSERT INTO claims
		(submission_token, claimant_id, claim_type, policy_id, claimed_amount, incident_date,
		 description, decision_status, issues, extracted_snapshot, classification_label,
		 classification_confidence, evidence_key, policy_document_key, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (submission_token) DO NOTHING
		RETURNING id`

	var id string
	err = r.db.QueryRowxContext(ctx, query,
		input.Token, d.ClaimantID, d.ClaimType, d.PolicyID, d.ClaimedAmount, d.IncidentDate,
		d.Description, input.Decision.Status, issues, snapshot, label,
		confidence, input.EvidenceKey, input.PolicyDocumentKey, input.Decision.Status, now, now,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("claimRepo.Submit: %w", err)
	}

	// The token was already stored by an earlier attempt.
	if err := r.db.GetContext(ctx, &id, "SELECT id FROM claims WHERE submission_token = $1", input.Token); err != nil {
		return "", fmt.Errorf("claimRepo.Submit lookup existing: %w", err)
	}
	return id, nil
}

func (r *ClaimRepo) GetByID(ctx context.Context, claimID string) (*domain.Claim, error) {
	var c domain.Claim
	err := r.db.GetContext(ctx, &c, "SELECT "+claimColumns+" FROM claims WHERE id = $1", claimID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrClaimNotFound
		}
		return nil, fmt.Errorf("claimRepo.GetByID: %w", err)
	}
	return &c, nil
}

func (r *ClaimRepo) ListByClaimant(ctx context.Context, claimantID string, offset, limit int) ([]domain.Claim, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM claims WHERE claimant_id = $1", claimantID); err != nil {
		return nil, 0, fmt.Errorf("claimRepo.ListByClaimant count: %w", err)
	}

	var claims []domain.Claim
	err := r.db.SelectContext(ctx, &claims,
		"SELECT "+claimColumns+` FROM claims
		 WHERE claimant_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		claimantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("claimRepo.ListByClaimant: %w", err)
	}
	return claims, total, nil
}

// ListByStatus returns claims with the given review status, oldest first so
// the adjuster queue is worked in arrival order.
func (r *ClaimRepo) ListByStatus(ctx context.Context, status domain.DecisionStatus, offset, limit int) ([]domain.Claim, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM claims WHERE status = $1", status); err != nil {
		return nil, 0, fmt.Errorf("claimRepo.ListByStatus count: %w", err)
	}

	var claims []domain.Claim
	err := r.db.SelectContext(ctx, &claims,
		"SELECT "+claimColumns+` FROM claims
		 WHERE status = $1
		 ORDER BY created_at ASC LIMIT $2 OFFSET $3`,
		status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("claimRepo.ListByStatus: %w", err)
	}
	return claims, total, nil
}

func (r *ClaimRepo) UpdateReview(ctx context.Context, c *domain.Claim) error {
	c.UpdatedAt = r.now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE claims SET status = $1, reviewed_by = $2, reviewed_at = $3, reviewer_notes = $4, updated_at = $5
		 WHERE id = $6`,
		c.Status, c.ReviewedBy, c.ReviewedAt, c.ReviewerNotes, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("claimRepo.UpdateReview: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("claimRepo.UpdateReview rows: %w", err)
	}
	if rows == 0 {
		return domain.ErrClaimNotFound
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilFields(f []domain.ExtractedField) []domain.ExtractedField {
	if f == nil {
		return []domain.ExtractedField{}
	}
	return f
}
