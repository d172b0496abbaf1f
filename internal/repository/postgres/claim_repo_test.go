package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimintake/internal/domain"
	"claimintake/internal/port"
	"claimintake/internal/repository/postgres"
)

var columns = []string{
	"id", "submission_token", "claimant_id", "claim_type", "policy_id", "claimed_amount",
	"incident_date", "description", "decision_status", "issues", "extracted_snapshot",
	"classification_label", "classification_confidence", "evidence_key", "policy_document_key",
	"status", "reviewed_by", "reviewed_at", "reviewer_notes", "created_at", "updated_at",
}

func newRepo(t *testing.T) (*postgres.ClaimRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return postgres.NewClaimRepo(sqlx.NewDb(db, "sqlmock")), mock
}

func submitInput() port.SubmitClaimInput {
	incident := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	return port.SubmitClaimInput{
		Token: uuid.MustParse("0a3f1c9e-7b52-4d8e-a1f0-3c6e9d2b4f81"),
		Draft: &domain.ClaimDraft{
			ClaimantID:     "alice",
			ClaimType:      domain.ClaimTypeVehicle,
			PolicyID:       "POL-1",
			ClaimedAmount:  5000,
			IncidentDate:   &incident,
			Classification: &domain.ClassificationResult{Label: "vehicle_damage", Confidence: 0.9},
		},
		Decision:    domain.Decision{Status: domain.DecisionApproved, Issues: []string{}},
		EvidenceKey: "claims/0a3f1c9e-7b52-4d8e-a1f0-3c6e9d2b4f81/evidence.png",
	}
}

func TestClaimRepo_Submit_Inserts(t *testing.T) {
	repo, mock := newRepo(t)
	in := submitInput()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO claims")).
		WithArgs(in.Token.String(), "alice", "vehicle", "POL-1", 5000.0, sqlmock.AnyArg(),
			"", "APPROVED", []byte("[]"), []byte("[]"), "vehicle_damage",
			0.9, in.EvidenceKey, "", "APPROVED", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("CLM-2024-000001"))

	id, err := repo.Submit(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "CLM-2024-000001", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepo_Submit_DuplicateTokenReturnsExistingID(t *testing.T) {
	repo, mock := newRepo(t)
	in := submitInput()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (submission_token) DO NOTHING")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM claims WHERE submission_token = $1")).
		WithArgs(in.Token.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("CLM-2024-000001"))

	id, err := repo.Submit(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, "CLM-2024-000001", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepo_Submit_DatabaseError(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO claims")).WillReturnError(errors.New("connection refused"))

	_, err := repo.Submit(context.Background(), submitInput())

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepo_GetByID(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM claims WHERE id = $1")).
		WithArgs("CLM-2024-000001").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"CLM-2024-000001", "0a3f1c9e-7b52-4d8e-a1f0-3c6e9d2b4f81", "alice", "vehicle", "POL-1", 5000.0,
			now, "", "MANUAL_REVIEW", []byte(`["claimed amount exceeds extracted coverage limit"]`), []byte("[]"),
			"vehicle_damage", 0.9, "claims/x/evidence.png", "", "MANUAL_REVIEW", nil, nil, "", now, now,
		))

	c, err := repo.GetByID(context.Background(), "CLM-2024-000001")

	require.NoError(t, err)
	assert.Equal(t, "alice", c.ClaimantID)
	assert.Equal(t, domain.DecisionManualReview, c.Status)
	assert.JSONEq(t, `["claimed amount exceeds extracted coverage limit"]`, string(c.Issues))
	require.NotNil(t, c.ClassificationLabel)
	assert.Equal(t, "vehicle_damage", *c.ClassificationLabel)
	assert.Nil(t, c.ReviewedBy)
}

func TestClaimRepo_GetByID_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM claims WHERE id = $1")).
		WithArgs("CLM-missing").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.GetByID(context.Background(), "CLM-missing")

	assert.ErrorIs(t, err, domain.ErrClaimNotFound)
}

func TestClaimRepo_ListByStatus(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM claims WHERE status = $1")).
		WithArgs("MANUAL_REVIEW").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC LIMIT $2 OFFSET $3")).
		WithArgs("MANUAL_REVIEW", 20, 0).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"CLM-2024-000002", "5b7e2a10-2c1d-4f3e-8a9b-6d0c1e2f3a4b", "bob", "home", "POL-2", 900.0,
			nil, "leak", "MANUAL_REVIEW", []byte(`["sumInsured could not be confidently extracted"]`), []byte("[]"),
			nil, nil, "", "", "MANUAL_REVIEW", nil, nil, "", now, now,
		))

	claims, total, err := repo.ListByStatus(context.Background(), domain.DecisionManualReview, 0, 20)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, claims, 1)
	assert.Nil(t, claims[0].IncidentDate)
	assert.Equal(t, "bob", claims[0].ClaimantID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRepo_ListByClaimant(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM claims WHERE claimant_id = $1")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs("alice", 10, 0).
		WillReturnRows(sqlmock.NewRows(columns))

	claims, total, err := repo.ListByClaimant(context.Background(), "alice", 0, 10)

	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, claims)
}

func TestClaimRepo_UpdateReview(t *testing.T) {
	repo, mock := newRepo(t)
	reviewer := "adjuster-1"
	at := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	c := &domain.Claim{ID: "CLM-2024-000001", Status: domain.DecisionRejected, ReviewedBy: &reviewer, ReviewedAt: &at, ReviewerNotes: "lapsed"}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE claims SET status = $1")).
		WithArgs("REJECTED", "adjuster-1", at, "lapsed", sqlmock.AnyArg(), "CLM-2024-000001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateReview(context.Background(), c))
	assert.False(t, c.UpdatedAt.IsZero())

	mock.ExpectExec(regexp.QuoteMeta("UPDATE claims SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateReview(context.Background(), c), domain.ErrClaimNotFound)
}
