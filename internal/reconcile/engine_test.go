package reconcile_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimintake/internal/domain"
	"claimintake/internal/reconcile"
)

func textField(name, v string) domain.ExtractedField {
	return domain.ExtractedField{Name: name, Kind: domain.FieldKindText, Text: &v}
}

func numField(name string, v float64) domain.ExtractedField {
	return domain.ExtractedField{Name: name, Kind: domain.FieldKindNumber, Number: &v}
}

func nullField(name string, kind domain.FieldKind) domain.ExtractedField {
	return domain.ExtractedField{Name: name, Kind: kind, FallbackApplied: true}
}

func newEngine() *reconcile.Engine {
	return reconcile.NewEngine(domain.DefaultProfiles(), reconcile.Policy{})
}

func vehicleDraft(amount, idv float64) *domain.ClaimDraft {
	return &domain.ClaimDraft{
		ClaimType:      domain.ClaimTypeVehicle,
		PolicyID:       "POL-1",
		ClaimedAmount:  amount,
		Classification: &domain.ClassificationResult{Label: "vehicle_damage", Confidence: 0.97},
		Extraction: &domain.ExtractionResult{Fields: []domain.ExtractedField{
			textField("policyNumber", "VH-2231"),
			textField("vehicleNumber", "MH12AB1234"),
			nullField("validFrom", domain.FieldKindDate),
			nullField("validTo", domain.FieldKindDate),
			numField("idv", idv),
		}},
	}
}

func TestReconcile_CleanExtractionWithinCoverage(t *testing.T) {
	d := vehicleDraft(5000, 10000)

	dec := newEngine().Reconcile(d)

	assert.Equal(t, domain.DecisionApproved, dec.Status)
	assert.Empty(t, dec.Issues)
	assert.Len(t, dec.ExtractedSnapshot, 5)
}

func TestReconcile_OverCoverage(t *testing.T) {
	d := vehicleDraft(15000, 10000)

	dec := newEngine().Reconcile(d)

	assert.Equal(t, domain.DecisionManualReview, dec.Status)
	assert.Equal(t, []string{"claimed amount exceeds extracted coverage limit"}, dec.Issues)
}

func TestReconcile_AmountEqualToCoverageIsWithinLimit(t *testing.T) {
	dec := newEngine().Reconcile(vehicleDraft(10000, 10000))
	assert.Equal(t, domain.DecisionApproved, dec.Status)
}

func TestReconcile_HealthWithFallbackPolicyNumber(t *testing.T) {
	d := &domain.ClaimDraft{
		ClaimType:      domain.ClaimTypeHealth,
		ClaimedAmount:  1200,
		Classification: &domain.ClassificationResult{Label: "anything", Confidence: 0.2},
		Extraction: &domain.ExtractionResult{Fields: []domain.ExtractedField{
			nullField("policyNumber", domain.FieldKindText),
			textField("memberId", "M-77"),
			numField("sumInsured", 500000),
		}},
	}

	dec := newEngine().Reconcile(d)

	assert.Equal(t, domain.DecisionManualReview, dec.Status)
	assert.Equal(t, []string{"policyNumber could not be confidently extracted"}, dec.Issues)
}

func TestReconcile_FallbackWithValueStillFlagged(t *testing.T) {
	d := vehicleDraft(100, 10000)
	d.Extraction.Fields[0].FallbackApplied = true

	dec := newEngine().Reconcile(d)

	assert.Equal(t, []string{"policyNumber could not be confidently extracted"}, dec.Issues)
}

func TestReconcile_MissingCoverageSkipsLimitCheck(t *testing.T) {
	d := vehicleDraft(999999, 0)
	d.Extraction.Fields[4] = nullField("idv", domain.FieldKindNumber)

	dec := newEngine().Reconcile(d)

	assert.Equal(t, []string{"idv could not be confidently extracted"}, dec.Issues)
}

func TestReconcile_FallbackCoverageSkipsLimitCheck(t *testing.T) {
	d := vehicleDraft(15000, 10000)
	d.Extraction.Fields[4].FallbackApplied = true

	dec := newEngine().Reconcile(d)

	assert.Equal(t, domain.DecisionManualReview, dec.Status)
	assert.Equal(t, []string{"idv could not be confidently extracted"}, dec.Issues)
}

func TestReconcile_NoExtraction(t *testing.T) {
	d := vehicleDraft(100, 1)
	d.Extraction = nil

	dec := newEngine().Reconcile(d)

	assert.Equal(t, domain.DecisionManualReview, dec.Status)
	assert.Equal(t, []string{
		"policyNumber could not be confidently extracted",
		"idv could not be confidently extracted",
	}, dec.Issues)
	assert.NotNil(t, dec.ExtractedSnapshot)
	assert.Empty(t, dec.ExtractedSnapshot)
}

func TestReconcile_EvidenceMismatchIsRecheckedDefensively(t *testing.T) {
	d := vehicleDraft(100, 1000)
	d.Classification = &domain.ClassificationResult{Label: "non_vehicle_damage", Confidence: 0.91}

	dec := newEngine().Reconcile(d)

	assert.Equal(t, domain.DecisionManualReview, dec.Status)
	require.Len(t, dec.Issues, 1)
	assert.Contains(t, dec.Issues[0], "non_vehicle_damage")
	assert.Contains(t, dec.Issues[0], "vehicle_damage")
}

func TestReconcile_MissingClassificationForLabelledType(t *testing.T) {
	d := vehicleDraft(100, 1000)
	d.Classification = nil

	dec := newEngine().Reconcile(d)

	assert.Equal(t, []string{"evidence classification unavailable"}, dec.Issues)
}

func TestReconcile_ZeroConfidenceMatchingLabelWithoutFloor(t *testing.T) {
	d := vehicleDraft(100, 1000)
	d.Classification = &domain.ClassificationResult{Label: "Vehicle Damage", Confidence: 0}

	dec := newEngine().Reconcile(d)

	assert.Equal(t, domain.DecisionApproved, dec.Status)
	assert.Empty(t, dec.Issues)
}

func TestReconcile_ConfidenceFloor(t *testing.T) {
	engine := reconcile.NewEngine(domain.DefaultProfiles(), reconcile.Policy{ConfidenceFloor: 0.5})
	d := vehicleDraft(100, 1000)
	d.Classification = &domain.ClassificationResult{Label: "vehicle_damage", Confidence: 0.3}

	dec := engine.Reconcile(d)

	assert.Equal(t, domain.DecisionManualReview, dec.Status)
	assert.Equal(t, []string{"evidence classification confidence 0.3 below floor 0.5"}, dec.Issues)
}

func TestReconcile_ConfidenceFloorIgnoredForUnlabelledTypes(t *testing.T) {
	engine := reconcile.NewEngine(domain.DefaultProfiles(), reconcile.Policy{ConfidenceFloor: 0.9})
	d := &domain.ClaimDraft{
		ClaimType:      domain.ClaimTypeLife,
		ClaimedAmount:  10,
		Classification: &domain.ClassificationResult{Label: "whatever", Confidence: 0.01},
		Extraction: &domain.ExtractionResult{Fields: []domain.ExtractedField{
			textField("policyNumber", "LF-1"),
			numField("sumAssured", 100),
		}},
	}

	dec := engine.Reconcile(d)

	assert.Equal(t, domain.DecisionApproved, dec.Status)
}

func TestReconcile_NonPositiveAmount(t *testing.T) {
	dec := newEngine().Reconcile(vehicleDraft(0, 1000))
	assert.Equal(t, []string{reconcile.IssueNonPositive}, dec.Issues)
}

func TestReconcile_UnsetClaimType(t *testing.T) {
	dec := newEngine().Reconcile(&domain.ClaimDraft{ClaimedAmount: 10})
	assert.Equal(t, domain.DecisionManualReview, dec.Status)
	assert.Equal(t, []string{reconcile.IssueClaimTypeUnset}, dec.Issues)
}

func TestReconcile_PolicyExpiredBeforeIncident(t *testing.T) {
	d := vehicleDraft(100, 1000)
	d.Extraction.Fields[3] = textField("validTo", "31/03/2024")
	incident := time.Date(2024, 4, 2, 15, 0, 0, 0, time.UTC)
	d.IncidentDate = &incident

	dec := newEngine().Reconcile(d)

	assert.Equal(t, domain.DecisionManualReview, dec.Status)
	assert.Equal(t, []string{"policy expired on 2024-03-31 before the incident date"}, dec.Issues)
}

func TestReconcile_IncidentOnExpiryDayIsCovered(t *testing.T) {
	d := vehicleDraft(100, 1000)
	d.Extraction.Fields[3] = textField("validTo", "2024-03-31")
	incident := time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)
	d.IncidentDate = &incident

	dec := newEngine().Reconcile(d)

	assert.Equal(t, domain.DecisionApproved, dec.Status)
}

func TestReconcile_IssueOrder(t *testing.T) {
	d := vehicleDraft(50000, 1000)
	d.Classification = &domain.ClassificationResult{Label: "home_damage", Confidence: 0.8}
	d.Extraction.Fields[0] = nullField("policyNumber", domain.FieldKindText)

	dec := newEngine().Reconcile(d)

	require.Len(t, dec.Issues, 3)
	assert.Contains(t, dec.Issues[0], "home_damage")
	assert.Equal(t, "policyNumber could not be confidently extracted", dec.Issues[1])
	assert.Equal(t, reconcile.IssueOverLimit, dec.Issues[2])
}

func TestReconcile_SnapshotIsIndependent(t *testing.T) {
	d := vehicleDraft(5000, 10000)

	dec := newEngine().Reconcile(d)
	*d.Extraction.Fields[4].Number = 1
	d.Extraction.Fields[0] = nullField("policyNumber", domain.FieldKindText)

	require.NotNil(t, dec.ExtractedSnapshot[4].Number)
	assert.Equal(t, 10000.0, *dec.ExtractedSnapshot[4].Number)
	assert.Equal(t, "VH-2231", *dec.ExtractedSnapshot[0].Text)
}

func TestReconcile_IsRepeatable(t *testing.T) {
	engine := newEngine()
	d := vehicleDraft(15000, 10000)

	first := engine.Reconcile(d)
	second := engine.Reconcile(d)

	assert.Equal(t, first, second)
}
