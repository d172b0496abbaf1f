// Package reconcile turns a completed claim draft into a categorical decision.
// Reconcile is a pure function of the draft: it reads no clock and keeps no state.
package reconcile

import (
	"fmt"
	"strconv"
	"time"

	"claimintake/internal/domain"
)

// Issue texts that callers and tests match on.
const (
	IssueClaimTypeUnset  = "claim type is not set"
	IssueOverLimit       = "claimed amount exceeds extracted coverage limit"
	IssueNonPositive     = "claimed amount must be greater than zero"
	issueFieldUnresolved = "%s could not be confidently extracted"
	issueLowConfidence   = "evidence classification confidence %s below floor %s"
	issuePolicyExpired   = "policy expired on %s before the incident date"
)

// Policy holds tunable reconciliation thresholds.
type Policy struct {
	// ConfidenceFloor adds an issue when a compatible classification scores below it.
	// Zero disables the check.
	ConfidenceFloor float64
}

// Engine reconciles drafts against the claim type profile table.
type Engine struct {
	profiles domain.ProfileTable
	policy   Policy
}

// NewEngine creates an Engine.
func NewEngine(profiles domain.ProfileTable, policy Policy) *Engine {
	return &Engine{profiles: profiles, policy: policy}
}

// Profiles returns the profile table the engine reconciles against.
func (e *Engine) Profiles() domain.ProfileTable {
	return e.profiles
}

// FieldIssue returns the issue text for an unresolved required field.
func FieldIssue(field string) string {
	return fmt.Sprintf(issueFieldUnresolved, field)
}

// Reconcile computes the decision for d. Any issue yields MANUAL_REVIEW; REJECTED
// is never produced here.
func (e *Engine) Reconcile(d *domain.ClaimDraft) domain.Decision {
	issues := []string{}
	snapshot := []domain.ExtractedField{}
	if d.Extraction != nil {
		snapshot = d.Extraction.Clone().Fields
	}

	profile, ok := e.profiles.Lookup(d.ClaimType)
	if !ok {
		issues = append(issues, IssueClaimTypeUnset)
		return decide(issues, snapshot)
	}

	verdict := CheckEvidence(profile, d.Classification)
	if !verdict.Compatible {
		issues = append(issues, verdict.Issue)
	} else if e.policy.ConfidenceFloor > 0 && d.Classification != nil && profile.RequiresEvidenceLabel() &&
		d.Classification.Confidence < e.policy.ConfidenceFloor {
		issues = append(issues, fmt.Sprintf(issueLowConfidence,
			formatScore(d.Classification.Confidence), formatScore(e.policy.ConfidenceFloor)))
	}

	for _, name := range profile.RequiredFields {
		f, found := d.Extraction.Field(name)
		if !found || f.IsNull() || f.FallbackApplied {
			issues = append(issues, FieldIssue(name))
		}
	}

	if d.ClaimedAmount <= 0 {
		issues = append(issues, IssueNonPositive)
	} else if cov, found := d.Extraction.Field(profile.CoverageField); found && cov.Number != nil && !cov.FallbackApplied {
		if d.ClaimedAmount > *cov.Number {
			issues = append(issues, IssueOverLimit)
		}
	}

	if issue, expired := expiryIssue(profile, d); expired {
		issues = append(issues, issue)
	}

	return decide(issues, snapshot)
}

func decide(issues []string, snapshot []domain.ExtractedField) domain.Decision {
	status := domain.DecisionApproved
	if len(issues) > 0 {
		status = domain.DecisionManualReview
	}
	return domain.Decision{Status: status, Issues: issues, ExtractedSnapshot: snapshot}
}

// expiryIssue compares the policy's end date against the incident date. Both come
// from the draft, so the check stays deterministic.
func expiryIssue(profile domain.ClaimTypeProfile, d *domain.ClaimDraft) (string, bool) {
	if profile.ExpiryField == "" || d.IncidentDate == nil {
		return "", false
	}
	f, found := d.Extraction.Field(profile.ExpiryField)
	if !found || f.Text == nil || f.FallbackApplied {
		return "", false
	}
	validTo, ok := domain.ParsePolicyDate(*f.Text)
	if !ok {
		return "", false
	}
	y, m, day := d.IncidentDate.Date()
	incidentDay := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	if incidentDay.After(validTo) {
		return fmt.Sprintf(issuePolicyExpired, validTo.Format(domain.DateLayout)), true
	}
	return "", false
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
