// Package intake implements the claim intake state machine. A Machine owns one
// ClaimDraft and moves it through type, evidence, details and review until it is
// submitted to the claim repository.
package intake

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"claimintake/internal/domain"
	"claimintake/internal/port"
	"claimintake/internal/reconcile"
)

// Editable field names accepted by SetField.
const (
	FieldClaimType     = "claimType"
	FieldPolicyID      = "policyId"
	FieldClaimedAmount = "claimedAmount"
	FieldIncidentDate  = "incidentDate"
	FieldDescription   = "description"
)

// Deps are the collaborators of a Machine.
type Deps struct {
	Classifier       port.ImageClassifier
	Extractor        port.DocumentExtractor
	Engine           *reconcile.Engine
	Repository       port.ClaimRepository
	Now              func() time.Time
	MaxArtifactBytes int64
}

// Transition is the outcome of Advance or Back. When Advanced is false, Reason
// says why the draft stayed where it is.
type Transition struct {
	Advanced      bool               `json:"advanced"`
	From          domain.Step        `json:"from"`
	To            domain.Step        `json:"to"`
	Reason        domain.BlockReason `json:"reason,omitempty"`
	DetectedLabel string             `json:"detected_label,omitempty"`
	Missing       []string           `json:"missing,omitempty"`
	Message       string             `json:"message,omitempty"`
}

// Receipt is returned by a successful Submit.
type Receipt struct {
	ClaimID  string          `json:"claim_id"`
	Decision domain.Decision `json:"decision"`
}

// Machine is safe for concurrent use. Remote calls run without the lock held;
// their results are applied only if the draft generation is unchanged.
type Machine struct {
	mu       sync.Mutex
	deps     Deps
	id       uuid.UUID
	claimant string
	draft    *domain.ClaimDraft // nil once cancelled
	fetchErr error

	// lastActive is read without mu so idle sweeps never wait on a submit.
	lastActive atomic.Int64
}

// NewMachine starts a new draft for claimantID at the type step.
func NewMachine(claimantID string, deps Deps) *Machine {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	now := deps.Now().UTC()
	draft := &domain.ClaimDraft{
		ID:              uuid.New(),
		SubmissionToken: uuid.New(),
		ClaimantID:      claimantID,
		Step:            domain.StepType,
		Fetch:           domain.FetchState{Status: domain.FetchIdle},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m := &Machine{deps: deps, id: draft.ID, claimant: claimantID, draft: draft}
	m.lastActive.Store(now.UnixNano())
	return m
}

// LastActive returns the time of the last change to the draft.
func (m *Machine) LastActive() time.Time {
	return time.Unix(0, m.lastActive.Load()).UTC()
}

// ID returns the draft ID. It stays valid after Cancel.
func (m *Machine) ID() uuid.UUID { return m.id }

// ClaimantID returns the owner of the draft.
func (m *Machine) ClaimantID() string { return m.claimant }

// Snapshot returns a copy of the current draft.
func (m *Machine) Snapshot() (*domain.ClaimDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return nil, domain.ErrDraftDiscarded
	}
	return m.draft.Clone(), nil
}

// Step returns the current step, or an empty step once cancelled.
func (m *Machine) Step() domain.Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return ""
	}
	return m.draft.Step
}

// Cancel discards the draft. Fetches still in flight are dropped when they return.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return
	}
	log.Printf("intake.Machine.Cancel: draft %s discarded at step %s", m.id, m.draft.Step)
	m.draft = nil
	m.fetchErr = nil
}

// SetClaimType selects the claim type. Changing it after artifacts were
// processed discards their results, since extraction depends on the type.
func (m *Machine) SetClaimType(ct domain.ClaimType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.editable(domain.StepType); err != nil {
		return err
	}
	if _, ok := m.deps.Engine.Profiles().Lookup(ct); !ok {
		return fmt.Errorf("%w: unknown claim type %q", domain.ErrInvalidFieldValue, ct)
	}
	if m.draft.ClaimType == ct {
		return nil
	}
	m.draft.ClaimType = ct
	m.invalidateLocked()
	m.touchLocked()
	return nil
}

// SetPolicyID selects the policy the claim is filed against.
func (m *Machine) SetPolicyID(policyID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.editable(domain.StepType); err != nil {
		return err
	}
	policyID = strings.TrimSpace(policyID)
	if policyID == "" {
		return fmt.Errorf("%w: policy id is empty", domain.ErrInvalidFieldValue)
	}
	m.draft.PolicyID = policyID
	m.touchLocked()
	return nil
}

// SetClaimedAmount sets the amount being claimed. It must be positive.
func (m *Machine) SetClaimedAmount(amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.editable(domain.StepDetails); err != nil {
		return err
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return fmt.Errorf("%w: claimed amount must be greater than zero", domain.ErrInvalidFieldValue)
	}
	cents := math.Round(amount * 100)
	if math.Abs(amount*100-cents) > 1e-6 {
		return fmt.Errorf("%w: claimed amount has more than two decimal places", domain.ErrInvalidFieldValue)
	}
	m.draft.ClaimedAmount = cents / 100
	m.touchLocked()
	return nil
}

// SetIncidentDate sets the incident date. Dates after today are rejected.
func (m *Machine) SetIncidentDate(date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.editable(domain.StepDetails); err != nil {
		return err
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	now := m.deps.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.After(today) {
		return fmt.Errorf("%w: incident date is in the future", domain.ErrInvalidFieldValue)
	}
	m.draft.IncidentDate = &day
	m.touchLocked()
	return nil
}

// SetDescription sets the free-text incident description.
func (m *Machine) SetDescription(description string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.editable(domain.StepDetails); err != nil {
		return err
	}
	m.draft.Description = strings.TrimSpace(description)
	m.touchLocked()
	return nil
}

// SetField sets a field by its wire name, parsing value as needed.
func (m *Machine) SetField(name, value string) error {
	switch name {
	case FieldClaimType:
		return m.SetClaimType(domain.ClaimType(strings.ToLower(strings.TrimSpace(value))))
	case FieldPolicyID:
		return m.SetPolicyID(value)
	case FieldClaimedAmount:
		amount, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%w: claimed amount %q is not a number", domain.ErrInvalidFieldValue, value)
		}
		return m.SetClaimedAmount(amount)
	case FieldIncidentDate:
		date, err := time.Parse(domain.DateLayout, strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: incident date must be YYYY-MM-DD", domain.ErrInvalidFieldValue)
		}
		return m.SetIncidentDate(date)
	case FieldDescription:
		return m.SetDescription(value)
	}
	return fmt.Errorf("%w: %s", domain.ErrUnknownField, name)
}

// Advance tries to move the draft one step forward. Local conditions such as a
// missing selection come back as a blocked Transition with a nil error. A failed
// fetch also returns an error wrapping domain.ErrRemoteServiceFailure. At review,
// Advance submits the draft.
func (m *Machine) Advance(ctx context.Context) (Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return Transition{}, domain.ErrDraftDiscarded
	}

	d := m.draft
	t := Transition{From: d.Step, To: d.Step}
	switch d.Step {
	case domain.StepType:
		var missing []string
		if d.ClaimType == "" {
			missing = append(missing, FieldClaimType)
		}
		if d.PolicyID == "" {
			missing = append(missing, FieldPolicyID)
		}
		if len(missing) > 0 {
			return blocked(t, domain.BlockMissingSelection, missing...), nil
		}

	case domain.StepEvidence:
		if bt, ok, err := m.evidenceGateLocked(t); !ok {
			return bt, err
		}

	case domain.StepDetails:
		if d.ClaimedAmount <= 0 {
			return blocked(t, domain.BlockMissingSelection, FieldClaimedAmount), nil
		}
		decision := m.deps.Engine.Reconcile(d)
		d.Decision = &decision

	case domain.StepReview:
		if _, err := m.submitLocked(ctx); err != nil {
			return t, err
		}
		t.Advanced = true
		t.To = domain.StepSubmitted
		return t, nil

	default:
		return t, fmt.Errorf("%w: draft already submitted", domain.ErrInvalidTransition)
	}

	d.Step = d.Step.Next()
	m.touchLocked()
	t.Advanced = true
	t.To = d.Step
	return t, nil
}

func (m *Machine) evidenceGateLocked(t Transition) (Transition, bool, error) {
	d := m.draft
	var missing []string
	if d.Evidence == nil {
		missing = append(missing, "evidence")
	}
	if d.PolicyDocument == nil {
		missing = append(missing, "policyDocument")
	}
	if len(missing) > 0 {
		return blocked(t, domain.BlockMissingSelection, missing...), false, nil
	}

	switch d.Fetch.Status {
	case domain.FetchIdle:
		bt := blocked(t, domain.BlockFetchRequired)
		bt.Message = "artifacts must be processed again; retry the fetch"
		return bt, false, nil
	case domain.FetchPending:
		return blocked(t, domain.BlockFetchPending), false, nil
	case domain.FetchFailed:
		bt := blocked(t, domain.BlockRemoteFailure)
		bt.Message = d.Fetch.Error
		err := m.fetchErr
		if err == nil {
			err = domain.ErrRemoteServiceFailure
		}
		return bt, false, err
	}

	profile, ok := m.deps.Engine.Profiles().Lookup(d.ClaimType)
	if !ok {
		return blocked(t, domain.BlockMissingSelection, FieldClaimType), false, nil
	}
	verdict := reconcile.CheckEvidence(profile, d.Classification)
	if !verdict.Compatible {
		bt := blocked(t, domain.BlockEvidenceMismatch)
		bt.DetectedLabel = verdict.Label
		bt.Message = verdict.Issue
		return bt, false, nil
	}
	return t, true, nil
}

// Back moves the draft one step backward. Collected data is kept, except that
// leaving review drops the preview decision.
func (m *Machine) Back() (Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return Transition{}, domain.ErrDraftDiscarded
	}

	d := m.draft
	t := Transition{From: d.Step, To: d.Step}
	switch d.Step {
	case domain.StepType:
		return t, fmt.Errorf("%w: already at the first step", domain.ErrInvalidTransition)
	case domain.StepSubmitted:
		return t, fmt.Errorf("%w: draft already submitted", domain.ErrInvalidTransition)
	case domain.StepReview:
		d.Decision = nil
	}

	d.Step = d.Step.Prev()
	m.touchLocked()
	t.Advanced = true
	t.To = d.Step
	return t, nil
}

// Submit recomputes the decision from the current draft and hands it to the
// repository. On failure the draft stays at review and a retry reuses the same
// submission token. Once submitted, further calls return the stored receipt.
func (m *Machine) Submit(ctx context.Context) (Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.draft == nil {
		return Receipt{}, domain.ErrDraftDiscarded
	}
	return m.submitLocked(ctx)
}

func (m *Machine) submitLocked(ctx context.Context) (Receipt, error) {
	d := m.draft
	if d.Step == domain.StepSubmitted {
		return Receipt{ClaimID: d.ClaimID, Decision: *d.Decision.Clone()}, nil
	}
	if d.Step != domain.StepReview {
		return Receipt{}, fmt.Errorf("%w: submit requires the review step, draft is at %s", domain.ErrInvalidTransition, d.Step)
	}

	decision := m.deps.Engine.Reconcile(d)
	d.Decision = &decision

	claimID, err := m.deps.Repository.Submit(ctx, port.SubmitClaimInput{
		Token:    d.SubmissionToken,
		Draft:    d.Clone(),
		Decision: *decision.Clone(),
	})
	if err != nil {
		log.Printf("intake.Machine.Submit: draft %s: repository failed: %v", m.id, err)
		return Receipt{}, fmt.Errorf("%w: %w", domain.ErrRepositoryFailure, err)
	}

	d.ClaimID = claimID
	releaseArtifactData(d)
	d.Step = domain.StepSubmitted
	m.touchLocked()
	log.Printf("intake.Machine.Submit: draft %s submitted as claim %s (%s, %d issues)",
		m.id, claimID, decision.Status, len(decision.Issues))
	return Receipt{ClaimID: claimID, Decision: *decision.Clone()}, nil
}

func (m *Machine) editable(step domain.Step) error {
	if m.draft == nil {
		return domain.ErrDraftDiscarded
	}
	if m.draft.Step != step {
		return fmt.Errorf("%w: draft is at %s", domain.ErrFieldNotEditable, m.draft.Step)
	}
	return nil
}

// invalidateLocked drops fetch results and any decision derived from them, and
// bumps the generation so in-flight fetches are discarded on arrival.
func (m *Machine) invalidateLocked() {
	d := m.draft
	d.Classification = nil
	d.Extraction = nil
	d.Decision = nil
	d.Fetch = domain.FetchState{Generation: d.Fetch.Generation + 1, Status: domain.FetchIdle}
	m.fetchErr = nil
}

func (m *Machine) touchLocked() {
	now := m.deps.Now().UTC()
	m.draft.UpdatedAt = now
	m.lastActive.Store(now.UnixNano())
}

// releaseArtifactData drops uploaded bytes once the claim is persisted. The
// artifact metadata stays for rendering.
func releaseArtifactData(d *domain.ClaimDraft) {
	if d.Evidence != nil {
		d.Evidence.Data = nil
	}
	if d.PolicyDocument != nil {
		d.PolicyDocument.Data = nil
	}
}

func blocked(t Transition, reason domain.BlockReason, missing ...string) Transition {
	t.Advanced = false
	t.Reason = reason
	t.Missing = missing
	return t
}
