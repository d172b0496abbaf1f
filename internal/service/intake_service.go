package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"claimintake/internal/domain"
	"claimintake/internal/intake"
)

// TransitionResult pairs a step transition with the draft after it.
type TransitionResult struct {
	Transition intake.Transition  `json:"transition"`
	Draft      *domain.ClaimDraft `json:"draft"`
}

// IntakeService hosts one intake state machine per draft and enforces that
// only the claimant who started a draft can drive it.
type IntakeService interface {
	Start(ctx context.Context, claimantID string) (*domain.ClaimDraft, error)
	Get(ctx context.Context, claimantID string, draftID uuid.UUID) (*domain.ClaimDraft, error)
	SetField(ctx context.Context, claimantID string, draftID uuid.UUID, name, value string) (*domain.ClaimDraft, error)
	AttachEvidence(ctx context.Context, claimantID string, draftID uuid.UUID, upload intake.ArtifactUpload) (*domain.ClaimDraft, error)
	AttachPolicyDocument(ctx context.Context, claimantID string, draftID uuid.UUID, upload intake.ArtifactUpload) (*domain.ClaimDraft, error)
	RetryFetch(ctx context.Context, claimantID string, draftID uuid.UUID) (*domain.ClaimDraft, error)
	Advance(ctx context.Context, claimantID string, draftID uuid.UUID) (*TransitionResult, error)
	Back(ctx context.Context, claimantID string, draftID uuid.UUID) (*TransitionResult, error)
	Submit(ctx context.Context, claimantID string, draftID uuid.UUID) (*intake.Receipt, error)
	Cancel(ctx context.Context, claimantID string, draftID uuid.UUID) error
	// SweepIdle discards drafts with no activity for longer than the draft TTL
	// and returns how many were removed.
	SweepIdle() int
}

type intakeService struct {
	deps     intake.Deps
	draftTTL time.Duration
	now      func() time.Time
	mu       sync.RWMutex
	sessions map[uuid.UUID]*intake.Machine
}

// NewIntakeService creates a new IntakeService. deps is shared by every draft.
// Drafts idle for longer than draftTTL are discarded; a zero TTL keeps them
// until cancelled.
func NewIntakeService(deps intake.Deps, draftTTL time.Duration) IntakeService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &intakeService{
		deps:     deps,
		draftTTL: draftTTL,
		now:      now,
		sessions: make(map[uuid.UUID]*intake.Machine),
	}
}

func (s *intakeService) Start(_ context.Context, claimantID string) (*domain.ClaimDraft, error) {
	if claimantID == "" {
		return nil, domain.ErrUnauthorized
	}
	m := intake.NewMachine(claimantID, s.deps)

	s.mu.Lock()
	expired := s.sweepLocked()
	s.sessions[m.ID()] = m
	s.mu.Unlock()
	discard(expired, s.draftTTL)

	log.Printf("service.IntakeService.Start: draft %s started by %s", m.ID(), claimantID)
	return m.Snapshot()
}

// machine looks up a draft owned by claimantID. Drafts owned by someone else
// are reported as missing.
func (s *intakeService) machine(claimantID string, draftID uuid.UUID) (*intake.Machine, error) {
	s.mu.RLock()
	m, ok := s.sessions[draftID]
	s.mu.RUnlock()
	if !ok || m.ClaimantID() != claimantID {
		return nil, domain.ErrDraftNotFound
	}
	return m, nil
}

func (s *intakeService) Get(_ context.Context, claimantID string, draftID uuid.UUID) (*domain.ClaimDraft, error) {
	m, err := s.machine(claimantID, draftID)
	if err != nil {
		return nil, err
	}
	return m.Snapshot()
}

func (s *intakeService) SetField(_ context.Context, claimantID string, draftID uuid.UUID, name, value string) (*domain.ClaimDraft, error) {
	m, err := s.machine(claimantID, draftID)
	if err != nil {
		return nil, err
	}
	if err := m.SetField(name, value); err != nil {
		return nil, err
	}
	return m.Snapshot()
}

func (s *intakeService) AttachEvidence(ctx context.Context, claimantID string, draftID uuid.UUID, upload intake.ArtifactUpload) (*domain.ClaimDraft, error) {
	m, err := s.machine(claimantID, draftID)
	if err != nil {
		return nil, err
	}
	if err := m.AttachEvidence(ctx, upload); err != nil {
		return nil, err
	}
	return m.Snapshot()
}

func (s *intakeService) AttachPolicyDocument(ctx context.Context, claimantID string, draftID uuid.UUID, upload intake.ArtifactUpload) (*domain.ClaimDraft, error) {
	m, err := s.machine(claimantID, draftID)
	if err != nil {
		return nil, err
	}
	if err := m.AttachPolicyDocument(ctx, upload); err != nil {
		return nil, err
	}
	return m.Snapshot()
}

func (s *intakeService) RetryFetch(ctx context.Context, claimantID string, draftID uuid.UUID) (*domain.ClaimDraft, error) {
	m, err := s.machine(claimantID, draftID)
	if err != nil {
		return nil, err
	}
	if err := m.RetryFetch(ctx); err != nil {
		return nil, err
	}
	return m.Snapshot()
}

func (s *intakeService) Advance(ctx context.Context, claimantID string, draftID uuid.UUID) (*TransitionResult, error) {
	m, err := s.machine(claimantID, draftID)
	if err != nil {
		return nil, err
	}
	t, err := m.Advance(ctx)
	if err != nil {
		return nil, err
	}
	return s.result(m, t)
}

func (s *intakeService) Back(_ context.Context, claimantID string, draftID uuid.UUID) (*TransitionResult, error) {
	m, err := s.machine(claimantID, draftID)
	if err != nil {
		return nil, err
	}
	t, err := m.Back()
	if err != nil {
		return nil, err
	}
	return s.result(m, t)
}

func (s *intakeService) result(m *intake.Machine, t intake.Transition) (*TransitionResult, error) {
	draft, err := m.Snapshot()
	if err != nil {
		return nil, err
	}
	return &TransitionResult{Transition: t, Draft: draft}, nil
}

func (s *intakeService) Submit(ctx context.Context, claimantID string, draftID uuid.UUID) (*intake.Receipt, error) {
	m, err := s.machine(claimantID, draftID)
	if err != nil {
		return nil, err
	}
	receipt, err := m.Submit(ctx)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (s *intakeService) Cancel(_ context.Context, claimantID string, draftID uuid.UUID) error {
	m, err := s.machine(claimantID, draftID)
	if err != nil {
		return err
	}
	m.Cancel()

	s.mu.Lock()
	delete(s.sessions, draftID)
	s.mu.Unlock()
	return nil
}

func (s *intakeService) SweepIdle() int {
	s.mu.Lock()
	expired := s.sweepLocked()
	s.mu.Unlock()
	return discard(expired, s.draftTTL)
}

// sweepLocked unlinks drafts idle for longer than the TTL. The caller cancels
// them after releasing s.mu, since a cancel waits for any in-flight submit.
func (s *intakeService) sweepLocked() []*intake.Machine {
	if s.draftTTL <= 0 {
		return nil
	}
	cutoff := s.now().Add(-s.draftTTL)
	var expired []*intake.Machine
	for id, m := range s.sessions {
		if m.LastActive().Before(cutoff) {
			delete(s.sessions, id)
			expired = append(expired, m)
		}
	}
	return expired
}

func discard(expired []*intake.Machine, ttl time.Duration) int {
	for _, m := range expired {
		m.Cancel()
	}
	if len(expired) > 0 {
		log.Printf("service.IntakeService.SweepIdle: discarded %d drafts idle for over %s", len(expired), ttl)
	}
	return len(expired)
}
