package intake

import (
	"context"
	"fmt"
	"log"
	"sync"

	"claimintake/internal/domain"
	"claimintake/internal/port"
)

// AttachEvidence stores the evidence image. When the policy document is
// already attached, it runs the classification and extraction fetch and
// returns once both calls have settled.
func (m *Machine) AttachEvidence(ctx context.Context, up ArtifactUpload) error {
	a, err := buildArtifact(up, domain.EvidenceArtifactTypes, m.deps.MaxArtifactBytes)
	if err != nil {
		return err
	}
	return m.attach(ctx, func(d *domain.ClaimDraft) { d.Evidence = a })
}

// AttachPolicyDocument stores the policy document (image or PDF) and runs the
// fetch like AttachEvidence.
func (m *Machine) AttachPolicyDocument(ctx context.Context, up ArtifactUpload) error {
	a, err := buildArtifact(up, policyDocumentTypes(), m.deps.MaxArtifactBytes)
	if err != nil {
		return err
	}
	return m.attach(ctx, func(d *domain.ClaimDraft) { d.PolicyDocument = a })
}

// RetryFetch reruns the fetch over the artifacts already attached. It is the
// recovery path after a remote failure or a change of claim type.
func (m *Machine) RetryFetch(ctx context.Context) error {
	return m.attach(ctx, nil)
}

func (m *Machine) attach(ctx context.Context, set func(*domain.ClaimDraft)) error {
	m.mu.Lock()
	if err := m.editable(domain.StepEvidence); err != nil {
		m.mu.Unlock()
		return err
	}
	d := m.draft
	if set != nil {
		set(d)
	} else if !d.HasArtifacts() {
		m.mu.Unlock()
		return fmt.Errorf("%w: both artifacts are needed before a fetch", domain.ErrMissingSelection)
	}

	m.invalidateLocked()
	m.touchLocked()
	if !d.HasArtifacts() {
		m.mu.Unlock()
		return nil
	}

	profile, ok := m.deps.Engine.Profiles().Lookup(d.ClaimType)
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: claim type not set", domain.ErrMissingSelection)
	}
	d.Fetch.Status = domain.FetchPending
	job := fetchJob{
		generation: d.Fetch.Generation,
		evidence:   port.NewArtifactInput(d.Evidence),
		policy:     port.NewArtifactInput(d.PolicyDocument),
		endpoint:   profile.ExtractionEndpoint,
	}
	m.mu.Unlock()

	out := m.fetch(ctx, job)
	return m.apply(job.generation, out)
}

type fetchJob struct {
	generation uint64
	evidence   port.ArtifactInput
	policy     port.ArtifactInput
	endpoint   string
}

type fetchOutcome struct {
	classification *domain.ClassificationResult
	classifyErr    error
	extraction     *domain.ExtractionResult
	extractErr     error
}

// fetch runs both remote calls in parallel and waits for both to settle.
func (m *Machine) fetch(ctx context.Context, job fetchJob) fetchOutcome {
	type classifyResult struct {
		out *domain.ClassificationResult
		err error
	}
	type extractResult struct {
		out *domain.ExtractionResult
		err error
	}

	var wg sync.WaitGroup
	classifyCh := make(chan classifyResult, 1)
	extractCh := make(chan extractResult, 1)

	wg.Add(2)
	go func() {
		defer wg.Done()
		out, err := m.deps.Classifier.Classify(ctx, job.evidence)
		classifyCh <- classifyResult{out, err}
	}()
	go func() {
		defer wg.Done()
		out, err := m.deps.Extractor.Extract(ctx, job.policy, job.endpoint)
		extractCh <- extractResult{out, err}
	}()

	wg.Wait()
	close(classifyCh)
	close(extractCh)

	c := <-classifyCh
	e := <-extractCh
	if c.err == nil && c.out == nil {
		c.err = fmt.Errorf("%w: empty classification", domain.ErrMalformedResponse)
	}
	if e.err == nil && e.out == nil {
		e.err = fmt.Errorf("%w: empty extraction", domain.ErrMalformedResponse)
	}
	return fetchOutcome{classification: c.out, classifyErr: c.err, extraction: e.out, extractErr: e.err}
}

// apply writes a fetch outcome to the draft if it is still current. Both
// results are written together or not at all.
func (m *Machine) apply(generation uint64, out fetchOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.draft == nil {
		log.Printf("intake.Machine.apply: draft %s discarded, dropping fetch %d", m.id, generation)
		return domain.ErrDraftDiscarded
	}
	d := m.draft
	if d.Fetch.Generation != generation {
		log.Printf("intake.Machine.apply: draft %s fetch %d superseded by %d", m.id, generation, d.Fetch.Generation)
		return domain.ErrFetchSuperseded
	}

	if out.classifyErr != nil || out.extractErr != nil {
		failure := &domain.RemoteFailure{ClassificationErr: out.classifyErr, ExtractionErr: out.extractErr}
		d.Fetch.Status = domain.FetchFailed
		d.Fetch.Error = failure.Error()
		m.fetchErr = failure
		m.touchLocked()
		log.Printf("intake.Machine.apply: draft %s fetch %d failed: %v", m.id, generation, failure)
		return failure
	}

	c := *out.classification
	d.Classification = &c
	d.Extraction = out.extraction.Clone()
	d.Fetch.Status = domain.FetchReady
	d.Fetch.Error = ""
	m.fetchErr = nil
	m.touchLocked()
	log.Printf("intake.Machine.apply: draft %s fetch %d ready (label=%s)", m.id, generation, c.Label)
	return nil
}
