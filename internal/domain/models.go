package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Artifact is an uploaded file held by a draft. Data is never serialized.
type Artifact struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// ClassificationResult is the image classifier's verdict on the evidence artifact.
type ClassificationResult struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ExtractedField is one field of the per-type fixed schema. A field with neither
// Text nor Number set is null.
type ExtractedField struct {
	Name            string    `json:"name"`
	Kind            FieldKind `json:"kind"`
	Text            *string   `json:"text,omitempty"`
	Number          *float64  `json:"number,omitempty"`
	FallbackApplied bool      `json:"fallback_applied"`
}

// IsNull reports whether the field carries no value.
func (f ExtractedField) IsNull() bool {
	return f.Text == nil && f.Number == nil
}

// Clone returns a copy that shares no pointers with f.
func (f ExtractedField) Clone() ExtractedField {
	out := f
	if f.Text != nil {
		s := *f.Text
		out.Text = &s
	}
	if f.Number != nil {
		n := *f.Number
		out.Number = &n
	}
	return out
}

// ExtractionResult is the document extractor's output, ordered by the type's schema.
type ExtractionResult struct {
	Fields  []ExtractedField `json:"fields"`
	RawText string           `json:"raw_text,omitempty"`
}

// Field looks up a field by name.
func (r *ExtractionResult) Field(name string) (ExtractedField, bool) {
	if r == nil {
		return ExtractedField{}, false
	}
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return ExtractedField{}, false
}

// Clone deep-copies the result.
func (r *ExtractionResult) Clone() *ExtractionResult {
	if r == nil {
		return nil
	}
	out := &ExtractionResult{RawText: r.RawText, Fields: make([]ExtractedField, len(r.Fields))}
	for i, f := range r.Fields {
		out.Fields[i] = f.Clone()
	}
	return out
}

// Decision is the reconciliation outcome. ExtractedSnapshot is frozen at decision
// time and never aliases the live extraction.
type Decision struct {
	Status            DecisionStatus   `json:"status"`
	Issues            []string         `json:"issues"`
	ExtractedSnapshot []ExtractedField `json:"extracted_snapshot"`
}

// Clone deep-copies the decision.
func (d *Decision) Clone() *Decision {
	if d == nil {
		return nil
	}
	out := &Decision{
		Status:            d.Status,
		Issues:            append([]string{}, d.Issues...),
		ExtractedSnapshot: make([]ExtractedField, len(d.ExtractedSnapshot)),
	}
	for i, f := range d.ExtractedSnapshot {
		out.ExtractedSnapshot[i] = f.Clone()
	}
	return out
}

// FetchState exposes the progress of the latest classification/extraction fetch.
type FetchState struct {
	Generation uint64      `json:"generation"`
	Status     FetchStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
}

// ClaimDraft is the in-progress claim owned by a single intake flow.
type ClaimDraft struct {
	ID              uuid.UUID             `json:"id"`
	SubmissionToken uuid.UUID             `json:"-"`
	ClaimantID      string                `json:"claimant_id"`
	ClaimType       ClaimType             `json:"claim_type,omitempty"`
	PolicyID        string                `json:"policy_id,omitempty"`
	Evidence        *Artifact             `json:"evidence,omitempty"`
	PolicyDocument  *Artifact             `json:"policy_document,omitempty"`
	ClaimedAmount   float64               `json:"claimed_amount,omitempty"`
	IncidentDate    *time.Time            `json:"incident_date,omitempty"`
	Description     string                `json:"description,omitempty"`
	Classification  *ClassificationResult `json:"classification,omitempty"`
	Extraction      *ExtractionResult     `json:"extraction,omitempty"`
	Decision        *Decision             `json:"decision,omitempty"`
	Step            Step                  `json:"step"`
	Fetch           FetchState            `json:"fetch"`
	ClaimID         string                `json:"claim_id,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// HasArtifacts reports whether both evidence and policy document are attached.
func (d *ClaimDraft) HasArtifacts() bool {
	return d.Evidence != nil && d.PolicyDocument != nil
}

// Clone returns a copy safe to hand outside the owning state machine.
// Artifact bytes are shared since they are never mutated after upload.
func (d *ClaimDraft) Clone() *ClaimDraft {
	out := *d
	if d.Evidence != nil {
		a := *d.Evidence
		out.Evidence = &a
	}
	if d.PolicyDocument != nil {
		a := *d.PolicyDocument
		out.PolicyDocument = &a
	}
	if d.IncidentDate != nil {
		t := *d.IncidentDate
		out.IncidentDate = &t
	}
	if d.Classification != nil {
		c := *d.Classification
		out.Classification = &c
	}
	out.Extraction = d.Extraction.Clone()
	out.Decision = d.Decision.Clone()
	return &out
}

// Claim is a submitted claim as persisted by the repository.
type Claim struct {
	ID                       string          `db:"id" json:"id"`
	SubmissionToken          uuid.UUID       `db:"submission_token" json:"-"`
	ClaimantID               string          `db:"claimant_id" json:"claimant_id"`
	ClaimType                ClaimType       `db:"claim_type" json:"claim_type"`
	PolicyID                 string          `db:"policy_id" json:"policy_id"`
	ClaimedAmount            float64         `db:"claimed_amount" json:"claimed_amount"`
	IncidentDate             *time.Time      `db:"incident_date" json:"incident_date"`
	Description              string          `db:"description" json:"description"`
	DecisionStatus           DecisionStatus  `db:"decision_status" json:"decision_status"`
	Issues                   json.RawMessage `db:"issues" json:"issues"`
	ExtractedSnapshot        json.RawMessage `db:"extracted_snapshot" json:"extracted_snapshot"`
	ClassificationLabel      *string         `db:"classification_label" json:"classification_label"`
	ClassificationConfidence *float64        `db:"classification_confidence" json:"classification_confidence"`
	EvidenceKey              string          `db:"evidence_key" json:"-"`
	PolicyDocumentKey        string          `db:"policy_document_key" json:"-"`
	Status                   DecisionStatus  `db:"status" json:"status"`
	ReviewedBy               *string         `db:"reviewed_by" json:"reviewed_by"`
	ReviewedAt               *time.Time      `db:"reviewed_at" json:"reviewed_at"`
	ReviewerNotes            string          `db:"reviewer_notes" json:"reviewer_notes"`
	CreatedAt                time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt                time.Time       `db:"updated_at" json:"updated_at"`
}
