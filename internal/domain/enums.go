package domain

// ClaimType is the category of claim being filed.
type ClaimType string

const (
	ClaimTypeVehicle ClaimType = "vehicle"
	ClaimTypeHome    ClaimType = "home"
	ClaimTypeHealth  ClaimType = "health"
	ClaimTypeLife    ClaimType = "life"
)

// ValidClaimTypes is the set of claim types accepted at intake.
var ValidClaimTypes = map[ClaimType]bool{
	ClaimTypeVehicle: true,
	ClaimTypeHome:    true,
	ClaimTypeHealth:  true,
	ClaimTypeLife:    true,
}

// Step is a stage of the intake flow.
type Step string

const (
	StepType      Step = "type"
	StepEvidence  Step = "evidence"
	StepDetails   Step = "details"
	StepReview    Step = "review"
	StepSubmitted Step = "submitted"
)

// Next returns the forward neighbour of s. Terminal steps return themselves.
func (s Step) Next() Step {
	switch s {
	case StepType:
		return StepEvidence
	case StepEvidence:
		return StepDetails
	case StepDetails:
		return StepReview
	case StepReview:
		return StepSubmitted
	}
	return s
}

// Prev returns the backward neighbour of s. The first and terminal steps return themselves.
func (s Step) Prev() Step {
	switch s {
	case StepEvidence:
		return StepType
	case StepDetails:
		return StepEvidence
	case StepReview:
		return StepDetails
	}
	return s
}

// DecisionStatus is the categorical outcome attached to a claim.
type DecisionStatus string

const (
	DecisionApproved     DecisionStatus = "APPROVED"
	DecisionRejected     DecisionStatus = "REJECTED"
	DecisionManualReview DecisionStatus = "MANUAL_REVIEW"
)

// ValidReviewStatuses are the statuses an adjuster may set on a persisted claim.
var ValidReviewStatuses = map[DecisionStatus]bool{
	DecisionApproved:     true,
	DecisionRejected:     true,
	DecisionManualReview: true,
}

// BlockReason explains why a transition did not advance.
type BlockReason string

const (
	BlockNone             BlockReason = ""
	BlockMissingSelection BlockReason = "MISSING_SELECTION"
	BlockEvidenceMismatch BlockReason = "EVIDENCE_MISMATCH"
	BlockRemoteFailure    BlockReason = "REMOTE_SERVICE_FAILURE"
	BlockFetchPending     BlockReason = "FETCH_PENDING"
	BlockFetchRequired    BlockReason = "FETCH_REQUIRED"
)

// FetchStatus tracks the state of the concurrent classification/extraction fetch.
type FetchStatus string

const (
	FetchIdle    FetchStatus = "idle"
	FetchPending FetchStatus = "pending"
	FetchReady   FetchStatus = "ready"
	FetchFailed  FetchStatus = "failed"
)

// FieldKind is the value kind of an extracted field.
type FieldKind string

const (
	FieldKindText   FieldKind = "text"
	FieldKindNumber FieldKind = "number"
	FieldKindDate   FieldKind = "date"
)

// AllowedArtifactTypes maps accepted MIME types to a short name.
var AllowedArtifactTypes = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/webp":      "webp",
	"application/pdf": "pdf",
}

// EvidenceArtifactTypes are the MIME types the image classifier accepts.
var EvidenceArtifactTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}
