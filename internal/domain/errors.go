package domain

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrMissingSelection     = errors.New("required selection is missing")
	ErrEvidenceMismatch     = errors.New("evidence does not match the declared claim type")
	ErrRemoteServiceFailure = errors.New("remote inference service failed")
	ErrRepositoryFailure    = errors.New("claim repository failed")
	ErrUnsupportedArtifact  = errors.New("unsupported artifact type")
	ErrArtifactTooLarge     = errors.New("artifact exceeds maximum allowed size")
	ErrMalformedResponse    = errors.New("malformed response from remote service")
	ErrInvalidTransition    = errors.New("transition not allowed from the current step")
	ErrFieldNotEditable     = errors.New("field cannot be edited on the current step")
	ErrInvalidFieldValue    = errors.New("invalid field value")
	ErrUnknownField         = errors.New("unknown field")
	ErrDraftDiscarded       = errors.New("draft has been discarded")
	ErrFetchSuperseded      = errors.New("fetch superseded by a newer upload")
	ErrDraftNotFound        = errors.New("draft not found")
	ErrClaimNotFound        = errors.New("claim not found")
	ErrInvalidReviewStatus  = errors.New("invalid review status")
)

// RemoteFailure reports which of the two inference calls failed during a fetch.
// It matches ErrRemoteServiceFailure under errors.Is.
type RemoteFailure struct {
	ClassificationErr error
	ExtractionErr     error
}

func (e *RemoteFailure) Error() string {
	switch {
	case e.ClassificationErr != nil && e.ExtractionErr != nil:
		return "classification failed: " + e.ClassificationErr.Error() + "; extraction failed: " + e.ExtractionErr.Error()
	case e.ClassificationErr != nil:
		return "classification failed: " + e.ClassificationErr.Error()
	case e.ExtractionErr != nil:
		return "extraction failed: " + e.ExtractionErr.Error()
	}
	return ErrRemoteServiceFailure.Error()
}

func (e *RemoteFailure) Unwrap() []error {
	errs := []error{ErrRemoteServiceFailure}
	if e.ClassificationErr != nil {
		errs = append(errs, e.ClassificationErr)
	}
	if e.ExtractionErr != nil {
		errs = append(errs, e.ExtractionErr)
	}
	return errs
}
