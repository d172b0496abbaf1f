package port

import (
	"context"

	"claimintake/internal/domain"
)

// ArtifactInput carries an uploaded artifact to a remote inference service.
type ArtifactInput struct {
	Data        []byte
	ContentType string
	Filename    string
}

// NewArtifactInput builds an ArtifactInput from a draft artifact.
func NewArtifactInput(a *domain.Artifact) ArtifactInput {
	return ArtifactInput{Data: a.Data, ContentType: a.ContentType, Filename: a.Filename}
}

// ImageClassifier abstracts the remote evidence image classifier.
type ImageClassifier interface {
	Classify(ctx context.Context, input ArtifactInput) (*domain.ClassificationResult, error)
}

// DocumentExtractor abstracts the remote policy document extractor. endpointID
// selects the claim-type specific extractor; the result always follows that
// type's closed field schema.
type DocumentExtractor interface {
	Extract(ctx context.Context, input ArtifactInput, endpointID string) (*domain.ExtractionResult, error)
}
