package service

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"claimintake/internal/domain"
	"claimintake/internal/port"
)

// ArchivingClaimRepository uploads a submission's artifacts to object storage
// before handing it to the inner repository. Keys derive from the submission
// token, so a retried submit overwrites the same objects.
type ArchivingClaimRepository struct {
	inner   port.ClaimRepository
	storage port.ObjectStorage
	bucket  string
}

// NewArchivingClaimRepository wraps inner.
func NewArchivingClaimRepository(inner port.ClaimRepository, storage port.ObjectStorage, bucket string) *ArchivingClaimRepository {
	return &ArchivingClaimRepository{inner: inner, storage: storage, bucket: bucket}
}

// ArtifactKey returns the object key for one artifact of a submission.
func ArtifactKey(token, kind string, a *domain.Artifact) string {
	ext := domain.AllowedArtifactTypes[a.ContentType]
	if ext == "" {
		ext = "bin"
	}
	return fmt.Sprintf("claims/%s/%s.%s", token, kind, ext)
}

func (r *ArchivingClaimRepository) Submit(ctx context.Context, input port.SubmitClaimInput) (string, error) {
	if input.Draft == nil {
		return "", fmt.Errorf("archive.Submit: draft is required")
	}
	token := input.Token.String()

	if a := input.Draft.Evidence; a != nil {
		key, err := r.put(ctx, ArtifactKey(token, "evidence", a), a)
		if err != nil {
			return "", err
		}
		input.EvidenceKey = key
	}
	if a := input.Draft.PolicyDocument; a != nil {
		key, err := r.put(ctx, ArtifactKey(token, "policy", a), a)
		if err != nil {
			return "", err
		}
		input.PolicyDocumentKey = key
	}

	return r.inner.Submit(ctx, input)
}

func (r *ArchivingClaimRepository) put(ctx context.Context, key string, a *domain.Artifact) (string, error) {
	_, err := r.storage.Upload(ctx, port.UploadInput{
		Bucket:      r.bucket,
		Key:         key,
		Body:        bytes.NewReader(a.Data),
		ContentType: a.ContentType,
		Size:        a.Size,
	})
	if err != nil {
		return "", fmt.Errorf("archive.Submit: uploading %s: %w", key, err)
	}
	log.Printf("service.ArchivingClaimRepository: archived %s (%d bytes)", key, a.Size)
	return key, nil
}
