package intake

import (
	"fmt"
	"net/http"
	"path/filepath"

	"claimintake/internal/domain"
)

// ArtifactUpload is a raw file received from the caller.
type ArtifactUpload struct {
	Filename string
	Data     []byte
}

// buildArtifact validates an upload against the accepted types using magic-byte
// detection. The declared content type is never trusted.
func buildArtifact(up ArtifactUpload, allowed map[string]bool, maxBytes int64) (*domain.Artifact, error) {
	size := int64(len(up.Data))
	if size == 0 {
		return nil, fmt.Errorf("%w: empty file", domain.ErrUnsupportedArtifact)
	}
	if maxBytes > 0 && size > maxBytes {
		return nil, domain.ErrArtifactTooLarge
	}

	detected := http.DetectContentType(up.Data)
	if !allowed[detected] {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedArtifact, detected)
	}

	return &domain.Artifact{
		Filename:    filepath.Base(up.Filename),
		ContentType: detected,
		Size:        size,
		Data:        up.Data,
	}, nil
}

func policyDocumentTypes() map[string]bool {
	out := make(map[string]bool, len(domain.AllowedArtifactTypes))
	for ct := range domain.AllowedArtifactTypes {
		out[ct] = true
	}
	return out
}
