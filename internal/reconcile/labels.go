package reconcile

import (
	"fmt"
	"strings"

	"claimintake/internal/domain"
)

var separatorReplacer = strings.NewReplacer("-", "", "_", "", " ", "")

// NormalizeLabel lower-cases a classifier label and strips separators.
func NormalizeLabel(label string) string {
	return separatorReplacer.Replace(strings.ToLower(strings.TrimSpace(label)))
}

// LabelCompatible applies the evidence matching rule. A label carrying one of the
// negative prefixes is never compatible, even if it contains the expected label.
// An empty observed label is never compatible.
func LabelCompatible(expected, observed string, negativePrefixes []string) bool {
	exp := NormalizeLabel(expected)
	obs := NormalizeLabel(observed)
	if obs == "" || exp == "" {
		return false
	}
	for _, prefix := range negativePrefixes {
		p := NormalizeLabel(prefix)
		if p != "" && strings.HasPrefix(obs, p) {
			return false
		}
	}
	return strings.Contains(obs, exp) || strings.Contains(exp, obs)
}

// EvidenceVerdict is the outcome of checking a classification against a profile.
type EvidenceVerdict struct {
	Compatible bool
	Label      string
	Expected   string
	Issue      string
}

// CheckEvidence evaluates the evidence classification for the given profile.
// Profiles with no expected evidence accept any classification, including none.
func CheckEvidence(profile domain.ClaimTypeProfile, c *domain.ClassificationResult) EvidenceVerdict {
	if !profile.RequiresEvidenceLabel() {
		v := EvidenceVerdict{Compatible: true}
		if c != nil {
			v.Label = c.Label
		}
		return v
	}
	if c == nil {
		return EvidenceVerdict{
			Expected: profile.ExpectedEvidence,
			Issue:    "evidence classification unavailable",
		}
	}
	v := EvidenceVerdict{Label: c.Label, Expected: profile.ExpectedEvidence}
	if LabelCompatible(profile.ExpectedEvidence, c.Label, profile.NegativePrefixes) {
		v.Compatible = true
		return v
	}
	v.Issue = fmt.Sprintf("evidence classified as %q does not match expected %q", c.Label, profile.ExpectedEvidence)
	return v
}
