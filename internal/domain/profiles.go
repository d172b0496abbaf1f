package domain

import "sort"

// FieldSpec describes one field of a claim type's extraction schema. Aliases are
// alternative keys the extraction service may report the field under.
type FieldSpec struct {
	Name    string    `yaml:"name" json:"name"`
	Kind    FieldKind `yaml:"kind" json:"kind"`
	Aliases []string  `yaml:"aliases" json:"aliases,omitempty"`
}

// ClaimTypeProfile is the static, per-type configuration consulted by the
// pipeline. An empty ExpectedEvidence means no evidence label is required.
type ClaimTypeProfile struct {
	Type               ClaimType   `yaml:"type" json:"type"`
	Label              string      `yaml:"label" json:"label"`
	ExpectedEvidence   string      `yaml:"expected_evidence" json:"expected_evidence,omitempty"`
	NegativePrefixes   []string    `yaml:"negative_prefixes" json:"-"`
	ExtractionEndpoint string      `yaml:"extraction_endpoint" json:"-"`
	Fields             []FieldSpec `yaml:"fields" json:"fields"`
	RequiredFields     []string    `yaml:"required_fields" json:"required_fields"`
	CoverageField      string      `yaml:"coverage_field" json:"coverage_field"`
	ExpiryField        string      `yaml:"expiry_field" json:"expiry_field,omitempty"`
}

// RequiresEvidenceLabel reports whether the evidence must classify as ExpectedEvidence.
func (p ClaimTypeProfile) RequiresEvidenceLabel() bool {
	return p.ExpectedEvidence != ""
}

// FieldSpec looks up a schema field by name.
func (p ClaimTypeProfile) FieldSpec(name string) (FieldSpec, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// ProfileTable maps each claim type to its profile.
type ProfileTable map[ClaimType]ClaimTypeProfile

// Lookup returns the profile for t.
func (t ProfileTable) Lookup(ct ClaimType) (ClaimTypeProfile, bool) {
	p, ok := t[ct]
	return p, ok
}

// List returns the profiles ordered by claim type.
func (t ProfileTable) List() []ClaimTypeProfile {
	out := make([]ClaimTypeProfile, 0, len(t))
	for _, p := range t {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

func policyFields(identity FieldSpec, coverage FieldSpec) []FieldSpec {
	return []FieldSpec{
		{Name: "policyNumber", Kind: FieldKindText, Aliases: []string{"policy_number", "policyNo"}},
		identity,
		{Name: "validFrom", Kind: FieldKindDate, Aliases: []string{"valid_from", "startDate"}},
		{Name: "validTo", Kind: FieldKindDate, Aliases: []string{"valid_to", "endDate", "expiryDate"}},
		coverage,
	}
}

// DefaultProfiles returns the built-in profile table.
func DefaultProfiles() ProfileTable {
	negative := []string{"non"}
	return ProfileTable{
		ClaimTypeVehicle: {
			Type:               ClaimTypeVehicle,
			Label:              "Auto Insurance",
			ExpectedEvidence:   "vehicle_damage",
			NegativePrefixes:   negative,
			ExtractionEndpoint: "vehicle",
			Fields: policyFields(
				FieldSpec{Name: "vehicleNumber", Kind: FieldKindText, Aliases: []string{"vehicle_number", "registrationNumber"}},
				FieldSpec{Name: "idv", Kind: FieldKindNumber, Aliases: []string{"idvVal", "insuredDeclaredValue"}},
			),
			RequiredFields: []string{"policyNumber", "idv"},
			CoverageField:  "idv",
			ExpiryField:    "validTo",
		},
		ClaimTypeHome: {
			Type:               ClaimTypeHome,
			Label:              "Home Insurance",
			ExpectedEvidence:   "home_damage",
			NegativePrefixes:   negative,
			ExtractionEndpoint: "home",
			Fields: policyFields(
				FieldSpec{Name: "propertyAddress", Kind: FieldKindText, Aliases: []string{"property_address", "address"}},
				FieldSpec{Name: "sumInsured", Kind: FieldKindNumber, Aliases: []string{"sumInsuredVal", "sum_insured", "totalSum", "buildingSum"}},
			),
			RequiredFields: []string{"policyNumber", "sumInsured"},
			CoverageField:  "sumInsured",
			ExpiryField:    "validTo",
		},
		ClaimTypeHealth: {
			Type:               ClaimTypeHealth,
			Label:              "Health Insurance",
			NegativePrefixes:   negative,
			ExtractionEndpoint: "health",
			Fields: policyFields(
				FieldSpec{Name: "memberId", Kind: FieldKindText, Aliases: []string{"member_id", "memberID"}},
				FieldSpec{Name: "sumInsured", Kind: FieldKindNumber, Aliases: []string{"sumInsuredVal", "sum_insured"}},
			),
			RequiredFields: []string{"policyNumber", "sumInsured"},
			CoverageField:  "sumInsured",
			ExpiryField:    "validTo",
		},
		ClaimTypeLife: {
			Type:               ClaimTypeLife,
			Label:              "Life Insurance",
			NegativePrefixes:   negative,
			ExtractionEndpoint: "life",
			Fields: policyFields(
				FieldSpec{Name: "insuredName", Kind: FieldKindText, Aliases: []string{"insured_name", "lifeAssured"}},
				FieldSpec{Name: "sumAssured", Kind: FieldKindNumber, Aliases: []string{"sumAssuredVal", "sum_assured"}},
			),
			RequiredFields: []string{"policyNumber", "sumAssured"},
			CoverageField:  "sumAssured",
			ExpiryField:    "validTo",
		},
	}
}
