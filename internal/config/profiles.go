package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"claimintake/internal/domain"
)

type profilesFile struct {
	Profiles []domain.ClaimTypeProfile `yaml:"profiles"`
}

// LoadProfiles returns the claim type profile table. An empty path yields the
// built-in defaults; otherwise the YAML file replaces them wholesale.
func LoadProfiles(path string) (domain.ProfileTable, error) {
	if path == "" {
		return domain.DefaultProfiles(), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profiles file: %w", err)
	}
	return ParseProfiles(content)
}

// ParseProfiles decodes and validates a YAML profile table.
func ParseProfiles(content []byte) (domain.ProfileTable, error) {
	var file profilesFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("parsing profiles yaml: %w", err)
	}
	if len(file.Profiles) == 0 {
		return nil, fmt.Errorf("profiles file defines no claim types")
	}

	table := make(domain.ProfileTable, len(file.Profiles))
	for i := range file.Profiles {
		p := file.Profiles[i]
		if !domain.ValidClaimTypes[p.Type] {
			return nil, fmt.Errorf("profile %d: unknown claim type %q", i, p.Type)
		}
		if _, dup := table[p.Type]; dup {
			return nil, fmt.Errorf("profile %d: duplicate claim type %q", i, p.Type)
		}
		if err := validateProfile(p); err != nil {
			return nil, fmt.Errorf("profile %q: %w", p.Type, err)
		}
		if p.ExtractionEndpoint == "" {
			p.ExtractionEndpoint = string(p.Type)
		}
		table[p.Type] = p
	}
	return table, nil
}

func validateProfile(p domain.ClaimTypeProfile) error {
	if len(p.Fields) == 0 {
		return fmt.Errorf("no fields defined")
	}
	for _, f := range p.Fields {
		switch f.Kind {
		case domain.FieldKindText, domain.FieldKindNumber, domain.FieldKindDate:
		default:
			return fmt.Errorf("field %q has invalid kind %q", f.Name, f.Kind)
		}
	}
	for _, name := range p.RequiredFields {
		if _, ok := p.FieldSpec(name); !ok {
			return fmt.Errorf("required field %q is not in the schema", name)
		}
	}
	cov, ok := p.FieldSpec(p.CoverageField)
	if !ok {
		return fmt.Errorf("coverage field %q is not in the schema", p.CoverageField)
	}
	if cov.Kind != domain.FieldKindNumber {
		return fmt.Errorf("coverage field %q must be numeric", p.CoverageField)
	}
	if p.ExpiryField != "" {
		if _, ok := p.FieldSpec(p.ExpiryField); !ok {
			return fmt.Errorf("expiry field %q is not in the schema", p.ExpiryField)
		}
	}
	return nil
}
