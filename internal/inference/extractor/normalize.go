package extractor

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"claimintake/internal/domain"
)

// rawField is one field as reported by the extraction service.
type rawField struct {
	Value           json.RawMessage `json:"value"`
	FallbackApplied bool            `json:"fallback_applied"`
}

// source is a decoded response before it is folded into the closed schema.
type source struct {
	fields  map[string]rawField
	rawText string
	// legacy responses report numeric fields as 0 when the figure was not found,
	// and replace them with heuristic defaults when _fallbackApplied is set.
	legacy          bool
	numericFallback bool
}

// normalize maps a response onto schema. Unknown fields are dropped; fields that
// are absent, null, flagged or unreadable become null with FallbackApplied set.
func normalize(schema []domain.FieldSpec, src source) *domain.ExtractionResult {
	out := &domain.ExtractionResult{
		Fields:  make([]domain.ExtractedField, 0, len(schema)),
		RawText: src.rawText,
	}
	for _, spec := range schema {
		out.Fields = append(out.Fields, resolveField(spec, src))
	}
	return out
}

func resolveField(spec domain.FieldSpec, src source) domain.ExtractedField {
	unresolved := domain.ExtractedField{Name: spec.Name, Kind: spec.Kind, FallbackApplied: true}

	raw, ok := lookup(spec, src.fields)
	if !ok || raw.FallbackApplied || isNull(raw.Value) {
		return unresolved
	}
	if spec.Kind == domain.FieldKindNumber && src.numericFallback {
		return unresolved
	}

	field := domain.ExtractedField{Name: spec.Name, Kind: spec.Kind}
	switch spec.Kind {
	case domain.FieldKindNumber:
		n, ok := decodeNumber(raw.Value)
		if !ok || n < 0 || (src.legacy && n == 0) {
			return unresolved
		}
		field.Number = &n
	case domain.FieldKindDate:
		s, ok := decodeText(raw.Value)
		if !ok {
			return unresolved
		}
		t, ok := domain.ParsePolicyDate(s)
		if !ok {
			return unresolved
		}
		iso := t.Format(domain.DateLayout)
		field.Text = &iso
	default:
		s, ok := decodeText(raw.Value)
		if !ok {
			return unresolved
		}
		field.Text = &s
	}
	return field
}

func lookup(spec domain.FieldSpec, fields map[string]rawField) (rawField, bool) {
	if f, ok := fields[spec.Name]; ok {
		return f, true
	}
	for _, alias := range spec.Aliases {
		if f, ok := fields[alias]; ok {
			return f, true
		}
	}
	return rawField{}, false
}

func isNull(v json.RawMessage) bool {
	s := strings.TrimSpace(string(v))
	return s == "" || s == "null"
}

func decodeText(v json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

func decodeNumber(v json.RawMessage) (float64, bool) {
	var n float64
	if err := json.Unmarshal(v, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return ParseAmount(s)
	}
	return 0, false
}

var (
	currencyMarkers = regexp.MustCompile(`(?i)(rs\.?|inr|₹|\$|/-)`)
	amountToken     = regexp.MustCompile(`[0-9OoSs][0-9OoSs.,]*`)
	ocrDigits       = strings.NewReplacer("O", "0", "o", "0", "S", "5", "s", "5")
)

// ParseAmount reads a currency figure as printed on a policy document, e.g.
// "Rs. 5,00,000", "2.50.000" or OCR-garbled "1O,OOO".
func ParseAmount(s string) (float64, bool) {
	s = currencyMarkers.ReplaceAllString(s, " ")
	for _, token := range amountToken.FindAllString(s, -1) {
		if !strings.ContainsAny(token, "0123456789") {
			continue
		}
		clean := strings.TrimRight(ocrDigits.Replace(token), ".,")
		if strings.Count(clean, ".") > 1 {
			clean = strings.ReplaceAll(clean, ".", "")
		}
		clean = strings.ReplaceAll(clean, ",", "")
		n, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
