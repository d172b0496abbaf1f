package domain

import (
	"strings"
	"time"
)

// DateLayout is the canonical layout for date values carried in extracted fields.
const DateLayout = "2006-01-02"

var policyDateLayouts = []string{
	DateLayout,
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"January 2, 2006",
}

// ParsePolicyDate parses the day-first and ISO date forms printed on policy documents.
func ParsePolicyDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range policyDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
