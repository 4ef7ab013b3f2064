package domain

import "strings"

// PatternDescriptor is one selectable motif. ID is the only join key between
// catalog selection and a fitting request.
type PatternDescriptor struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ReferenceURL string `json:"reference_url"`
	Description  string `json:"description,omitempty"`
}

// Matches reports whether term occurs in the name or description, ignoring case.
func (p PatternDescriptor) Matches(term string) bool {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle)
}

// PatternIDFromName derives the canonical id used by the pattern library,
// e.g. "Sekar Kemuning" -> "sekar_kemuning".
func PatternIDFromName(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, "_")
}
