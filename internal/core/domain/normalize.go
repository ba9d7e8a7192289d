package domain

import "strings"

// NormalizeForIndex derives the searchable form of extracted text:
// lower-cased, whitespace runs collapsed to single spaces, trimmed.
// indexed_text must always equal NormalizeForIndex(extracted_text),
// or both must be absent.
func NormalizeForIndex(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// IndexedTextFor pairs extracted text with its normalized form,
// preserving the both-nil invariant.
func IndexedTextFor(extracted *string) *string {
	if extracted == nil {
		return nil
	}
	normalized := NormalizeForIndex(*extracted)
	return &normalized
}

func trimmedNonEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}
