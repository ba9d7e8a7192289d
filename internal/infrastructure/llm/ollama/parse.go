package ollama

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kirillkom/docvault/internal/core/domain"
)

var (
	leadingFence  = regexp.MustCompile("(?i)^(```json|```|\\.json)")
	trailingFence = regexp.MustCompile("```$")
)

// parseEnrichment decodes the model's reply leniently. Models wrap JSON in
// markdown fences, prepend prose, or stringify the object a second time;
// all of that is tolerated. When nothing parseable remains, the whole
// reply becomes the summary so the operator still sees what came back.
func parseEnrichment(raw string) domain.EnrichmentResult {
	result := domain.EnrichmentResult{Raw: raw}

	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimSpace(leadingFence.ReplaceAllString(cleaned, ""))
	cleaned = strings.TrimSpace(trailingFence.ReplaceAllString(cleaned, ""))

	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first != -1 && last > first {
		cleaned = cleaned[first : last+1]
	}

	payload, ok := decodePayload(cleaned)
	if !ok {
		fallback := raw
		result.Summary = &fallback
		return result
	}

	result.Classification = trimmedOrNil(payload.Classification)
	result.Summary = trimmedOrNil(payload.Summary)
	return result
}

type enrichmentPayload struct {
	Classification string `json:"classification"`
	Summary        string `json:"summary"`
}

func decodePayload(cleaned string) (enrichmentPayload, bool) {
	var payload enrichmentPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err == nil {
		return payload, true
	}

	// Some replies are a JSON string that itself contains the object.
	var inner string
	if err := json.Unmarshal([]byte(cleaned), &inner); err == nil {
		if err := json.Unmarshal([]byte(inner), &payload); err == nil {
			return payload, true
		}
	}
	return enrichmentPayload{}, false
}

func trimmedOrNil(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
