package ollama

import "strings"

func buildEnrichmentPrompt(text string, knownCategories []string) string {
	if len(knownCategories) == 0 {
		return `Classify the following document and provide a summary.

Text:
` + text + `

Respond in JSON with keys: classification, summary.`
	}

	return `Classify the following document and provide a summary.

Text:
` + text + `

Possible categories: ` + strings.Join(knownCategories, ", ") + `

Respond in JSON with keys: classification, summary. Use an existing category if it fits.`
}
