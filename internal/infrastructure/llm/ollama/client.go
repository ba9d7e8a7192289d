package ollama

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/docvault/internal/core/domain"
	"github.com/kirillkom/docvault/internal/infrastructure/resilience"
)

// maxPromptTextChars bounds how much document text is sent per request so
// a large PDF cannot blow the model's context window.
const maxPromptTextChars = 4000

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// ClassifyAndSummarize asks the model for a category and a short summary
// of the document text. A transport failure is an error; an unparseable
// reply is not, the raw reply is preserved as the summary instead.
func (c *Client) ClassifyAndSummarize(ctx context.Context, text string, knownCategories []string) (domain.EnrichmentResult, error) {
	prompt := buildEnrichmentPrompt(truncate(text, maxPromptTextChars), knownCategories)

	var reply string
	err := c.executor.Do(ctx, "ollama.generate", func(ctx context.Context) error {
		r, genErr := c.generateText(ctx, prompt)
		if genErr != nil {
			return genErr
		}
		reply = r
		return nil
	}, classifyTransportError)
	if err != nil {
		return domain.EnrichmentResult{}, wrapTemporaryIfNeeded("classify document", err)
	}

	return parseEnrichment(reply), nil
}

func (c *Client) generateText(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
