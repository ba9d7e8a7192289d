package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/docvault/internal/core/domain"
	"github.com/kirillkom/docvault/internal/infrastructure/resilience"
)

func TestParseEnrichmentPlainJSON(t *testing.T) {
	res := parseEnrichment(`{"classification": "invoice", "summary": "Monthly electricity bill."}`)
	if res.Classification == nil || *res.Classification != "invoice" {
		t.Fatalf("unexpected classification: %v", res.Classification)
	}
	if res.Summary == nil || *res.Summary != "Monthly electricity bill." {
		t.Fatalf("unexpected summary: %v", res.Summary)
	}
}

func TestParseEnrichmentStripsMarkdownFences(t *testing.T) {
	raw := "```json\n{\"classification\": \"receipt\", \"summary\": \"Grocery receipt.\"}\n```"
	res := parseEnrichment(raw)
	if res.Classification == nil || *res.Classification != "receipt" {
		t.Fatalf("unexpected classification: %v", res.Classification)
	}
}

func TestParseEnrichmentExtractsObjectFromProse(t *testing.T) {
	raw := `Sure! Here is the result: {"classification": "contract", "summary": "Lease agreement."} Hope this helps.`
	res := parseEnrichment(raw)
	if res.Classification == nil || *res.Classification != "contract" {
		t.Fatalf("unexpected classification: %v", res.Classification)
	}
}

func TestParseEnrichmentDoubleEncodedObject(t *testing.T) {
	inner := `{"classification": "report", "summary": "Quarterly report."}`
	encoded, _ := json.Marshal(inner)
	res := parseEnrichment(string(encoded))
	if res.Classification == nil || *res.Classification != "report" {
		t.Fatalf("unexpected classification: %v", res.Classification)
	}
}

func TestParseEnrichmentCapitalizedKeys(t *testing.T) {
	res := parseEnrichment(`{"Classification": "letter", "Summary": "A letter."}`)
	if res.Classification == nil || *res.Classification != "letter" {
		t.Fatalf("unexpected classification: %v", res.Classification)
	}
	if res.Summary == nil || *res.Summary != "A letter." {
		t.Fatalf("unexpected summary: %v", res.Summary)
	}
}

func TestParseEnrichmentUnparseableFallsBackToRawSummary(t *testing.T) {
	raw := "I could not classify this document."
	res := parseEnrichment(raw)
	if res.Classification != nil {
		t.Fatalf("expected nil classification, got %q", *res.Classification)
	}
	if res.Summary == nil || *res.Summary != raw {
		t.Fatalf("expected raw reply as summary, got %v", res.Summary)
	}
	if res.Raw != raw {
		t.Fatalf("raw reply must always be preserved")
	}
}

func TestParseEnrichmentBlankValuesBecomeNil(t *testing.T) {
	res := parseEnrichment(`{"classification": "  ", "summary": ""}`)
	if res.Classification != nil || res.Summary != nil {
		t.Fatalf("expected nil fields, got %+v", res)
	}
}

func newTestClient(serverURL string) *Client {
	policy := resilience.DefaultPolicy()
	policy.RetryMaxAttempts = 2
	policy.RetryInitialBackoff = 1
	policy.BreakerEnabled = false
	return New(serverURL, "llama3.2:3b", resilience.NewExecutor(policy))
}

func TestClassifyAndSummarizeSendsCategoriesInPrompt(t *testing.T) {
	var seenPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Errorf("expected stream=false")
		}
		seenPrompt = req.Prompt
		_ = json.NewEncoder(w).Encode(map[string]string{
			"response": `{"classification": "invoice", "summary": "A bill."}`,
		})
	}))
	defer server.Close()

	res, err := newTestClient(server.URL).ClassifyAndSummarize(context.Background(), "pay 40 eur by friday", []string{"invoice", "receipt"})
	if err != nil {
		t.Fatalf("ClassifyAndSummarize() error = %v", err)
	}
	if res.Classification == nil || *res.Classification != "invoice" {
		t.Fatalf("unexpected result %+v", res)
	}
	if !strings.Contains(seenPrompt, "Possible categories: invoice, receipt") {
		t.Fatalf("prompt missing category hint:\n%s", seenPrompt)
	}
	if !strings.Contains(seenPrompt, "Use an existing category if it fits.") {
		t.Fatalf("prompt missing reuse instruction:\n%s", seenPrompt)
	}
}

func TestClassifyAndSummarizeOmitsCategoryHintWhenNoneKnown(t *testing.T) {
	var seenPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		seenPrompt = req.Prompt
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "{}"})
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).ClassifyAndSummarize(context.Background(), "text", nil); err != nil {
		t.Fatalf("ClassifyAndSummarize() error = %v", err)
	}
	if strings.Contains(seenPrompt, "Possible categories") {
		t.Fatalf("prompt must not mention categories:\n%s", seenPrompt)
	}
}

func TestClassifyAndSummarizeServerFailureIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ClassifyAndSummarize(context.Background(), "text", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}
