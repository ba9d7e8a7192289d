package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docvault/internal/core/domain"
)

// IncomingFile is one file of an upload request.
type IncomingFile struct {
	OriginalName string
	MimeType     string
	Body         io.Reader
	// PresetOCRText is a client-supplied OCR result for image uploads,
	// used verbatim instead of server-side recognition.
	PresetOCRText *string
}

// DocumentIngestor is the inbound contract for single and batch ingestion.
type DocumentIngestor interface {
	Upload(ctx context.Context, file IncomingFile) (*domain.Document, error)
	// BulkUpload persists every file synchronously, then starts background
	// enrichment for the batch and returns the job id for polling.
	BulkUpload(ctx context.Context, files []IncomingFile, folder string) (string, error)
}

// DocumentAnalyzer re-runs extraction or enrichment for one document.
type DocumentAnalyzer interface {
	ReRunOCR(ctx context.Context, id string) (string, error)
	ReRunHandwrittenOCR(ctx context.Context, id string) (string, error)
	Enrich(ctx context.Context, id string, categories []string) (domain.EnrichmentResult, error)
	ClassifyDonut(ctx context.Context, id string) (string, error)
}

// DocumentCurator owns category moves and deletion.
type DocumentCurator interface {
	UpdateCategory(ctx context.Context, id, category string) error
	Delete(ctx context.Context, id string) error
}
