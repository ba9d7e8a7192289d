package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docvault/internal/core/domain"
)

// DocumentRepository is the sole writer of document rows.
type DocumentRepository interface {
	// Insert assigns the id and upload date, persists the row, and returns the id.
	Insert(ctx context.Context, doc *domain.Document) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	DeleteByID(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]domain.Document, error)
	ListByFolder(ctx context.Context, folder string) ([]domain.Document, error)
	UpdateExtraction(ctx context.Context, id, text, indexedText string) error
	UpdateEnrichment(ctx context.Context, id string, classification, summary *string) error
	UpdateDonut(ctx context.Context, id, label string) error
	// UpdateCategory applies the three coupled fields of a recategorization;
	// the caller owns the pairing with the physical file move.
	UpdateCategory(ctx context.Context, id, category, folder, filePath string) error
	DistinctFolders(ctx context.Context) ([]string, error)
	DistinctClassifications(ctx context.Context) ([]string, error)
	Search(ctx context.Context, filter domain.SearchFilter) (domain.SearchResult, error)
}

// FileStore keeps uploaded files under a single upload root with
// per-category subdirectories.
type FileStore interface {
	// Save writes data under storedName and returns the absolute path and size.
	Save(ctx context.Context, storedName string, data io.Reader) (string, int64, error)
	// MoveToFolder relocates a stored file into the subdirectory for folder
	// and returns the new path. Moving to the current location is a no-op.
	MoveToFolder(ctx context.Context, currentPath, folder, storedName string) (string, error)
	// Move renames a file between arbitrary paths under the upload root.
	Move(ctx context.Context, from, to string) error
	Remove(ctx context.Context, path string) error
	// Resolve finds a stored file by name anywhere under the upload root.
	Resolve(ctx context.Context, storedName string) (string, error)
}

// ContentExtractor produces text and format metadata from a stored file.
type ContentExtractor interface {
	// Extract never fails the caller: per-file extraction errors are logged
	// and swallowed so one bad file cannot abort a batch.
	Extract(ctx context.Context, path, mimeType string, presetText *string) domain.Extraction
	// PDFText re-parses a PDF for its embedded text and page count.
	PDFText(ctx context.Context, path string) (string, int, error)
}

// OCREngine is the higher-cost recognition path, run only on explicit request.
type OCREngine interface {
	RecognizeImage(ctx context.Context, path string) (string, error)
	RecognizeImageHandwritten(ctx context.Context, path string) (string, error)
	RecognizePDFHandwritten(ctx context.Context, path string) (string, error)
}

// Enricher classifies and summarizes document text via an external
// reasoning service.
type Enricher interface {
	ClassifyAndSummarize(ctx context.Context, text string, knownCategories []string) (domain.EnrichmentResult, error)
}

// ImageClassifier labels a document image via an independent external
// classifier. Failures are hard errors, unlike the Enricher path.
type ImageClassifier interface {
	Classify(ctx context.Context, filePath string) (string, error)
}

// JobTracker coordinates batch progress between the upload loop and the
// enrichment worker.
type JobTracker interface {
	Create(ctx context.Context, total int) (string, error)
	// RecordUpload advances the uploaded counter; documentID is empty when
	// the row insert failed, so the counter still accounts for the file.
	RecordUpload(ctx context.Context, jobID, documentID string) error
	RecordEnrichmentAttempt(ctx context.Context, jobID string) error
	Progress(ctx context.Context, jobID string) (domain.BulkJobProgress, bool, error)
	DocumentIDs(ctx context.Context, jobID string) ([]string, error)
}
