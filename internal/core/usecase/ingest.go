package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kirillkom/docvault/internal/core/domain"
	"github.com/kirillkom/docvault/internal/core/ports"
	"github.com/kirillkom/docvault/internal/observability/metrics"
)

var allowedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
	"text/plain":      {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
	// Browsers commonly send the legacy type for spreadsheet uploads.
	"application/vnd.ms-excel": {},
}

// AllowedMimeType reports whether uploads of this media type are accepted.
func AllowedMimeType(mimeType string) bool {
	_, ok := allowedMimeTypes[mimeType]
	return ok
}

type IngestUseCase struct {
	repo          ports.DocumentRepository
	files         ports.FileStore
	extractor     ports.ContentExtractor
	tracker       ports.JobTracker
	enricher      *EnrichBatchUseCase
	metrics       *metrics.PipelineMetrics
	logger        *slog.Logger
	maxBatchFiles int
}

func NewIngestUseCase(
	repo ports.DocumentRepository,
	files ports.FileStore,
	extractor ports.ContentExtractor,
	tracker ports.JobTracker,
	enricher *EnrichBatchUseCase,
	m *metrics.PipelineMetrics,
	logger *slog.Logger,
	maxBatchFiles int,
) *IngestUseCase {
	if maxBatchFiles <= 0 {
		maxBatchFiles = 100
	}
	return &IngestUseCase{
		repo:          repo,
		files:         files,
		extractor:     extractor,
		tracker:       tracker,
		enricher:      enricher,
		metrics:       m,
		logger:        logger,
		maxBatchFiles: maxBatchFiles,
	}
}

func (u *IngestUseCase) Upload(ctx context.Context, file ports.IncomingFile) (*domain.Document, error) {
	doc, err := u.ingestOne(ctx, file, "")
	u.metrics.ObserveUpload(err)
	return doc, err
}

// BulkUpload persists every file synchronously so the job id it returns
// already covers the full batch, then hands the batch to the enrichment
// worker. A file that fails to persist still advances the job counters.
func (u *IngestUseCase) BulkUpload(ctx context.Context, files []ports.IncomingFile, folder string) (string, error) {
	if len(files) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "bulk upload", fmt.Errorf("no files provided"))
	}
	if len(files) > u.maxBatchFiles {
		return "", domain.WrapError(domain.ErrInvalidInput, "bulk upload", fmt.Errorf("%d files exceeds the limit of %d", len(files), u.maxBatchFiles))
	}
	if folder != "" && sanitizeFolder(folder) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "bulk upload", fmt.Errorf("unusable folder name %q", folder))
	}

	jobID, err := u.tracker.Create(ctx, len(files))
	if err != nil {
		return "", fmt.Errorf("create batch job: %w", err)
	}

	for _, file := range files {
		doc, err := u.ingestOne(ctx, file, folder)
		u.metrics.ObserveUpload(err)

		documentID := ""
		if err != nil {
			u.logger.Error("batch file rejected", "job_id", jobID, "file", file.OriginalName, "error", err)
		} else {
			documentID = doc.ID
		}
		if err := u.tracker.RecordUpload(ctx, jobID, documentID); err != nil {
			return "", fmt.Errorf("record upload progress: %w", err)
		}
	}

	// The batch outlives the upload request; enrichment keeps the values
	// of the request context but not its cancellation.
	go u.enricher.Run(context.WithoutCancel(ctx), jobID)

	return jobID, nil
}

func (u *IngestUseCase) ingestOne(ctx context.Context, file ports.IncomingFile, folder string) (*domain.Document, error) {
	if !AllowedMimeType(file.MimeType) {
		return nil, domain.WrapError(domain.ErrUnsupportedMedia, "upload", fmt.Errorf("media type %q", file.MimeType))
	}

	storedName := uniqueStoredName(file.OriginalName)
	path, size, err := u.files.Save(ctx, storedName, file.Body)
	if err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	var docFolder *string
	if folder != "" {
		clean := sanitizeFolder(folder)
		moved, err := u.files.MoveToFolder(ctx, path, clean, storedName)
		if err != nil {
			u.removeBestEffort(ctx, path)
			return nil, fmt.Errorf("place file in folder: %w", err)
		}
		path = moved
		docFolder = &clean
	}

	extraction := u.extractor.Extract(ctx, path, file.MimeType, file.PresetOCRText)

	doc := &domain.Document{
		Filename:      storedName,
		OriginalName:  file.OriginalName,
		FilePath:      path,
		FileSize:      size,
		MimeType:      file.MimeType,
		ExtractedText: extraction.Text,
		IndexedText:   domain.IndexedTextFor(extraction.Text),
		ImageWidth:    extraction.ImageWidth,
		ImageHeight:   extraction.ImageHeight,
		PDFPageCount:  extraction.PDFPageCount,
		Folder:        docFolder,
	}

	if _, err := u.repo.Insert(ctx, doc); err != nil {
		u.removeBestEffort(ctx, path)
		return nil, fmt.Errorf("persist document: %w", err)
	}
	return doc, nil
}

func (u *IngestUseCase) removeBestEffort(ctx context.Context, path string) {
	if err := u.files.Remove(ctx, path); err != nil {
		u.logger.Warn("orphaned file cleanup failed", "path", path, "error", err)
	}
}

// uniqueStoredName prefixes the sanitized original name with a fresh uuid
// so concurrent uploads of the same file never collide on disk.
func uniqueStoredName(originalName string) string {
	return uuid.NewString() + "_" + sanitizeFilename(originalName)
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	cleaned := mapSafeRunes(base)
	if strings.Trim(cleaned, "._") == "" {
		return "file"
	}
	return cleaned
}

// sanitizeFolder turns a category into a safe flat directory name.
// An empty result means the category cannot name a folder.
func sanitizeFolder(category string) string {
	cleaned := mapSafeRunes(strings.TrimSpace(category))
	if strings.Trim(cleaned, "._") == "" {
		return ""
	}
	return cleaned
}

func mapSafeRunes(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
