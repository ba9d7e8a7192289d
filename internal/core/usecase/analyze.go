package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/docvault/internal/core/domain"
	"github.com/kirillkom/docvault/internal/core/ports"
)

// AnalyzeUseCase re-runs recognition or enrichment for a single document
// on explicit operator request.
type AnalyzeUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.ContentExtractor
	ocr       ports.OCREngine
	enricher  ports.Enricher
	donut     ports.ImageClassifier
	logger    *slog.Logger
}

func NewAnalyzeUseCase(
	repo ports.DocumentRepository,
	extractor ports.ContentExtractor,
	ocr ports.OCREngine,
	enricher ports.Enricher,
	donut ports.ImageClassifier,
	logger *slog.Logger,
) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		repo:      repo,
		extractor: extractor,
		ocr:       ocr,
		enricher:  enricher,
		donut:     donut,
		logger:    logger,
	}
}

func (u *AnalyzeUseCase) ReRunOCR(ctx context.Context, id string) (string, error) {
	doc, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	var text string
	switch doc.MimeType {
	case "application/pdf":
		text, _, err = u.extractor.PDFText(ctx, doc.FilePath)
	case "image/jpeg", "image/png":
		text, err = u.ocr.RecognizeImage(ctx, doc.FilePath)
	default:
		return "", domain.WrapError(domain.ErrUnsupportedMedia, "re-run recognition", fmt.Errorf("media type %q", doc.MimeType))
	}
	if err != nil {
		return "", fmt.Errorf("recognize document: %w", err)
	}

	return text, u.storeRecognizedText(ctx, id, text)
}

func (u *AnalyzeUseCase) ReRunHandwrittenOCR(ctx context.Context, id string) (string, error) {
	doc, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	var text string
	switch doc.MimeType {
	case "application/pdf":
		text, err = u.ocr.RecognizePDFHandwritten(ctx, doc.FilePath)
	case "image/jpeg", "image/png":
		text, err = u.ocr.RecognizeImageHandwritten(ctx, doc.FilePath)
	default:
		return "", domain.WrapError(domain.ErrUnsupportedMedia, "re-run handwriting recognition", fmt.Errorf("media type %q", doc.MimeType))
	}
	if err != nil {
		return "", fmt.Errorf("recognize handwriting: %w", err)
	}

	return text, u.storeRecognizedText(ctx, id, text)
}

// Enrich classifies and summarizes one document on demand. Unlike the
// batch path, failures surface to the caller.
func (u *AnalyzeUseCase) Enrich(ctx context.Context, id string, categories []string) (domain.EnrichmentResult, error) {
	doc, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return domain.EnrichmentResult{}, err
	}
	if !doc.HasIndexedText() {
		return domain.EnrichmentResult{}, domain.WrapError(domain.ErrInvalidInput, "analyze document", fmt.Errorf("no text to analyze"))
	}

	if len(categories) == 0 {
		categories, err = u.repo.DistinctClassifications(ctx)
		if err != nil {
			u.logger.Warn("category lookup failed", "document_id", id, "error", err)
			categories = nil
		}
	}

	result, err := u.enricher.ClassifyAndSummarize(ctx, *doc.IndexedText, categories)
	if err != nil {
		return domain.EnrichmentResult{}, err
	}
	if err := u.repo.UpdateEnrichment(ctx, id, result.Classification, result.Summary); err != nil {
		return domain.EnrichmentResult{}, err
	}
	return result, nil
}

func (u *AnalyzeUseCase) ClassifyDonut(ctx context.Context, id string) (string, error) {
	doc, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	label, err := u.donut.Classify(ctx, doc.FilePath)
	if err != nil {
		return "", err
	}
	if err := u.repo.UpdateDonut(ctx, id, label); err != nil {
		return "", err
	}
	return label, nil
}

func (u *AnalyzeUseCase) storeRecognizedText(ctx context.Context, id, text string) error {
	if err := u.repo.UpdateExtraction(ctx, id, text, domain.NormalizeForIndex(text)); err != nil {
		return fmt.Errorf("store recognized text: %w", err)
	}
	return nil
}
