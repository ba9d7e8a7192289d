package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/docvault/internal/core/ports"
	"github.com/kirillkom/docvault/internal/observability/metrics"
)

// EnrichBatchUseCase runs classification and summarization for every
// document of an ingested batch. One failing document never fails the
// batch: the attempt is counted and the worker moves on.
type EnrichBatchUseCase struct {
	repo     ports.DocumentRepository
	tracker  ports.JobTracker
	enricher ports.Enricher
	metrics  *metrics.PipelineMetrics
	logger   *slog.Logger
	// slots bounds how many batches enrich concurrently; document
	// processing inside a batch is sequential to keep model load sane.
	slots chan struct{}
}

func NewEnrichBatchUseCase(
	repo ports.DocumentRepository,
	tracker ports.JobTracker,
	enricher ports.Enricher,
	m *metrics.PipelineMetrics,
	logger *slog.Logger,
	maxConcurrentBatches int,
) *EnrichBatchUseCase {
	if maxConcurrentBatches <= 0 {
		maxConcurrentBatches = 4
	}
	return &EnrichBatchUseCase{
		repo:     repo,
		tracker:  tracker,
		enricher: enricher,
		metrics:  m,
		logger:   logger,
		slots:    make(chan struct{}, maxConcurrentBatches),
	}
}

func (u *EnrichBatchUseCase) Run(ctx context.Context, jobID string) {
	select {
	case u.slots <- struct{}{}:
		defer func() { <-u.slots }()
	case <-ctx.Done():
		return
	}

	ids, err := u.tracker.DocumentIDs(ctx, jobID)
	if err != nil {
		u.logger.Error("enrichment batch aborted", "job_id", jobID, "error", err)
		return
	}

	u.metrics.ObserveBatchStart(len(ids))
	start := time.Now()
	defer func() { u.metrics.ObserveBatchEnd(time.Since(start)) }()

	// Known categories are a hint, so a lookup failure just means the
	// model classifies without them.
	categories, err := u.repo.DistinctClassifications(ctx)
	if err != nil {
		u.logger.Warn("category lookup failed", "job_id", jobID, "error", err)
		categories = nil
	}

	// Files that never produced a document row are not part of the
	// batch: the enriched counter only ever covers these ids.
	for _, id := range ids {
		u.enrichOne(ctx, jobID, id, categories)
	}

	u.logger.Info("enrichment batch finished", "job_id", jobID, "documents", len(ids), "duration_ms", time.Since(start).Milliseconds())
}

func (u *EnrichBatchUseCase) enrichOne(ctx context.Context, jobID, id string, categories []string) {
	defer u.recordAttempt(ctx, jobID)

	start := time.Now()
	err := u.tryEnrich(ctx, id, categories)
	u.metrics.ObserveEnrichment(time.Since(start), err)
	if err != nil {
		u.logger.Warn("document enrichment failed", "job_id", jobID, "document_id", id, "error", err)
	}
}

func (u *EnrichBatchUseCase) tryEnrich(ctx context.Context, id string, categories []string) error {
	doc, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !doc.HasIndexedText() {
		// Nothing to classify; the attempt still counts.
		return nil
	}

	result, err := u.enricher.ClassifyAndSummarize(ctx, *doc.IndexedText, categories)
	if err != nil {
		return err
	}
	return u.repo.UpdateEnrichment(ctx, id, result.Classification, result.Summary)
}

func (u *EnrichBatchUseCase) recordAttempt(ctx context.Context, jobID string) {
	if err := u.tracker.RecordEnrichmentAttempt(ctx, jobID); err != nil {
		u.logger.Error("enrichment progress lost", "job_id", jobID, "error", err)
	}
}
