// Package jobs tracks bulk ingestion progress. The in-memory tracker is
// the default; the Redis tracker survives restarts and serves multiple
// replicas behind one balancer.
package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docvault/internal/core/domain"
)

type bulkJob struct {
	total       int
	uploaded    int
	enriched    int
	documentIDs []string
	completedAt time.Time
}

// MemoryTracker keeps job counters in process memory, guarded by one
// mutex. Completed jobs are kept for the retention window so late polls
// still see the final state, then reaped.
type MemoryTracker struct {
	mu        sync.Mutex
	jobs      map[string]*bulkJob
	retention time.Duration
	logger    *slog.Logger
}

func NewMemoryTracker(retention time.Duration, logger *slog.Logger) *MemoryTracker {
	if retention <= 0 {
		retention = time.Hour
	}
	return &MemoryTracker{
		jobs:      make(map[string]*bulkJob),
		retention: retention,
		logger:    logger,
	}
}

func (t *MemoryTracker) Create(ctx context.Context, total int) (string, error) {
	id := uuid.NewString()
	t.mu.Lock()
	t.jobs[id] = &bulkJob{total: total}
	t.mu.Unlock()
	return id, nil
}

func (t *MemoryTracker) RecordUpload(ctx context.Context, jobID, documentID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.uploaded++
	if documentID != "" {
		job.documentIDs = append(job.documentIDs, documentID)
	}
	t.markIfComplete(job)
	return nil
}

func (t *MemoryTracker) RecordEnrichmentAttempt(ctx context.Context, jobID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	job.enriched++
	t.markIfComplete(job)
	return nil
}

func (t *MemoryTracker) Progress(ctx context.Context, jobID string) (domain.BulkJobProgress, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[jobID]
	if !ok {
		return domain.BulkJobProgress{}, false, nil
	}
	return domain.BulkJobProgress{
		Total:     job.total,
		Uploaded:  job.uploaded,
		Enriched:  job.enriched,
		Persisted: len(job.documentIDs),
	}, true, nil
}

func (t *MemoryTracker) DocumentIDs(ctx context.Context, jobID string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	ids := make([]string, len(job.documentIDs))
	copy(ids, job.documentIDs)
	return ids, nil
}

// Run reaps expired completed jobs until the context is canceled.
func (t *MemoryTracker) Run(ctx context.Context) {
	interval := t.retention / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.reap(time.Now())
		}
	}
}

func (t *MemoryTracker) reap(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, job := range t.jobs {
		if !job.completedAt.IsZero() && now.Sub(job.completedAt) > t.retention {
			delete(t.jobs, id)
			t.logger.Debug("reaped completed batch job", "job_id", id)
		}
	}
}

// Enrichment only runs over persisted documents, so completion compares
// the enriched counter against the document id list, not the batch size.
func (t *MemoryTracker) markIfComplete(job *bulkJob) {
	if job.completedAt.IsZero() && job.uploaded >= job.total && job.enriched >= len(job.documentIDs) {
		job.completedAt = time.Now()
	}
}
