package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/docvault/internal/core/ports"
	"github.com/kirillkom/docvault/internal/observability/metrics"
)

// Options carries the request-surface tunables.
type Options struct {
	MaxUploadBytes int64
	MaxBatchFiles  int
	// RateLimitRPS <= 0 disables traffic shaping.
	RateLimitRPS   float64
	RateLimitBurst int
}

type Router struct {
	ingest   ports.DocumentIngestor
	analyzer ports.DocumentAnalyzer
	curator  ports.DocumentCurator
	repo     ports.DocumentRepository
	tracker  ports.JobTracker
	files    ports.FileStore
	metrics  *metrics.PipelineMetrics
	logger   *slog.Logger
	opts     Options
}

func NewRouter(
	ingest ports.DocumentIngestor,
	analyzer ports.DocumentAnalyzer,
	curator ports.DocumentCurator,
	repo ports.DocumentRepository,
	tracker ports.JobTracker,
	files ports.FileStore,
	m *metrics.PipelineMetrics,
	logger *slog.Logger,
	opts Options,
) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.MaxBatchFiles <= 0 {
		opts.MaxBatchFiles = 100
	}
	return &Router{
		ingest:   ingest,
		analyzer: analyzer,
		curator:  curator,
		repo:     repo,
		tracker:  tracker,
		files:    files,
		metrics:  m,
		logger:   logger,
		opts:     opts,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(rt.accessLogMiddleware)
	r.Use(rt.metricsMiddleware)
	if rt.opts.RateLimitRPS > 0 {
		r.Use(rateLimitMiddleware(rt.opts.RateLimitRPS, rt.opts.RateLimitBurst))
	}

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", rt.listDocuments)
		r.Post("/upload", rt.uploadDocument)
		r.Post("/bulk-upload", rt.bulkUpload)
		r.Get("/bulk-progress/{jobID}", rt.bulkProgress)
		r.Get("/folders", rt.listFolders)
		r.Get("/by-folder/{folder}", rt.listByFolder)
		r.Post("/search", rt.searchDocuments)

		r.Route("/{id}", func(r chi.Router) {
			r.Post("/analyze", rt.analyze)
			r.Post("/analyze/handwritten", rt.analyzeHandwritten)
			r.Post("/analyze/ai", rt.analyzeAI)
			r.Post("/classify-donut", rt.classifyDonut)
			r.Patch("/category", rt.updateCategory)
			r.Delete("/", rt.deleteDocument)
		})
	})

	r.Get("/files/{filename}", rt.serveFile)
	r.Get("/healthz", rt.healthz)
	r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())

	return r
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
