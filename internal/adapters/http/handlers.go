package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/docvault/internal/core/domain"
	"github.com/kirillkom/docvault/internal/core/ports"
)

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	file, cleanup, err := rt.singleUploadFile(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	doc, err := rt.ingest.Upload(r.Context(), file)
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (rt *Router) singleUploadFile(w http.ResponseWriter, r *http.Request) (ports.IncomingFile, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(rt.opts.MaxUploadBytes); err != nil {
		return ports.IncomingFile{}, func() {}, uploadSizeError(err)
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		return ports.IncomingFile{}, func() {}, fmt.Errorf("multipart field 'file' is required")
	}

	file := ports.IncomingFile{
		OriginalName: header.Filename,
		MimeType:     mediaType(header),
		Body:         f,
	}
	if ocrText := strings.TrimSpace(r.FormValue("ocr_text")); ocrText != "" {
		file.PresetOCRText = &ocrText
	}
	return file, func() { _ = f.Close() }, nil
}

func (rt *Router) bulkUpload(w http.ResponseWriter, r *http.Request) {
	// Whole-batch cap: per-file limit times the batch limit.
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes*int64(rt.opts.MaxBatchFiles))
	if err := r.ParseMultipartForm(rt.opts.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, uploadSizeError(err).Error())
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		writeError(w, http.StatusBadRequest, "multipart field 'files' is required")
		return
	}

	ocrTexts := map[string]string{}
	if raw := r.FormValue("ocr_texts"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &ocrTexts); err != nil {
			writeError(w, http.StatusBadRequest, "ocr_texts must be a JSON object of filename to text")
			return
		}
	}

	headers := r.MultipartForm.File["files"]
	files := make([]ports.IncomingFile, 0, len(headers))
	var open []io.Closer
	defer func() {
		for _, c := range open {
			_ = c.Close()
		}
	}()

	for _, header := range headers {
		if header.Size > rt.opts.MaxUploadBytes {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("file %s exceeds the %d byte limit", header.Filename, rt.opts.MaxUploadBytes))
			return
		}
		f, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unreadable multipart file %s", header.Filename))
			return
		}
		open = append(open, f)

		file := ports.IncomingFile{
			OriginalName: header.Filename,
			MimeType:     mediaType(header),
			Body:         f,
		}
		if text, ok := ocrTexts[header.Filename]; ok && strings.TrimSpace(text) != "" {
			preset := text
			file.PresetOCRText = &preset
		}
		files = append(files, file)
	}

	jobID, err := rt.ingest.BulkUpload(r.Context(), files, r.FormValue("folder"))
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"jobId": jobID,
		"total": len(files),
	})
}

func (rt *Router) bulkProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	progress, found, err := rt.tracker.Progress(r.Context(), jobID)
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"total":      progress.Total,
		"uploaded":   progress.Uploaded,
		"aiAnalyzed": progress.Enriched,
	})
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.repo.ListAll(r.Context())
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentsOrEmpty(docs))
}

func (rt *Router) listFolders(w http.ResponseWriter, r *http.Request) {
	folders, err := rt.repo.DistinctFolders(r.Context())
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	if folders == nil {
		folders = []string{}
	}
	writeJSON(w, http.StatusOK, folders)
}

func (rt *Router) listByFolder(w http.ResponseWriter, r *http.Request) {
	folder := chi.URLParam(r, "folder")

	docs, err := rt.repo.ListByFolder(r.Context(), folder)
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentsOrEmpty(docs))
}

type searchRequest struct {
	Query    string `json:"query"`
	Category string `json:"category"`
	FileType string `json:"fileType"`
	DateFrom string `json:"dateFrom"`
	DateTo   string `json:"dateTo"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

func (rt *Router) searchDocuments(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	filter := domain.SearchFilter{
		Query:    req.Query,
		Category: req.Category,
		FileType: req.FileType,
		Page:     req.Page,
		PageSize: req.PageSize,
	}

	var err error
	if filter.DateFrom, err = parseDateBound(req.DateFrom, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid dateFrom")
		return
	}
	if filter.DateTo, err = parseDateBound(req.DateTo, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid dateTo")
		return
	}

	result, err := rt.repo.Search(r.Context(), filter)
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": documentsOrEmpty(result.Documents),
		"total":     result.Total,
	})
}

func (rt *Router) analyze(w http.ResponseWriter, r *http.Request) {
	text, err := rt.analyzer.ReRunOCR(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"extracted_text": text})
}

func (rt *Router) analyzeHandwritten(w http.ResponseWriter, r *http.Request) {
	text, err := rt.analyzer.ReRunHandwrittenOCR(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"extracted_text": text})
}

func (rt *Router) analyzeAI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Categories []string `json:"categories"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := rt.analyzer.Enrich(r.Context(), chi.URLParam(r, "id"), req.Categories)
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) classifyDonut(w http.ResponseWriter, r *http.Request) {
	label, err := rt.analyzer.ClassifyDonut(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"donut_classification": label})
}

func (rt *Router) updateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		writeError(w, http.StatusBadRequest, "category is required")
		return
	}

	if err := rt.curator.UpdateCategory(r.Context(), chi.URLParam(r, "id"), req.Category); err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := rt.curator.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (rt *Router) serveFile(w http.ResponseWriter, r *http.Request) {
	path, err := rt.files.Resolve(r.Context(), chi.URLParam(r, "filename"))
	if err != nil {
		rt.writeMappedError(w, r, err)
		return
	}
	http.ServeFile(w, r, path)
}

func mediaType(header *multipart.FileHeader) string {
	ct := header.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(ct)
}

func uploadSizeError(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return fmt.Errorf("request exceeds the %d byte upload limit", maxBytes.Limit)
	}
	return fmt.Errorf("invalid multipart request")
}

// parseDateBound accepts RFC 3339 timestamps or bare dates; a bare date on
// the upper bound covers the whole day.
func parseDateBound(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return &t, nil
}

func documentsOrEmpty(docs []domain.Document) []domain.Document {
	if docs == nil {
		return []domain.Document{}
	}
	return docs
}
