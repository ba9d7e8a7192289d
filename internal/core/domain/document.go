package domain

import "time"

// Document is one uploaded file plus its derived metadata and
// enrichment results. Nullable columns map to pointer fields.
type Document struct {
	ID                  string    `json:"id"`
	Filename            string    `json:"filename"`
	OriginalName        string    `json:"original_name"`
	FilePath            string    `json:"file_path"`
	FileSize            int64     `json:"file_size"`
	MimeType            string    `json:"mime_type"`
	ExtractedText       *string   `json:"extracted_text"`
	IndexedText         *string   `json:"indexed_text"`
	ImageWidth          *int      `json:"image_width"`
	ImageHeight         *int      `json:"image_height"`
	PDFPageCount        *int      `json:"pdf_page_count"`
	AIClassification    *string   `json:"ai_classification"`
	AISummary           *string   `json:"ai_summary"`
	DonutClassification *string   `json:"donut_classification"`
	Folder              *string   `json:"folder"`
	UploadDate          time.Time `json:"upload_date"`
}

// HasIndexedText reports whether the document carries non-blank searchable text.
func (d *Document) HasIndexedText() bool {
	return d.IndexedText != nil && trimmedNonEmpty(*d.IndexedText)
}

// Extraction is the format-dependent output of content extraction.
// Text is nil when the file carries no extractable text.
type Extraction struct {
	Text         *string
	ImageWidth   *int
	ImageHeight  *int
	PDFPageCount *int
}

// EnrichmentResult is the parsed outcome of one classification/summary call.
// When the reply could not be parsed, Classification is nil and Summary
// holds the raw reply.
type EnrichmentResult struct {
	Classification *string `json:"classification"`
	Summary        *string `json:"summary"`
	Raw            string  `json:"raw"`
}

// BulkJobProgress is the polling view of one batch ingestion job.
// Persisted counts the files that produced a document row; only those
// are ever enriched, so completion is measured against it.
type BulkJobProgress struct {
	Total     int `json:"total"`
	Uploaded  int `json:"uploaded"`
	Enriched  int `json:"enriched"`
	Persisted int `json:"persisted"`
}

// Done reports whether the upload loop has accounted for every file and
// the enrichment worker for every persisted document.
func (p BulkJobProgress) Done() bool {
	return p.Uploaded >= p.Total && p.Enriched >= p.Persisted
}
