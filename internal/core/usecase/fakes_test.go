package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/kirillkom/docvault/internal/core/domain"
	"github.com/kirillkom/docvault/internal/core/ports"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRepo struct {
	docs map[string]*domain.Document

	nextID    int
	insertErr error

	classifications    []string
	classificationsErr error

	updateEnrichErr   error
	updateCategoryErr error

	enrichments     []enrichmentUpdate
	extractions     []extractionUpdate
	donutLabels     map[string]string
	categoryUpdates []categoryUpdate
	deleted         []string
}

type enrichmentUpdate struct {
	id                      string
	classification, summary *string
}

type extractionUpdate struct {
	id, text, indexedText string
}

type categoryUpdate struct {
	id, category, folder, filePath string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:        make(map[string]*domain.Document),
		donutLabels: make(map[string]string),
	}
}

func (r *fakeRepo) add(doc *domain.Document) *domain.Document {
	r.docs[doc.ID] = doc
	return doc
}

func (r *fakeRepo) Insert(ctx context.Context, doc *domain.Document) (string, error) {
	if r.insertErr != nil {
		return "", r.insertErr
	}
	r.nextID++
	doc.ID = fmt.Sprintf("doc-%d", r.nextID)
	r.docs[doc.ID] = doc
	return doc.ID, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeRepo) DeleteByID(ctx context.Context, id string) error {
	if _, ok := r.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(r.docs, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeRepo) ListAll(ctx context.Context) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range r.docs {
		out = append(out, *doc)
	}
	return out, nil
}

func (r *fakeRepo) ListByFolder(ctx context.Context, folder string) ([]domain.Document, error) {
	var out []domain.Document
	for _, doc := range r.docs {
		if doc.Folder != nil && *doc.Folder == folder {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateExtraction(ctx context.Context, id, text, indexedText string) error {
	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	doc.ExtractedText = &text
	doc.IndexedText = &indexedText
	r.extractions = append(r.extractions, extractionUpdate{id: id, text: text, indexedText: indexedText})
	return nil
}

func (r *fakeRepo) UpdateEnrichment(ctx context.Context, id string, classification, summary *string) error {
	if r.updateEnrichErr != nil {
		return r.updateEnrichErr
	}
	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	doc.AIClassification = classification
	doc.AISummary = summary
	r.enrichments = append(r.enrichments, enrichmentUpdate{id: id, classification: classification, summary: summary})
	return nil
}

func (r *fakeRepo) UpdateDonut(ctx context.Context, id, label string) error {
	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	doc.DonutClassification = &label
	r.donutLabels[id] = label
	return nil
}

func (r *fakeRepo) UpdateCategory(ctx context.Context, id, category, folder, filePath string) error {
	if r.updateCategoryErr != nil {
		return r.updateCategoryErr
	}
	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	doc.AIClassification = &category
	doc.Folder = &folder
	doc.FilePath = filePath
	r.categoryUpdates = append(r.categoryUpdates, categoryUpdate{id: id, category: category, folder: folder, filePath: filePath})
	return nil
}

func (r *fakeRepo) DistinctFolders(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (r *fakeRepo) DistinctClassifications(ctx context.Context) ([]string, error) {
	return r.classifications, r.classificationsErr
}

func (r *fakeRepo) Search(ctx context.Context, filter domain.SearchFilter) (domain.SearchResult, error) {
	return domain.SearchResult{}, nil
}

type fakeFileStore struct {
	root string

	saveErr   error
	moveErr   error
	removeErr error

	saved   []string
	removed []string
	moves   [][2]string
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{root: "/uploads"}
}

func (s *fakeFileStore) Save(ctx context.Context, storedName string, data io.Reader) (string, int64, error) {
	if s.saveErr != nil {
		return "", 0, s.saveErr
	}
	n, err := io.Copy(io.Discard, data)
	if err != nil {
		return "", 0, err
	}
	path := filepath.Join(s.root, storedName)
	s.saved = append(s.saved, path)
	return path, n, nil
}

func (s *fakeFileStore) MoveToFolder(ctx context.Context, currentPath, folder, storedName string) (string, error) {
	if s.moveErr != nil {
		return "", s.moveErr
	}
	target := filepath.Join(s.root, folder, storedName)
	if target != currentPath {
		s.moves = append(s.moves, [2]string{currentPath, target})
	}
	return target, nil
}

func (s *fakeFileStore) Move(ctx context.Context, from, to string) error {
	s.moves = append(s.moves, [2]string{from, to})
	return nil
}

func (s *fakeFileStore) Remove(ctx context.Context, path string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	s.removed = append(s.removed, path)
	return nil
}

func (s *fakeFileStore) Resolve(ctx context.Context, storedName string) (string, error) {
	return filepath.Join(s.root, storedName), nil
}

type fakeExtractor struct {
	extraction domain.Extraction

	pdfText  string
	pdfPages int
	pdfErr   error
}

func (e *fakeExtractor) Extract(ctx context.Context, path, mimeType string, presetText *string) domain.Extraction {
	if presetText != nil {
		return domain.Extraction{Text: presetText}
	}
	return e.extraction
}

func (e *fakeExtractor) PDFText(ctx context.Context, path string) (string, int, error) {
	return e.pdfText, e.pdfPages, e.pdfErr
}

type fakeEnricher struct {
	result domain.EnrichmentResult
	err    error

	gotTexts      []string
	gotCategories [][]string
}

func (e *fakeEnricher) ClassifyAndSummarize(ctx context.Context, text string, knownCategories []string) (domain.EnrichmentResult, error) {
	e.gotTexts = append(e.gotTexts, text)
	e.gotCategories = append(e.gotCategories, knownCategories)
	if e.err != nil {
		return domain.EnrichmentResult{}, e.err
	}
	return e.result, nil
}

type fakeOCR struct {
	imageText       string
	imageErr        error
	handwrittenText string
	handwrittenErr  error
	pdfText         string
	pdfErr          error
}

func (o *fakeOCR) RecognizeImage(ctx context.Context, path string) (string, error) {
	return o.imageText, o.imageErr
}

func (o *fakeOCR) RecognizeImageHandwritten(ctx context.Context, path string) (string, error) {
	return o.handwrittenText, o.handwrittenErr
}

func (o *fakeOCR) RecognizePDFHandwritten(ctx context.Context, path string) (string, error) {
	return o.pdfText, o.pdfErr
}

type fakeDonut struct {
	label string
	err   error
	paths []string
}

func (d *fakeDonut) Classify(ctx context.Context, filePath string) (string, error) {
	d.paths = append(d.paths, filePath)
	if d.err != nil {
		return "", d.err
	}
	return d.label, nil
}

var (
	_ ports.DocumentRepository = (*fakeRepo)(nil)
	_ ports.FileStore          = (*fakeFileStore)(nil)
	_ ports.ContentExtractor   = (*fakeExtractor)(nil)
	_ ports.Enricher           = (*fakeEnricher)(nil)
	_ ports.OCREngine          = (*fakeOCR)(nil)
	_ ports.ImageClassifier    = (*fakeDonut)(nil)
)
