package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/docvault/internal/core/domain"
)

const documentColumns = `id, filename, original_name, file_path, file_size, mime_type,
	extracted_text, indexed_text, image_width, image_height, pdf_page_count,
	ai_classification, ai_summary, donut_classification, folder, upload_date`

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const baseTable = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	original_name TEXT NOT NULL,
	file_path TEXT NOT NULL,
	file_size BIGINT NOT NULL DEFAULT 0,
	mime_type TEXT NOT NULL DEFAULT '',
	extracted_text TEXT,
	indexed_text TEXT,
	image_width INTEGER,
	image_height INTEGER,
	pdf_page_count INTEGER,
	upload_date TIMESTAMPTZ NOT NULL
);
`
	// Enrichment columns arrived after the initial schema; migrations are
	// additive, nullable-only.
	const additive = `
ALTER TABLE documents ADD COLUMN IF NOT EXISTS ai_classification TEXT;
ALTER TABLE documents ADD COLUMN IF NOT EXISTS ai_summary TEXT;
ALTER TABLE documents ADD COLUMN IF NOT EXISTS donut_classification TEXT;
ALTER TABLE documents ADD COLUMN IF NOT EXISTS folder TEXT;
`
	const indexes = `
CREATE INDEX IF NOT EXISTS idx_documents_upload_date ON documents(upload_date DESC);
CREATE INDEX IF NOT EXISTS idx_documents_folder ON documents(folder);
`
	if _, err := tx.ExecContext(ctx, baseTable); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if _, err := tx.ExecContext(ctx, additive); err != nil {
		return fmt.Errorf("execute additive migrations: %w", err)
	}
	if _, err := tx.ExecContext(ctx, indexes); err != nil {
		return fmt.Errorf("execute schema indexes: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *DocumentRepository) Insert(ctx context.Context, doc *domain.Document) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadDate.IsZero() {
		doc.UploadDate = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, filename, original_name, file_path, file_size, mime_type,
	extracted_text, indexed_text, image_width, image_height, pdf_page_count,
	ai_classification, ai_summary, donut_classification, folder, upload_date
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
`,
		doc.ID, doc.Filename, doc.OriginalName, doc.FilePath, doc.FileSize, doc.MimeType,
		doc.ExtractedText, doc.IndexedText, doc.ImageWidth, doc.ImageHeight, doc.PDFPageCount,
		doc.AIClassification, doc.AISummary, doc.DonutClassification, doc.Folder, doc.UploadDate,
	)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return doc.ID, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return doc, nil
}

func (r *DocumentRepository) DeleteByID(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return requireRow(res, "delete document", id)
}

func (r *DocumentRepository) ListAll(ctx context.Context) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
ORDER BY upload_date DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return collectDocuments(rows)
}

func (r *DocumentRepository) ListByFolder(ctx context.Context, folder string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE folder = $1
ORDER BY upload_date DESC
`, folder)
	if err != nil {
		return nil, fmt.Errorf("list documents by folder: %w", err)
	}
	return collectDocuments(rows)
}

func (r *DocumentRepository) UpdateExtraction(ctx context.Context, id, text, indexedText string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET extracted_text = $2, indexed_text = $3
WHERE id = $1
`, id, text, indexedText)
	if err != nil {
		return fmt.Errorf("update extraction: %w", err)
	}
	return requireRow(res, "update extraction", id)
}

func (r *DocumentRepository) UpdateEnrichment(ctx context.Context, id string, classification, summary *string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET ai_classification = $2, ai_summary = $3
WHERE id = $1
`, id, classification, summary)
	if err != nil {
		return fmt.Errorf("update enrichment: %w", err)
	}
	return requireRow(res, "update enrichment", id)
}

func (r *DocumentRepository) UpdateDonut(ctx context.Context, id, label string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET donut_classification = $2
WHERE id = $1
`, id, label)
	if err != nil {
		return fmt.Errorf("update donut classification: %w", err)
	}
	return requireRow(res, "update donut classification", id)
}

func (r *DocumentRepository) UpdateCategory(ctx context.Context, id, category, folder, filePath string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET ai_classification = $2, folder = $3, file_path = $4
WHERE id = $1
`, id, category, folder, filePath)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res, "update category", id)
}

func (r *DocumentRepository) DistinctFolders(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT folder FROM documents
WHERE folder IS NOT NULL AND folder != ''
ORDER BY folder ASC
`)
	if err != nil {
		return nil, fmt.Errorf("distinct folders: %w", err)
	}
	return collectStrings(rows)
}

func (r *DocumentRepository) DistinctClassifications(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT DISTINCT ai_classification FROM documents
WHERE ai_classification IS NOT NULL AND ai_classification != ''
`)
	if err != nil {
		return nil, fmt.Errorf("distinct classifications: %w", err)
	}
	return collectStrings(rows)
}

func requireRow(res sql.Result, operation, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id %s", id))
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var (
		extractedText sql.NullString
		indexedText   sql.NullString
		imageWidth    sql.NullInt64
		imageHeight   sql.NullInt64
		pdfPageCount  sql.NullInt64
		aiClass       sql.NullString
		aiSummary     sql.NullString
		donut         sql.NullString
		folder        sql.NullString
	)

	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.OriginalName, &doc.FilePath, &doc.FileSize, &doc.MimeType,
		&extractedText, &indexedText, &imageWidth, &imageHeight, &pdfPageCount,
		&aiClass, &aiSummary, &donut, &folder, &doc.UploadDate,
	)
	if err != nil {
		return nil, err
	}

	doc.ExtractedText = nullableString(extractedText)
	doc.IndexedText = nullableString(indexedText)
	doc.ImageWidth = nullableInt(imageWidth)
	doc.ImageHeight = nullableInt(imageHeight)
	doc.PDFPageCount = nullableInt(pdfPageCount)
	doc.AIClassification = nullableString(aiClass)
	doc.AISummary = nullableString(aiSummary)
	doc.DonutClassification = nullableString(donut)
	doc.Folder = nullableString(folder)
	return &doc, nil
}

func collectDocuments(rows *sql.Rows) ([]domain.Document, error) {
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document rows: %w", err)
	}
	return docs, nil
}

func collectStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan string row: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate string rows: %w", err)
	}
	return values, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
