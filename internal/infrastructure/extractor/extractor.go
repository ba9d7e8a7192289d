package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docvault/internal/core/domain"
)

const (
	mimePDF   = "application/pdf"
	mimeJPEG  = "image/jpeg"
	mimePNG   = "image/png"
	mimeText  = "text/plain"
	mimeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeExcel = "application/vnd.ms-excel"
)

// Extractor pulls text and format metadata out of stored files at upload
// time. It is the cheap pass: embedded PDF text, plain file reads and
// spreadsheet cells, never OCR.
type Extractor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract never fails the caller. Anything that goes wrong with a single
// file is logged and the document is stored without extracted text.
func (e *Extractor) Extract(ctx context.Context, path, mimeType string, presetText *string) domain.Extraction {
	var ex domain.Extraction

	switch mimeType {
	case mimeText:
		text, err := readPlainText(path)
		if err != nil {
			e.logSkipped(path, mimeType, err)
			return ex
		}
		ex.Text = &text

	case mimePDF:
		text, pages, err := e.PDFText(ctx, path)
		if err != nil {
			e.logSkipped(path, mimeType, err)
			return ex
		}
		ex.PDFPageCount = &pages
		if text != "" {
			ex.Text = &text
		}

	case mimeJPEG, mimePNG:
		w, h, err := imageDimensions(path)
		if err != nil {
			e.logSkipped(path, mimeType, err)
		} else {
			ex.ImageWidth = &w
			ex.ImageHeight = &h
		}
		// Images carry no embedded text; a caller-provided recognition
		// result is the only text source at upload time.
		if presetText != nil && strings.TrimSpace(*presetText) != "" {
			text := *presetText
			ex.Text = &text
		}

	case mimeXLSX, mimeExcel:
		text, err := spreadsheetText(path)
		if err != nil {
			e.logSkipped(path, mimeType, err)
			return ex
		}
		if text != "" {
			ex.Text = &text
		}

	default:
		e.logger.Warn("no extraction strategy for mime type", "path", path, "mime_type", mimeType)
	}

	return ex
}

// PDFText parses the embedded text layer of a PDF. Scanned PDFs typically
// return a page count and an empty string.
func (e *Extractor) PDFText(ctx context.Context, path string) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pages := reader.NumPage()

	var buf bytes.Buffer
	content, err := reader.GetPlainText()
	if err != nil {
		return "", pages, fmt.Errorf("read pdf text: %w", err)
	}
	if _, err := buf.ReadFrom(content); err != nil {
		return "", pages, fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(buf.String()), pages, nil
}

func (e *Extractor) logSkipped(path, mimeType string, err error) {
	e.logger.Warn("content extraction skipped", "path", path, "mime_type", mimeType, "error", err)
}

func readPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func imageDimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// spreadsheetText flattens all sheets into tab-separated rows, one sheet
// after another, so spreadsheet content is searchable like any document.
func spreadsheetText(path string) (string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var sb strings.Builder
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
