package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kirillkom/docvault/internal/core/domain"
)

// NoTextFound is stored when recognition ran but produced nothing, so a
// processed document is distinguishable from an unprocessed one.
const NoTextFound = "No text found"

// handwrittenSegmentModes are tried in order on the preprocessed image:
// uniform block, single line, single word. The longest result wins.
var handwrittenSegmentModes = []string{"6", "7", "8"}

// Engine shells out to tesseract (and pdftoppm for PDF rasterization).
// Both binaries are host dependencies, validated at startup.
type Engine struct {
	tesseractCmd string
	pdftoppmCmd  string
	logger       *slog.Logger
}

func NewEngine(tesseractCmd, pdftoppmCmd string, logger *slog.Logger) *Engine {
	return &Engine{
		tesseractCmd: tesseractCmd,
		pdftoppmCmd:  pdftoppmCmd,
		logger:       logger,
	}
}

func (e *Engine) RecognizeImage(ctx context.Context, path string) (string, error) {
	text, err := e.runTesseract(ctx, path, "")
	if err != nil {
		return "", err
	}
	if text == "" {
		return NoTextFound, nil
	}
	return text, nil
}

// RecognizeImageHandwritten cleans the scan up first and then tries several
// page segmentation modes, keeping whichever produced the most text.
func (e *Engine) RecognizeImageHandwritten(ctx context.Context, path string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "docvault-ocr-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	cleaned, err := preprocessFile(path, tmpDir)
	if err != nil {
		return "", fmt.Errorf("preprocess image: %w", err)
	}
	return e.recognizeHandwrittenPage(ctx, cleaned)
}

// RecognizePDFHandwritten rasterizes every page at 300 DPI and runs the
// handwriting pass per page, joining results with page markers.
func (e *Engine) RecognizePDFHandwritten(ctx context.Context, path string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "docvault-ocr-pdf-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, e.pdftoppmCmd, "-r", "300", "-png", path, prefix)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("rasterize pdf: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return "", fmt.Errorf("list rasterized pages: %w", err)
	}
	if len(pages) == 0 {
		return "", domain.WrapError(domain.ErrInvalidInput, "recognize pdf", fmt.Errorf("no pages rasterized"))
	}
	sort.Strings(pages)

	var parts []string
	for i, page := range pages {
		pageDir := filepath.Join(tmpDir, fmt.Sprintf("pre-%d", i))
		if err := os.MkdirAll(pageDir, 0o755); err != nil {
			return "", fmt.Errorf("create page temp dir: %w", err)
		}
		cleaned, err := preprocessFile(page, pageDir)
		if err != nil {
			return "", fmt.Errorf("preprocess page %d: %w", i+1, err)
		}
		text, err := e.recognizeHandwrittenPage(ctx, cleaned)
		if err != nil {
			return "", fmt.Errorf("recognize page %d: %w", i+1, err)
		}
		parts = append(parts, fmt.Sprintf("--- Page %d ---\n%s", i+1, text))
	}
	return strings.Join(parts, "\n\n"), nil
}

func (e *Engine) recognizeHandwrittenPage(ctx context.Context, path string) (string, error) {
	best := ""
	for _, psm := range handwrittenSegmentModes {
		text, err := e.runTesseract(ctx, path, psm)
		if err != nil {
			if ctx.Err() != nil {
				return "", err
			}
			e.logger.Warn("segmentation attempt failed", "psm", psm, "error", err)
			continue
		}
		if len(text) > len(best) {
			best = text
		}
	}
	if best == "" {
		return NoTextFound, nil
	}
	return best, nil
}

func (e *Engine) runTesseract(ctx context.Context, path, psm string) (string, error) {
	args := []string{path, "stdout"}
	if psm != "" {
		args = append(args, "--psm", psm)
	}
	cmd := exec.CommandContext(ctx, e.tesseractCmd, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
