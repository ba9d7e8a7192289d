package donut

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fakeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "classify.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write fake script: %v", err)
	}
	return path
}

func newClassifier(script string, timeout time.Duration) *Classifier {
	return NewClassifier("sh", script, timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClassifyReturnsTrimmedLabel(t *testing.T) {
	script := fakeScript(t, `printf ' invoice \n'`)
	label, err := newClassifier(script, time.Minute).Classify(context.Background(), "doc.png")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if label != "invoice" {
		t.Fatalf("expected trimmed label, got %q", label)
	}
}

func TestClassifyPassesFilePathToScript(t *testing.T) {
	script := fakeScript(t, `printf '%s' "$1"`)
	label, err := newClassifier(script, time.Minute).Classify(context.Background(), "/data/uploads/doc.png")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if label != "/data/uploads/doc.png" {
		t.Fatalf("script did not receive file path, got %q", label)
	}
}

func TestClassifyNonZeroExitIsHardError(t *testing.T) {
	script := fakeScript(t, `echo 'CUDA out of memory' >&2; exit 3`)
	_, err := newClassifier(script, time.Minute).Classify(context.Background(), "doc.png")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestClassifyEmptyOutputIsHardError(t *testing.T) {
	script := fakeScript(t, `printf '   \n'`)
	if _, err := newClassifier(script, time.Minute).Classify(context.Background(), "doc.png"); err == nil {
		t.Fatalf("expected error for empty output")
	}
}

func TestClassifyTimesOut(t *testing.T) {
	script := fakeScript(t, `sleep 5; echo late`)
	_, err := newClassifier(script, 50*time.Millisecond).Classify(context.Background(), "doc.png")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout message, got %v", err)
	}
}
