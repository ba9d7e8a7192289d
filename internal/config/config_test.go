package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("UPLOAD_DIR", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("MAX_BATCH_FILES", "")
	t.Setenv("JOB_TRACKER_BACKEND", "")

	cfg := Load()
	if cfg.UploadDir != "./data/uploads" {
		t.Fatalf("expected default upload dir, got %q", cfg.UploadDir)
	}
	if cfg.MaxUploadBytes != 10*1024*1024 {
		t.Fatalf("expected 10MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.MaxBatchFiles != 100 {
		t.Fatalf("expected 100 batch files limit, got %d", cfg.MaxBatchFiles)
	}
	if cfg.JobTrackerBackend != "memory" {
		t.Fatalf("expected memory job tracker default, got %q", cfg.JobTrackerBackend)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("MAX_BATCH_FILES", "10")
	t.Setenv("JOB_RETENTION_MINUTES", "5")

	cfg := Load()
	if cfg.MaxUploadBytes != 1048576 {
		t.Fatalf("expected 1MB override, got %d", cfg.MaxUploadBytes)
	}
	if cfg.MaxBatchFiles != 10 {
		t.Fatalf("expected batch files override 10, got %d", cfg.MaxBatchFiles)
	}
	if cfg.JobRetentionMinutes != 5 {
		t.Fatalf("expected retention override 5, got %d", cfg.JobRetentionMinutes)
	}
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("MAX_BATCH_FILES", "not-a-number")

	cfg := Load()
	if cfg.MaxBatchFiles != 100 {
		t.Fatalf("expected fallback on malformed int, got %d", cfg.MaxBatchFiles)
	}
}

func TestLoadWithFileMergesUnderEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("upload_dir: /srv/uploads\nollama_model: llama3.1:8b\nmax_batch_files: 25\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("OLLAMA_MODEL", "mistral:7b")
	os.Unsetenv("UPLOAD_DIR")
	os.Unsetenv("MAX_BATCH_FILES")

	cfg, err := LoadWithFile(path)
	if err != nil {
		t.Fatalf("LoadWithFile() error = %v", err)
	}
	if cfg.UploadDir != "/srv/uploads" {
		t.Fatalf("expected file value for upload dir, got %q", cfg.UploadDir)
	}
	if cfg.OllamaModel != "mistral:7b" {
		t.Fatalf("expected env to win over file, got %q", cfg.OllamaModel)
	}
	if cfg.MaxBatchFiles != 25 {
		t.Fatalf("expected file value for batch files, got %d", cfg.MaxBatchFiles)
	}
	if cfg.APIPort != "8080" {
		t.Fatalf("expected default to fill unset key, got %q", cfg.APIPort)
	}
}

func TestLoadWithFileRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("upload_dir: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	if _, err := LoadWithFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
