// Package donut shells out to a vision-transformer document classifier
// running as a Python script. The model answers with a single label on
// stdout; anything else is a failure.
package donut

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

type Classifier struct {
	command string
	script  string
	timeout time.Duration
	logger  *slog.Logger
}

func NewClassifier(command, script string, timeout time.Duration, logger *slog.Logger) *Classifier {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Classifier{
		command: command,
		script:  script,
		timeout: timeout,
		logger:  logger,
	}
}

// Classify runs the script against the stored file. Unlike the text
// enrichment path there is no lenient fallback here: a non-zero exit or an
// empty reply is a hard error carrying the script's stderr.
func (c *Classifier) Classify(ctx context.Context, filePath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.command, c.script, filePath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("donut classification timed out after %s", c.timeout)
		}
		return "", fmt.Errorf("donut classification failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	label := strings.TrimSpace(stdout.String())
	if label == "" {
		return "", fmt.Errorf("donut classification produced no output: %s", strings.TrimSpace(stderr.String()))
	}

	c.logger.Info("donut classification finished", "file", filePath, "label", label, "duration_ms", elapsed.Milliseconds())
	return label, nil
}
