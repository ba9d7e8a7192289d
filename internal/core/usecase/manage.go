package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirillkom/docvault/internal/core/domain"
	"github.com/kirillkom/docvault/internal/core/ports"
)

// CurateUseCase owns the operations that change where a document lives:
// recategorization (which moves the stored file) and deletion.
type CurateUseCase struct {
	repo   ports.DocumentRepository
	files  ports.FileStore
	logger *slog.Logger
}

func NewCurateUseCase(repo ports.DocumentRepository, files ports.FileStore, logger *slog.Logger) *CurateUseCase {
	return &CurateUseCase{repo: repo, files: files, logger: logger}
}

// UpdateCategory moves the file into the category folder first and only
// then updates the row, so a failed metadata write can put the file back.
func (u *CurateUseCase) UpdateCategory(ctx context.Context, id, category string) error {
	if strings.TrimSpace(category) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "update category", fmt.Errorf("category is required"))
	}
	folder := sanitizeFolder(category)
	if folder == "" {
		return domain.WrapError(domain.ErrInvalidInput, "update category", fmt.Errorf("unusable category name %q", category))
	}

	doc, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	newPath, err := u.files.MoveToFolder(ctx, doc.FilePath, folder, doc.Filename)
	if err != nil {
		return fmt.Errorf("move file to category folder: %w", err)
	}

	if err := u.repo.UpdateCategory(ctx, id, category, folder, newPath); err != nil {
		if newPath != doc.FilePath {
			if moveBack := u.files.Move(ctx, newPath, doc.FilePath); moveBack != nil {
				u.logger.Error("file stranded after failed recategorization", "document_id", id, "path", newPath, "error", moveBack)
			}
		}
		return err
	}
	return nil
}

// Delete removes the row even when the stored file is already gone.
func (u *CurateUseCase) Delete(ctx context.Context, id string) error {
	doc, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := u.files.Remove(ctx, doc.FilePath); err != nil && !domain.IsKind(err, domain.ErrDocumentNotFound) {
		u.logger.Warn("stored file removal failed", "document_id", id, "path", doc.FilePath, "error", err)
	}

	return u.repo.DeleteByID(ctx, id)
}
