package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/docvault/internal/core/domain"
)

func TestUpdateCategoryMovesFileThenRow(t *testing.T) {
	repo := newFakeRepo()
	files := newFakeFileStore()
	repo.add(&domain.Document{
		ID:       "doc-1",
		Filename: "abc_bill.pdf",
		FilePath: "/uploads/abc_bill.pdf",
		MimeType: "application/pdf",
	})

	uc := NewCurateUseCase(repo, files, testLogger())
	if err := uc.UpdateCategory(context.Background(), "doc-1", "Utility Bills"); err != nil {
		t.Fatalf("UpdateCategory() error = %v", err)
	}

	if len(repo.categoryUpdates) != 1 {
		t.Fatalf("expected one metadata update")
	}
	update := repo.categoryUpdates[0]
	if update.category != "Utility Bills" {
		t.Fatalf("raw category must reach the row, got %q", update.category)
	}
	if update.folder != "Utility_Bills" {
		t.Fatalf("folder must be the sanitized category, got %q", update.folder)
	}
	if update.filePath != "/uploads/Utility_Bills/abc_bill.pdf" {
		t.Fatalf("file path must follow the move, got %q", update.filePath)
	}
}

func TestUpdateCategoryRejectsBlankCategory(t *testing.T) {
	uc := NewCurateUseCase(newFakeRepo(), newFakeFileStore(), testLogger())
	for _, category := range []string{"", "   ", "###"} {
		if err := uc.UpdateCategory(context.Background(), "doc-1", category); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("category %q: expected ErrInvalidInput, got %v", category, err)
		}
	}
}

func TestUpdateCategoryUnknownDocument(t *testing.T) {
	uc := NewCurateUseCase(newFakeRepo(), newFakeFileStore(), testLogger())
	if err := uc.UpdateCategory(context.Background(), "missing", "invoices"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestUpdateCategoryMovesFileBackWhenRowUpdateFails(t *testing.T) {
	repo := newFakeRepo()
	files := newFakeFileStore()
	repo.add(&domain.Document{
		ID:       "doc-1",
		Filename: "abc_bill.pdf",
		FilePath: "/uploads/abc_bill.pdf",
	})
	repo.updateCategoryErr = errors.New("db down")

	uc := NewCurateUseCase(repo, files, testLogger())
	if err := uc.UpdateCategory(context.Background(), "doc-1", "invoices"); err == nil {
		t.Fatalf("expected error")
	}

	if len(files.moves) != 2 {
		t.Fatalf("expected move and rollback, got %v", files.moves)
	}
	rollback := files.moves[1]
	if rollback[0] != "/uploads/invoices/abc_bill.pdf" || rollback[1] != "/uploads/abc_bill.pdf" {
		t.Fatalf("unexpected rollback move %v", rollback)
	}
}

func TestDeleteRemovesFileAndRow(t *testing.T) {
	repo := newFakeRepo()
	files := newFakeFileStore()
	repo.add(&domain.Document{ID: "doc-1", FilePath: "/uploads/abc_bill.pdf"})

	uc := NewCurateUseCase(repo, files, testLogger())
	if err := uc.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(files.removed) != 1 || files.removed[0] != "/uploads/abc_bill.pdf" {
		t.Fatalf("stored file must be removed, got %v", files.removed)
	}
	if len(repo.deleted) != 1 {
		t.Fatalf("row must be deleted")
	}
}

func TestDeleteSucceedsWhenFileRemovalFails(t *testing.T) {
	repo := newFakeRepo()
	files := newFakeFileStore()
	files.removeErr = errors.New("disk error")
	repo.add(&domain.Document{ID: "doc-1", FilePath: "/uploads/abc_bill.pdf"})

	uc := NewCurateUseCase(repo, files, testLogger())
	if err := uc.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatalf("row must be deleted despite file removal failure")
	}
}

func TestDeleteUnknownDocument(t *testing.T) {
	uc := NewCurateUseCase(newFakeRepo(), newFakeFileStore(), testLogger())
	if err := uc.Delete(context.Background(), "missing"); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
