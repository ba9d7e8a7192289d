package localfs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/docvault/internal/core/domain"
)

// Store keeps uploaded files under a single root directory. Category
// subdirectories are created lazily on the first move into them.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve upload root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &Store{root: abs}, nil
}

func (s *Store) Root() string { return s.root }

func (s *Store) Save(ctx context.Context, storedName string, data io.Reader) (string, int64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if !validStoredName(storedName) {
		return "", 0, domain.WrapError(domain.ErrInvalidInput, "save file", fmt.Errorf("unsafe stored name %q", storedName))
	}
	path := filepath.Join(s.root, storedName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", storedName, err)
	}
	n, err := io.Copy(f, data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write %s: %w", storedName, err)
	}
	return path, n, nil
}

func (s *Store) MoveToFolder(ctx context.Context, currentPath, folder, storedName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validStoredName(storedName) || !validStoredName(folder) {
		return "", domain.WrapError(domain.ErrInvalidInput, "move to folder", fmt.Errorf("unsafe path component"))
	}
	dir := filepath.Join(s.root, folder)
	target := filepath.Join(dir, storedName)
	if target == currentPath {
		return target, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create folder %s: %w", folder, err)
	}
	if err := os.Rename(currentPath, target); err != nil {
		return "", fmt.Errorf("move %s into %s: %w", storedName, folder, err)
	}
	return target, nil
}

func (s *Store) Move(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.contains(from) || !s.contains(to) {
		return domain.WrapError(domain.ErrInvalidInput, "move file", fmt.Errorf("path escapes upload root"))
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("move file: %w", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.contains(path) {
		return domain.WrapError(domain.ErrInvalidInput, "remove file", fmt.Errorf("path escapes upload root"))
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return domain.WrapError(domain.ErrDocumentNotFound, "remove file", err)
		}
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// Resolve walks the upload root so files remain reachable after they have
// been moved into a category subdirectory.
func (s *Store) Resolve(ctx context.Context, storedName string) (string, error) {
	if !validStoredName(storedName) {
		return "", domain.WrapError(domain.ErrInvalidInput, "resolve file", fmt.Errorf("unsafe stored name %q", storedName))
	}

	direct := filepath.Join(s.root, storedName)
	if _, err := os.Stat(direct); err == nil {
		return direct, nil
	}

	var found string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if !d.IsDir() && d.Name() == storedName {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan upload root: %w", err)
	}
	if found == "" {
		return "", domain.WrapError(domain.ErrDocumentNotFound, "resolve file", fmt.Errorf("%s not stored", storedName))
	}
	return found, nil
}

func (s *Store) contains(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// validStoredName rejects anything that could address outside the root:
// stored names are single flat path components.
func validStoredName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
