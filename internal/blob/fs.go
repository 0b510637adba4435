package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FS stores blobs as flat files under a root directory.
type FS struct {
	root string
}

// NewFS creates the root directory if needed and returns a store rooted
// there. MkdirAll keeps first-use racing callers from failing each other.
func NewFS(root string) (*FS, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create blob root %q: %w", root, err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve blob root: %w", err)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute storage root.
func (s *FS) Root() string { return s.root }

func (s *FS) WriteOriginal(id int64, r io.Reader) error {
	dest := filepath.Join(s.root, OriginalName(id))

	// O_EXCL makes create-once atomic; a second writer for the same id
	// gets ErrConflict instead of clobbering the first.
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: id %d", ErrConflict, id)
		}
		return fmt.Errorf("create original %q: %w", dest, err)
	}

	_, werr := io.Copy(f, r)
	cerr := f.Close()
	if werr != nil {
		os.Remove(dest)
		return fmt.Errorf("write original %q: %w", dest, werr)
	}
	if cerr != nil {
		os.Remove(dest)
		return fmt.Errorf("flush original %q: %w", dest, cerr)
	}
	return nil
}

func (s *FS) ReadOriginal(id int64) (io.ReadCloser, int64, error) {
	path := filepath.Join(s.root, OriginalName(id))
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, 0, fmt.Errorf("open original %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat original %q: %w", path, err)
	}
	return f, info.Size(), nil
}

// WriteThumbnail replaces any existing thumbnail via temp-file + rename
// so a concurrent reader never observes partial bytes.
func (s *FS) WriteThumbnail(id int64, data []byte) error {
	dest := filepath.Join(s.root, ThumbnailName(id))
	tmp := dest + ".tmp"

	if err := os.WriteFile(tmp, data, 0o640); err != nil {
		return fmt.Errorf("write thumbnail tmp %q: %w", tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename thumbnail to %q: %w", dest, err)
	}
	return nil
}

func (s *FS) HasThumbnail(id int64) bool {
	_, err := os.Stat(filepath.Join(s.root, ThumbnailName(id)))
	return err == nil
}
