// Package blob stores image binaries keyed by their metadata identifier.
//
// Every identifier owns at most one original and one thumbnail. The
// original is written once and never replaced; the thumbnail may be
// rewritten at any time because it is derived deterministically from
// the original.
package blob

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrConflict is returned when an original already exists for the id.
	ErrConflict = errors.New("original already exists")

	// ErrNotFound is returned when no original exists for the id.
	ErrNotFound = errors.New("blob not found")
)

// Store is the blob persistence contract. Implementations must be safe
// for concurrent use; distinct identifiers never contend.
type Store interface {
	// WriteOriginal stores the original bytes for id. Returns
	// ErrConflict if an original is already present.
	WriteOriginal(id int64, r io.Reader) error

	// ReadOriginal opens the original for streaming. The caller must
	// close the reader. Returns ErrNotFound if absent. Size is the
	// byte length of the object when known, otherwise -1.
	ReadOriginal(id int64) (rc io.ReadCloser, size int64, err error)

	// WriteThumbnail stores the thumbnail for id, replacing any
	// existing one.
	WriteThumbnail(id int64, data []byte) error

	// HasThumbnail reports whether a thumbnail exists for id.
	HasThumbnail(id int64) bool
}

// OriginalName returns the canonical object name for an original.
func OriginalName(id int64) string {
	return fmt.Sprintf("%d.jpg", id)
}

// ThumbnailName returns the canonical object name for a thumbnail.
func ThumbnailName(id int64) string {
	return fmt.Sprintf("%d_thumb.jpg", id)
}
