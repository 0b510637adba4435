package server

import (
	"fmt"
	"io"

	"image-drop/internal/imgproc"
)

// deriveThumbnail reads the committed original for id, derives the
// thumbnail, and writes it back. Reading from the blob store rather
// than the request buffer keeps the result a pure function of the
// committed bytes, which is what makes rederivation safe at any time.
// Shared by the upload pipeline and the backfill job.
func (cfg Config) deriveThumbnail(id int64) error {
	rc, _, err := cfg.Blobs.ReadOriginal(id)
	if err != nil {
		return fmt.Errorf("read original for id %d: %w", id, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("read original for id %d: %w", id, err)
	}

	thumb, err := imgproc.Thumbnail(data)
	if err != nil {
		return fmt.Errorf("derive thumbnail for id %d: %w", id, err)
	}

	if err := cfg.Blobs.WriteThumbnail(id, thumb); err != nil {
		return fmt.Errorf("write thumbnail for id %d: %w", id, err)
	}
	return nil
}
