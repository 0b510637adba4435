// Package imgproc derives thumbnails from uploaded images.
package imgproc

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/liamg/magic"
)

// MaxDim is the thumbnail bounding box in pixels. The larger dimension
// shrinks to MaxDim, the other scales proportionally. Images already
// inside the box are never upscaled.
const MaxDim = 100

// ErrUnsupportedFormat is returned when the input cannot be decoded as
// an image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Thumbnail decodes data, fits it inside MaxDim×MaxDim preserving
// aspect ratio, and re-encodes it as JPEG. Pure function of its input:
// deriving twice from the same bytes yields the same dimensions.
func Thumbnail(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		// Sniff the magic bytes so the log says what the client
		// actually sent, not just "can't decode".
		if ft, _ := magic.Lookup(data); ft != nil {
			return nil, fmt.Errorf("%w: got %s", ErrUnsupportedFormat, ft.Description)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	thumb := imaging.Fit(img, MaxDim, MaxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
