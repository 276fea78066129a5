// Package images normalizes uploaded avatar images.
package images

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const avatarSize = 250

// Transformer converts an uploaded image file into normalized avatar bytes.
type Transformer interface {
	Transform(path string) ([]byte, error)
}

// Resizer scales images to a fixed square and re-encodes them as JPEG.
// Lanczos resampling keeps the output deterministic for identical input.
type Resizer struct {
	size    int
	quality int
}

// NewResizer creates a Resizer producing 250x250 avatars.
func NewResizer() *Resizer {
	return &Resizer{size: avatarSize, quality: 85}
}

// Transform decodes the image at path, resizes it to the fixed square and
// returns the JPEG-encoded result. The aspect ratio is not preserved.
func (r *Resizer) Transform(path string) ([]byte, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	resized := imaging.Resize(img, r.size, r.size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(r.quality)); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
