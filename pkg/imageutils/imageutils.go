package imageutils

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const maxEdge = 1600

// ProcessProductImage re-encodes a product image for WhatsApp delivery:
// downscaled to fit 1600px and normalized to JPEG.
func ProcessProductImage(raw []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode product image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxEdge || bounds.Dy() > maxEdge {
		img = imaging.Fit(img, maxEdge, maxEdge, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode product image: %w", err)
	}
	return buf.Bytes(), nil
}
