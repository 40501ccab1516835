package imageutils

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 10 {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessProductImage_DownscalesLargeImages(t *testing.T) {
	out, err := ProcessProductImage(encodePNG(t, 3200, 1200))
	require.NoError(t, err)

	decoded, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.LessOrEqual(t, decoded.Bounds().Dx(), 1600)
	assert.LessOrEqual(t, decoded.Bounds().Dy(), 1600)
}

func TestProcessProductImage_KeepsSmallImagesAtSize(t *testing.T) {
	out, err := ProcessProductImage(encodePNG(t, 800, 600))
	require.NoError(t, err)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 800, decoded.Bounds().Dx())
	assert.Equal(t, 600, decoded.Bounds().Dy())
}

func TestProcessProductImage_RejectsGarbage(t *testing.T) {
	_, err := ProcessProductImage([]byte("not an image"))
	assert.Error(t, err)
}
