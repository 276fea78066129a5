package images_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/phonebook-be/internal/images"
)

// writeTestPNG writes a small gradient PNG and returns its path.
func writeTestPNG(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestResizer_ProducesFixedSquare(t *testing.T) {
	resizer := images.NewResizer()

	// A non-square source must still come out 250x250.
	data, err := resizer.Transform(writeTestPNG(t, 640, 200))
	require.NoError(t, err)

	out, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 250, out.Bounds().Dx())
	assert.Equal(t, 250, out.Bounds().Dy())
}

func TestResizer_Deterministic(t *testing.T) {
	resizer := images.NewResizer()
	path := writeTestPNG(t, 300, 300)

	first, err := resizer.Transform(path)
	require.NoError(t, err)
	second, err := resizer.Transform(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestResizer_RejectsCorruptInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(path, []byte("this is not an image"), 0644))

	_, err := images.NewResizer().Transform(path)
	assert.Error(t, err)
}

func TestResizer_MissingFile(t *testing.T) {
	_, err := images.NewResizer().Transform(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}
