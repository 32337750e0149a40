package ocr

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func checkerboard() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 9, 7))
	for i := range img.Pix {
		if i%2 == 0 {
			img.Pix[i] = 255
		}
	}
	return img
}

// Page images reach the engine bit for bit.
func TestEncoders_Lossless(t *testing.T) {
	src := checkerboard()

	tiffData, err := encodeTIFF(src)
	require.NoError(t, err)
	decoded, err := tiff.Decode(bytes.NewReader(tiffData))
	require.NoError(t, err)
	assertSameGray(t, src, decoded)

	pngData, err := encodePNG(src)
	require.NoError(t, err)
	decoded, err = png.Decode(bytes.NewReader(pngData))
	require.NoError(t, err)
	assertSameGray(t, src, decoded)
}

func assertSameGray(t *testing.T, want *image.Gray, got image.Image) {
	t.Helper()
	require.Equal(t, want.Bounds(), got.Bounds())
	for y := 0; y < want.Bounds().Dy(); y++ {
		for x := 0; x < want.Bounds().Dx(); x++ {
			r, _, _, _ := got.At(x, y).RGBA()
			assert.Equal(t, want.GrayAt(x, y).Y, uint8(r>>8), "pixel (%d,%d)", x, y)
		}
	}
}
