// Package preprocess turns rasterized page images into clean binary images
// for text recognition: luma grayscale, Otsu binarization, 3x3 median denoise.
package preprocess

import (
	"image"
	"image/color"

	"github.com/spherical/vie-ocr/internal/domain"
)

// Pipeline is the fixed page preprocessing pipeline. It holds no state and is
// safe for concurrent use.
type Pipeline struct{}

// New returns the preprocessing pipeline.
func New() Pipeline {
	return Pipeline{}
}

// Preprocess implements domain.Preprocessor.
func (Pipeline) Preprocess(page domain.Page) (domain.ProcessedImage, error) {
	if err := validate(page.Image); err != nil {
		return domain.ProcessedImage{}, err.WithPage(page.Number)
	}

	gray := Grayscale(page.Image)
	threshold := OtsuThreshold(gray)
	Binarize(gray, threshold)

	return domain.ProcessedImage{
		PageNumber: page.Number,
		Image:      Median3(gray),
		Threshold:  threshold,
	}, nil
}

func validate(img image.Image) *domain.DomainError {
	if img == nil {
		return domain.PreprocessError("page image is nil", nil)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return domain.PreprocessError("page image has zero size", nil)
	}
	switch img.ColorModel() {
	case color.AlphaModel, color.Alpha16Model:
		return domain.PreprocessError("page image has no color channels", nil)
	}
	return nil
}

// Grayscale converts img to 8-bit luma using 0.299 R + 0.587 G + 0.114 B.
// The result is rebased so its bounds start at (0, 0).
func Grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < b.Dy(); y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()], src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):])
		}
	case *image.RGBA:
		for y := 0; y < b.Dy(); y++ {
			si := src.PixOffset(b.Min.X, b.Min.Y+y)
			di := y * dst.Stride
			for x := 0; x < b.Dx(); x++ {
				p := src.Pix[si : si+3 : si+3]
				dst.Pix[di+x] = luma8(p[0], p[1], p[2])
				si += 4
			}
		}
	default:
		for y := 0; y < b.Dy(); y++ {
			di := y * dst.Stride
			for x := 0; x < b.Dx(); x++ {
				r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
				dst.Pix[di+x] = luma8(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			}
		}
	}
	return dst
}

// luma8 uses 14-bit fixed point weights with rounding.
func luma8(r, g, b uint8) uint8 {
	return uint8((uint32(r)*4899 + uint32(g)*9617 + uint32(b)*1868 + 1<<13) >> 14)
}

// Histogram returns the 256-bin intensity histogram of img.
func Histogram(img *image.Gray) [256]int {
	var hist [256]int
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y) : img.PixOffset(b.Min.X, y)+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}
	return hist
}

// OtsuThreshold returns the threshold that maximizes the between-class
// variance of the histogram, which is the same as minimizing the weighted
// intra-class variance. Images with a single intensity yield 0.
func OtsuThreshold(img *image.Gray) uint8 {
	hist := Histogram(img)

	total := 0
	var sum float64
	for i, n := range hist {
		total += n
		sum += float64(i) * float64(n)
	}
	if total == 0 {
		return 0
	}

	// Class one is [0..i], class two is (i..255].
	const eps = 1.1920929e-07
	var (
		q1, s1    float64
		best      float64
		threshold int
		n         = float64(total)
		mu        = sum / n
	)
	for i := 0; i < 256; i++ {
		p := float64(hist[i]) / n
		q1 += p
		s1 += float64(i) * p
		q2 := 1 - q1
		if min(q1, q2) < eps || max(q1, q2) > 1-eps {
			continue
		}
		m1 := s1 / q1
		m2 := (mu - s1) / q2
		sigma := q1 * q2 * (m1 - m2) * (m1 - m2)
		if sigma > best {
			best = sigma
			threshold = i
		}
	}
	return uint8(threshold)
}

// Binarize maps every pixel of img in place: above threshold to 255, the rest to 0.
func Binarize(img *image.Gray, threshold uint8) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		row := img.Pix[off : off+b.Dx()]
		for i, v := range row {
			if v > threshold {
				row[i] = 255
			} else {
				row[i] = 0
			}
		}
	}
}

// Median3 applies a 3x3 median filter with replicated borders and returns a
// new image.
func Median3(src *image.Gray) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))

	var win [9]uint8
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			k := 0
			for dy := -1; dy <= 1; dy++ {
				yy := clamp(y+dy, h)
				for dx := -1; dx <= 1; dx++ {
					xx := clamp(x+dx, w)
					win[k] = src.Pix[src.PixOffset(b.Min.X+xx, b.Min.Y+yy)]
					k++
				}
			}
			dst.Pix[y*dst.Stride+x] = median9(&win)
		}
	}
	return dst
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// median9 partially sorts the window up to its middle element.
func median9(w *[9]uint8) uint8 {
	for i := 0; i <= 4; i++ {
		m := i
		for j := i + 1; j < 9; j++ {
			if w[j] < w[m] {
				m = j
			}
		}
		w[i], w[m] = w[m], w[i]
	}
	return w[4]
}
