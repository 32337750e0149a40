// Package ocr runs Tesseract against preprocessed page images.
//
// Two engines are provided. CLIEngine shells out to the tesseract executable
// at an explicit path. GosseractEngine links libtesseract through gosseract and
// is only compiled with the "gosseract" build tag:
//
//	go build -tags gosseract ./...
//
// Both are wrapped by a Recognizer, which adds the language gate and the
// optional serialization of engine calls.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/tiff"

	"github.com/spherical/vie-ocr/internal/domain"
)

// Engine is an OCR backend.
type Engine interface {
	domain.LanguageLister

	// Name identifies the backend in logs.
	Name() string

	// Recognize returns the raw text found in img for the language code.
	Recognize(ctx context.Context, img *image.Gray, lang string) (string, error)
}

// GosseractConfig configures the in-process engine.
type GosseractConfig struct {
	TessdataDir string
	PageSegMode int
}

// encodeTIFF encodes img as a lossless deflate-compressed TIFF, Tesseract's
// native input format.
func encodeTIFF(img *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return nil, fmt.Errorf("encode tiff: %w", err)
	}
	return buf.Bytes(), nil
}

// encodePNG encodes img as PNG for engines that take image bytes.
func encodePNG(img *image.Gray) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
