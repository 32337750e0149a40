//go:build gosseract

package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/spherical/vie-ocr/internal/domain"
)

// GosseractEngine runs libtesseract in process. A fresh client is created per
// call so the engine is safe for concurrent use.
type GosseractEngine struct {
	cfg           GosseractConfig
	clientFactory func() *gosseract.Client
}

// NewGosseractEngine constructs a libtesseract-backed engine.
func NewGosseractEngine(cfg GosseractConfig) (*GosseractEngine, error) {
	return &GosseractEngine{cfg: cfg, clientFactory: gosseract.NewClient}, nil
}

func (e *GosseractEngine) Name() string { return "gosseract" }

// Recognize performs OCR on a single page image.
func (e *GosseractEngine) Recognize(ctx context.Context, img *image.Gray, lang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.CancelledError(err)
	}

	data, err := encodePNG(img)
	if err != nil {
		return "", domain.RecognitionError("failed to encode page image", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if e.cfg.TessdataDir != "" {
		if err := c.SetTessdataPrefix(e.cfg.TessdataDir); err != nil {
			return "", domain.RecognitionError("set tessdata prefix", err)
		}
	}
	if err := c.SetLanguage(lang); err != nil {
		return "", domain.RecognitionError("set language", err)
	}
	if e.cfg.PageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.cfg.PageSegMode)); err != nil {
			return "", domain.RecognitionError("set page segmentation mode", err)
		}
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return "", domain.RecognitionError("set image", err)
	}

	text, err := c.Text()
	if err != nil {
		if strings.Contains(err.Error(), "initialize") {
			return "", domain.UnsupportedLanguageError(lang, err)
		}
		return "", domain.RecognitionError("recognize text", err)
	}
	return text, nil
}

// Languages lists the traineddata files visible to libtesseract.
func (e *GosseractEngine) Languages(_ context.Context) ([]string, error) {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, domain.EngineUnavailableError("list libtesseract languages", fmt.Errorf("gosseract: %w", err))
	}
	return langs, nil
}
