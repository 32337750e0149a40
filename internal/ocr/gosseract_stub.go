//go:build !gosseract

package ocr

import (
	"context"
	"errors"
	"image"

	"github.com/spherical/vie-ocr/internal/domain"
)

// ErrGosseractDisabled is returned when the in-process engine is requested
// but was not compiled in. Rebuild with -tags gosseract to enable it.
var ErrGosseractDisabled = errors.New("gosseract engine not enabled; rebuild with -tags gosseract")

// GosseractEngine is a stub that fails every call.
type GosseractEngine struct{}

// NewGosseractEngine reports that the in-process engine is unavailable.
func NewGosseractEngine(GosseractConfig) (*GosseractEngine, error) {
	return nil, domain.EngineUnavailableError("gosseract engine unavailable", ErrGosseractDisabled)
}

func (e *GosseractEngine) Name() string { return "gosseract-disabled" }

// Recognize returns ErrGosseractDisabled.
func (e *GosseractEngine) Recognize(context.Context, *image.Gray, string) (string, error) {
	return "", domain.RecognitionError("gosseract engine unavailable", ErrGosseractDisabled)
}

// Languages returns ErrGosseractDisabled.
func (e *GosseractEngine) Languages(context.Context) ([]string, error) {
	return nil, domain.EngineUnavailableError("gosseract engine unavailable", ErrGosseractDisabled)
}
