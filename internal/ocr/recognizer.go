package ocr

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spherical/vie-ocr/internal/domain"
	"github.com/spherical/vie-ocr/internal/observability"
)

// Options tunes a Recognizer.
type Options struct {
	// Serialize allows only one engine call at a time, for engines that are
	// not reentrant.
	Serialize bool

	// PageTimeout bounds a single engine call. Zero means no limit.
	PageTimeout time.Duration
}

// Recognizer implements domain.Recognizer on top of an Engine.
type Recognizer struct {
	engine Engine
	opts   Options
	logger *observability.Logger

	gate sync.Mutex

	langMu sync.Mutex
	langs  *domain.LanguageSupport
}

// NewRecognizer wraps engine. A nil logger discards output.
func NewRecognizer(engine Engine, opts Options, logger *observability.Logger) *Recognizer {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Recognizer{
		engine: engine,
		opts:   opts,
		logger: logger.WithComponent("ocr"),
	}
}

// Recognize returns the text tesseract finds in img. It fails with an
// unsupported_language error when lang is not installed and with a
// recognition error when the engine cannot be reached. No retries.
func (r *Recognizer) Recognize(ctx context.Context, img domain.ProcessedImage, lang string) (string, error) {
	if img.Image == nil || img.Image.Bounds().Empty() {
		return "", domain.RecognitionError("processed image is empty", nil).WithPage(img.PageNumber)
	}

	support, err := r.Languages(ctx)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) && de.Type == domain.ErrorTypeCancelled {
			return "", de.WithPage(img.PageNumber)
		}
		return "", domain.RecognitionError("OCR engine is not reachable", err).WithPage(img.PageNumber)
	}
	if !support.Has(lang) {
		return "", domain.UnsupportedLanguageError(lang, nil).WithPage(img.PageNumber)
	}

	if r.opts.PageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.PageTimeout)
		defer cancel()
	}

	if r.opts.Serialize {
		r.gate.Lock()
		defer r.gate.Unlock()
	}

	start := time.Now()
	text, err := r.engine.Recognize(ctx, img.Image, lang)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) {
			return "", de.WithPage(img.PageNumber)
		}
		return "", domain.RecognitionError("OCR failed", err).WithPage(img.PageNumber)
	}

	r.logger.Debug().
		Str("engine", r.engine.Name()).
		Int("page", img.PageNumber).
		Dur("took", time.Since(start)).
		Int("chars", len(text)).
		Msg("page recognized")

	return text, nil
}

// Languages returns the engine's installed languages. A successful listing is
// cached for the lifetime of the Recognizer; failures are not.
func (r *Recognizer) Languages(ctx context.Context) (domain.LanguageSupport, error) {
	r.langMu.Lock()
	defer r.langMu.Unlock()

	if r.langs != nil {
		return *r.langs, nil
	}

	codes, err := r.engine.Languages(ctx)
	if err != nil {
		return domain.LanguageSupport{}, err
	}
	support := domain.NewLanguageSupport(codes)
	r.langs = &support

	r.logger.Debug().Str("engine", r.engine.Name()).Strs("languages", support.Codes()).Msg("installed languages")
	return support, nil
}
