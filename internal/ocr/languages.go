package ocr

import (
	"context"
	"errors"

	"github.com/spherical/vie-ocr/internal/domain"
)

// InstallHints tells users how to add the Vietnamese model.
var InstallHints = []string{
	"sudo apt-get install tesseract-ocr-vie  # Ubuntu/Debian",
	"brew install tesseract-lang             # macOS",
}

// CheckLanguage reports whether lang is installed in the engine. It fails
// with an engine_unavailable error when the engine cannot be queried.
func CheckLanguage(ctx context.Context, lister domain.LanguageLister, lang string) (bool, domain.LanguageSupport, error) {
	codes, err := lister.Languages(ctx)
	if err != nil {
		var de *domain.DomainError
		if errors.As(err, &de) && de.Type == domain.ErrorTypeEngineUnavailable {
			return false, domain.LanguageSupport{}, de
		}
		return false, domain.LanguageSupport{}, domain.EngineUnavailableError("cannot query OCR engine languages", err)
	}
	support := domain.NewLanguageSupport(codes)
	return support.Has(lang), support, nil
}

// VietnameseAvailable reports whether the Vietnamese model is installed.
func VietnameseAvailable(ctx context.Context, lister domain.LanguageLister) (bool, error) {
	ok, _, err := CheckLanguage(ctx, lister, domain.LanguageVietnamese)
	return ok, err
}
