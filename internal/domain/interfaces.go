package domain

import "context"

// Rasterizer turns a PDF file into its ordered page images.
type Rasterizer interface {
	// Rasterize renders every page of the PDF at pdfPath, in page order
	Rasterize(ctx context.Context, pdfPath string) ([]Page, error)
}

// Preprocessor prepares one page image for text recognition.
type Preprocessor interface {
	Preprocess(page Page) (ProcessedImage, error)
}

// Recognizer runs OCR on a processed page image for a language code.
type Recognizer interface {
	Recognize(ctx context.Context, img ProcessedImage, lang string) (string, error)
}

// LanguageLister reports the language codes installed in an OCR engine.
type LanguageLister interface {
	Languages(ctx context.Context) ([]string, error)
}
