package pdf

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/spherical/vie-ocr/internal/domain"
	"github.com/spherical/vie-ocr/internal/observability"
)

// DefaultDPI is the rendering resolution used when none is configured.
const DefaultDPI = 200

// Options configures a Rasterizer.
type Options struct {
	DPI float64
	// ValidateStructure runs pdfcpu validation before rendering.
	ValidateStructure bool
}

// Rasterizer renders PDF pages to images using go-fitz (MuPDF). It keeps no
// state between calls.
type Rasterizer struct {
	opts      Options
	validator *Validator
	logger    *observability.Logger
}

// NewRasterizer creates a new PDF rasterizer.
func NewRasterizer(opts Options, logger *observability.Logger) *Rasterizer {
	if opts.DPI == 0 {
		opts.DPI = DefaultDPI
	}
	if logger == nil {
		logger = observability.Nop()
	}
	logger = logger.WithComponent("rasterizer")
	return &Rasterizer{
		opts:      opts,
		validator: NewValidator(logger),
		logger:    logger,
	}
}

// Rasterize renders every page of the PDF at pdfPath in page order. Every
// failure is a source_read error, except a dpi outside 36..1200 which is a
// config error.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath string) ([]domain.Page, error) {
	if err := r.validator.ValidatePDFPath(pdfPath); err != nil {
		return nil, err
	}
	if err := r.validator.ValidateDPI(r.opts.DPI); err != nil {
		return nil, err
	}

	expected := -1
	if r.opts.ValidateStructure {
		n, err := r.validator.ValidateStructure(pdfPath)
		if err != nil {
			return nil, err
		}
		expected = n
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, domain.SourceReadError("failed to open PDF", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, domain.SourceReadError("PDF has no pages", nil)
	}
	if expected >= 0 && expected != pageCount {
		r.logger.Warn().Int("pdfcpu_pages", expected).Int("renderer_pages", pageCount).
			Msg("page count mismatch between validator and renderer")
	}

	pages := make([]domain.Page, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		select {
		case <-ctx.Done():
			return nil, domain.CancelledError(ctx.Err())
		default:
		}

		img, err := doc.ImageDPI(i, r.opts.DPI)
		if err != nil {
			return nil, domain.SourceReadError(fmt.Sprintf("failed to render page %d", i+1), err)
		}

		pages = append(pages, domain.Page{Number: i + 1, Image: img})
	}

	r.logger.Debug().Str("path", pdfPath).Int("pages", pageCount).Msg("rasterized PDF")
	return pages, nil
}
