package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/spherical/vie-ocr/internal/domain"
	"github.com/spherical/vie-ocr/internal/observability"
)

// headerWindow is how far into the file the %PDF- marker may appear.
const headerWindow = 1024

var disableConfigDir sync.Once

// Validator provides input validation for PDF files
type Validator struct {
	logger *observability.Logger
}

// NewValidator creates a new validator instance
func NewValidator(logger *observability.Logger) *Validator {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Validator{logger: logger}
}

// ValidatePDFPath checks that path names a readable file that starts like a PDF.
func (v *Validator) ValidatePDFPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.SourceReadError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.SourceReadError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.SourceReadError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.SourceReadError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	const largeFile = 100 * 1024 * 1024
	if info.Size() > largeFile {
		v.logger.Warn().Int("size_mb", int(info.Size()/(1024*1024))).Str("path", path).
			Msg("PDF file is very large, processing may take a while")
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.SourceReadError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	defer f.Close()

	head := make([]byte, headerWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return domain.SourceReadError(fmt.Sprintf("cannot read file: %s", path), err)
	}
	if !bytes.Contains(head[:n], []byte("%PDF-")) {
		return domain.SourceReadError(fmt.Sprintf("file is not a PDF (missing %%PDF- header): %s", path), nil)
	}

	return nil
}

// ValidateStructure runs pdfcpu's relaxed validation over the whole file and
// returns its page count.
func (v *Validator) ValidateStructure(path string) (int, error) {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	if err := api.ValidateFile(path, conf); err != nil {
		return 0, domain.SourceReadError("PDF structure is invalid", err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return 0, domain.SourceReadError("cannot count PDF pages", err)
	}
	return pages, nil
}

// ValidateDPI validates the rendering resolution.
func (v *Validator) ValidateDPI(dpi float64) error {
	if dpi < 36 || dpi > 1200 {
		return domain.ConfigError(fmt.Sprintf("dpi must be between 36 and 1200, got %v", dpi), nil)
	}
	return nil
}
