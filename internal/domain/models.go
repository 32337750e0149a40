package domain

import (
	"fmt"
	"image"
	"sort"
	"strings"
	"time"
)

// LanguageVietnamese is the Tesseract code of the Vietnamese model.
const LanguageVietnamese = "vie"

// PageSeparator joins page texts in a Transcript: exactly one blank line.
const PageSeparator = "\n\n"

// Document represents the source PDF file being processed
type Document struct {
	FilePath   string
	TotalPages int
}

// Page is a single rasterized PDF page. Number is 1-based and matches the
// source page order.
type Page struct {
	Number int
	Image  image.Image
}

// ProcessedImage is the binarized, denoised rendition of a Page.
type ProcessedImage struct {
	PageNumber int
	Image      *image.Gray
	Threshold  uint8
}

// PageText is the recognized text of one page. Err is set only when the page
// failed under the continue-on-error policy.
type PageText struct {
	PageNumber int
	Text       string
	Err        error
}

// PageFailure records a page that could not be recognized.
type PageFailure struct {
	PageNumber int
	Err        error
}

// Transcript is the ordered set of page texts of a Document.
type Transcript struct {
	Document Document
	Pages    []PageText
	Failures []PageFailure
	Stats    ProcessingStats
}

// String joins the page texts in page order, separated by one blank line.
func (t *Transcript) String() string {
	if t == nil {
		return ""
	}
	parts := make([]string, len(t.Pages))
	for i, p := range t.Pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, PageSeparator)
}

// Complete reports whether every page was recognized.
func (t *Transcript) Complete() bool {
	return t != nil && len(t.Failures) == 0
}

// FailurePlaceholder is the text recorded for a page that failed under the
// continue-on-error policy.
func FailurePlaceholder(page int, err error) string {
	return fmt.Sprintf("[page %d failed: %v]", page, err)
}

// LanguageSupport is the read-only set of language codes installed in an OCR engine.
type LanguageSupport struct {
	codes map[string]struct{}
}

// NewLanguageSupport builds a LanguageSupport from a list of codes.
// Blank entries are ignored.
func NewLanguageSupport(codes []string) LanguageSupport {
	set := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		set[c] = struct{}{}
	}
	return LanguageSupport{codes: set}
}

// Has reports whether code is installed.
func (l LanguageSupport) Has(code string) bool {
	_, ok := l.codes[code]
	return ok
}

// Codes returns the installed codes in sorted order.
func (l LanguageSupport) Codes() []string {
	out := make([]string, 0, len(l.codes))
	for c := range l.codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of installed codes.
func (l LanguageSupport) Len() int {
	return len(l.codes)
}

// EventType represents the type of stream event
type EventType string

const (
	EventStart        EventType = "start"
	EventPageComplete EventType = "page_complete"
	EventError        EventType = "error"
	EventComplete     EventType = "complete"
)

// Progress identifies a completed page out of the document total.
type Progress struct {
	Page  int `json:"page"`
	Total int `json:"total"`
}

// StreamEvent represents an event emitted during processing
type StreamEvent struct {
	Type       EventType   `json:"type"`
	PageNumber int         `json:"page_number,omitempty"`
	TotalPages int         `json:"total_pages,omitempty"`
	Payload    interface{} `json:"payload,omitempty"` // status message or error text
	Timestamp  time.Time   `json:"timestamp"`
}

// Progress returns the (page, total) pair carried by a page event.
func (e StreamEvent) Progress() Progress {
	return Progress{Page: e.PageNumber, Total: e.TotalPages}
}

// ProcessingStats contains metadata about the extraction execution
type ProcessingStats struct {
	TotalTime       time.Duration
	PagesProcessed  int
	SuccessfulPages int
	FailedPages     int
}
