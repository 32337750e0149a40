package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeSourceRead          ErrorType = "source_read"
	ErrorTypePreprocess          ErrorType = "preprocess"
	ErrorTypeRecognition         ErrorType = "recognition"
	ErrorTypeUnsupportedLanguage ErrorType = "unsupported_language"
	ErrorTypeEngineUnavailable   ErrorType = "engine_unavailable"
	ErrorTypePersist             ErrorType = "persist"
	ErrorTypeConfig              ErrorType = "config"
	ErrorTypeCancelled           ErrorType = "cancelled"
)

// DomainError represents a domain-specific error with context.
// Page is the 1-based page the error belongs to, or 0 for document-level errors.
type DomainError struct {
	Type    ErrorType
	Message string
	Page    int
	Err     error
}

func (e *DomainError) Error() string {
	msg := e.Message
	if e.Page > 0 {
		msg = fmt.Sprintf("page %d: %s", e.Page, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// WithPage returns a copy of the error attributed to the given page.
func (e *DomainError) WithPage(page int) *DomainError {
	cp := *e
	cp.Page = page
	return &cp
}

// Common error constructors
func SourceReadError(message string, err error) *DomainError {
	return NewError(ErrorTypeSourceRead, message, err)
}

func PreprocessError(message string, err error) *DomainError {
	return NewError(ErrorTypePreprocess, message, err)
}

func RecognitionError(message string, err error) *DomainError {
	return NewError(ErrorTypeRecognition, message, err)
}

func UnsupportedLanguageError(lang string, err error) *DomainError {
	return NewError(ErrorTypeUnsupportedLanguage, fmt.Sprintf("language %q is not installed", lang), err)
}

func EngineUnavailableError(message string, err error) *DomainError {
	return NewError(ErrorTypeEngineUnavailable, message, err)
}

func PersistError(message string, err error) *DomainError {
	return NewError(ErrorTypePersist, message, err)
}

func ConfigError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfig, message, err)
}

func CancelledError(err error) *DomainError {
	return NewError(ErrorTypeCancelled, "processing cancelled", err)
}

// TypeOf returns the ErrorType of the first DomainError in err's chain,
// or the empty string when there is none.
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ""
}

// IsType reports whether err carries a DomainError of the given type.
func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// PageOf returns the page number attached to err, or 0.
func PageOf(err error) int {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Page
	}
	return 0
}
