package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Format(t *testing.T) {
	err := RecognitionError("tesseract failed", errors.New("exit status 1"))
	assert.Equal(t, "[recognition] tesseract failed: exit status 1", err.Error())

	paged := err.WithPage(3)
	assert.Equal(t, "[recognition] page 3: tesseract failed: exit status 1", paged.Error())
	assert.Equal(t, 0, err.Page, "WithPage must not modify the receiver")

	assert.Equal(t, `[unsupported_language] language "vie" is not installed`, UnsupportedLanguageError("vie", nil).Error())
}

func TestDomainError_Classification(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", PreprocessError("page image is nil", nil).WithPage(2))

	assert.Equal(t, ErrorTypePreprocess, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypePreprocess))
	assert.False(t, IsType(wrapped, ErrorTypeRecognition))
	assert.Equal(t, 2, PageOf(wrapped))

	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain")))
	assert.False(t, IsType(nil, ErrorTypePreprocess))
	assert.Equal(t, 0, PageOf(errors.New("plain")))
}

func TestCancelledError_Unwraps(t *testing.T) {
	err := CancelledError(context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsType(err, ErrorTypeCancelled))
}

func TestTranscript_String(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  string
	}{
		{"empty", nil, ""},
		{"single page", []string{"Xin chào"}, "Xin chào"},
		{"two pages", []string{"Xin chào", "Tạm biệt"}, "Xin chào\n\nTạm biệt"},
		{"blank middle page", []string{"một", "", "ba"}, "một\n\n\n\nba"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Transcript{}
			for i, text := range tt.pages {
				tr.Pages = append(tr.Pages, PageText{PageNumber: i + 1, Text: text})
			}
			assert.Equal(t, tt.want, tr.String())
			if len(tt.pages) > 0 {
				assert.Equal(t, len(tt.pages)-1, strings.Count(tr.String(), PageSeparator))
			}
		})
	}

	var nilTranscript *Transcript
	assert.Equal(t, "", nilTranscript.String())
	assert.False(t, nilTranscript.Complete())
}

func TestTranscript_Complete(t *testing.T) {
	tr := &Transcript{Pages: []PageText{{PageNumber: 1, Text: "a"}}}
	assert.True(t, tr.Complete())

	tr.Failures = append(tr.Failures, PageFailure{PageNumber: 1, Err: errors.New("boom")})
	assert.False(t, tr.Complete())
}

func TestFailurePlaceholder(t *testing.T) {
	got := FailurePlaceholder(4, errors.New("boom"))
	assert.Equal(t, "[page 4 failed: boom]", got)
}

func TestLanguageSupport(t *testing.T) {
	ls := NewLanguageSupport([]string{"vie", " eng ", "", "osd", "vie"})

	require.Equal(t, 3, ls.Len())
	assert.True(t, ls.Has("vie"))
	assert.True(t, ls.Has("eng"))
	assert.False(t, ls.Has("fra"))
	assert.False(t, ls.Has(""))
	assert.Equal(t, []string{"eng", "osd", "vie"}, ls.Codes())

	var empty LanguageSupport
	assert.False(t, empty.Has("vie"))
	assert.Empty(t, empty.Codes())
}

func TestStreamEvent_Progress(t *testing.T) {
	ev := StreamEvent{Type: EventPageComplete, PageNumber: 2, TotalPages: 5}
	assert.Equal(t, Progress{Page: 2, Total: 5}, ev.Progress())
}
