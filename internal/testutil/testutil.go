// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// MinimalPDF builds a structurally valid PDF with blank 200x100pt pages.
func MinimalPDF(pages int) []byte {
	var buf bytes.Buffer
	offsets := []int{}
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 100] /Resources << >> >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

// WriteFile writes data to name inside a fresh temp dir and returns its path.
func WriteFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// FakeTesseract mimics the parts of the tesseract CLI the engine relies on and
// appends its arguments to $FAKE_TESS_LOG. Languages vie and eng are
// installed; every page reads "Xin chào".
const FakeTesseract = `#!/bin/sh
echo "$@" >> "$FAKE_TESS_LOG"
for a in "$@"; do
  if [ "$a" = "--list-langs" ]; then
    echo 'List of available languages in "/fake/tessdata/" (3):'
    echo eng
    echo osd
    echo vie
    exit 0
  fi
done
lang=""
prev=""
input=""
for a in "$@"; do
  if [ "$prev" = "-l" ]; then lang="$a"; fi
  case "$a" in *.tif) input="$a";; esac
  prev="$a"
done
if [ "$lang" != "vie" ] && [ "$lang" != "eng" ]; then
  echo "Error opening data file /fake/tessdata/$lang.traineddata" >&2
  echo "Failed loading language '$lang'" >&2
  exit 1
fi
if [ ! -s "$input" ]; then
  echo "cannot read $input" >&2
  exit 1
fi
printf 'Xin chào\n\f'
`

// WriteScript installs body as an executable named tesseract and points
// $FAKE_TESS_LOG next to it. It skips on platforms without a POSIX shell.
func WriteScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fakes need a POSIX shell")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "tesseract")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	t.Setenv("FAKE_TESS_LOG", filepath.Join(dir, "args.log"))
	return path
}

// LoggedArgs returns everything the fake tesseract logged so far.
func LoggedArgs(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(os.Getenv("FAKE_TESS_LOG"))
	require.NoError(t, err)
	return string(data)
}
