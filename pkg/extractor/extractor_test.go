package extractor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/vie-ocr/internal/config"
	"github.com/spherical/vie-ocr/internal/domain"
	"github.com/spherical/vie-ocr/internal/testutil"
)

func fakeClient(t *testing.T, mutate func(*config.Config)) *Client {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Render.DPI = 72
	cfg.OCR.BinaryPath = testutil.WriteScript(t, testutil.FakeTesseract)
	if mutate != nil {
		mutate(cfg)
	}
	client, err := NewClientWithConfig(cfg, nil)
	require.NoError(t, err)
	return client
}

func TestNewClientWithConfig_Invalid(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Pipeline.Workers = 0

	_, err := NewClientWithConfig(cfg, nil)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(config.OCRConfig{Engine: config.EngineCLI, BinaryPath: "tesseract"})
	require.NoError(t, err)
	assert.Equal(t, "tesseract-cli", engine.Name())

	_, err = NewEngine(config.OCRConfig{Engine: "cuneiform"})
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}

func TestClient_Process(t *testing.T) {
	client := fakeClient(t, nil)
	pdfPath := testutil.WriteFile(t, "hop-dong.pdf", testutil.MinimalPDF(2))
	out := filepath.Join(t.TempDir(), "hop-dong.txt")

	events := make(chan StreamEvent, 16)
	transcript, err := client.Process(context.Background(), Request{
		PDFPath:    pdfPath,
		OutputPath: out,
		Events:     events,
	})
	close(events)
	require.NoError(t, err)

	assert.Equal(t, "Xin chào\n\nXin chào", transcript.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, transcript.String(), string(data))

	var progress []Progress
	for ev := range events {
		if ev.Type == EventPageComplete {
			progress = append(progress, ev.Progress())
		}
	}
	assert.Equal(t, []Progress{{Page: 1, Total: 2}, {Page: 2, Total: 2}}, progress)

	// Every page was sent to tesseract as Vietnamese.
	assert.Equal(t, 2, strings.Count(testutil.LoggedArgs(t), "-l vie"))
}

func TestClient_ProcessParallel(t *testing.T) {
	client := fakeClient(t, func(cfg *config.Config) { cfg.Pipeline.Workers = 3 })
	pdfPath := testutil.WriteFile(t, "doc.pdf", testutil.MinimalPDF(5))

	transcript, err := client.Process(context.Background(), Request{PDFPath: pdfPath})
	require.NoError(t, err)
	require.Len(t, transcript.Pages, 5)
	for i, p := range transcript.Pages {
		assert.Equal(t, i+1, p.PageNumber)
	}
}

func TestClient_UnsupportedLanguage(t *testing.T) {
	client := fakeClient(t, nil)
	pdfPath := testutil.WriteFile(t, "doc.pdf", testutil.MinimalPDF(1))

	_, err := client.Process(context.Background(), Request{PDFPath: pdfPath, Language: "fra"})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeUnsupportedLanguage))
}

func TestClient_Stream(t *testing.T) {
	client := fakeClient(t, nil)
	pdfPath := testutil.WriteFile(t, "doc.pdf", testutil.MinimalPDF(3))

	events, results, err := client.Stream(context.Background(), Request{PDFPath: pdfPath})
	require.NoError(t, err)

	var types []EventType
	for ev := range events {
		types = append(types, ev.Type)
	}
	res := <-results
	require.NoError(t, res.Err)
	assert.Len(t, res.Transcript.Pages, 3)

	require.Len(t, types, 5)
	assert.Equal(t, EventStart, types[0])
	assert.Equal(t, EventComplete, types[4])
}

func TestClient_StreamRejectsMissingFile(t *testing.T) {
	client := fakeClient(t, nil)

	_, _, err := client.Stream(context.Background(), Request{PDFPath: filepath.Join(t.TempDir(), "nope.pdf")})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeSourceRead))
}

func TestClient_Languages(t *testing.T) {
	client := fakeClient(t, nil)

	ok, err := client.CheckVietnamese(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.CheckLanguage(context.Background(), "jpn")
	require.NoError(t, err)
	assert.False(t, ok)

	support, err := client.Languages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"eng", "osd", "vie"}, support.Codes())
}

func TestClient_EngineMissing(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OCR.BinaryPath = filepath.Join(t.TempDir(), "no-tesseract-here")
	client, err := NewClientWithConfig(cfg, nil)
	require.NoError(t, err)

	_, err = client.CheckVietnamese(context.Background())
	assert.True(t, domain.IsType(err, domain.ErrorTypeEngineUnavailable))
	assert.NotEmpty(t, InstallHints())
}
