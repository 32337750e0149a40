package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, float64(200), cfg.Render.DPI)
	assert.Equal(t, EngineCLI, cfg.OCR.Engine)
	assert.Equal(t, "tesseract", cfg.OCR.BinaryPath)
	assert.Equal(t, 1, cfg.Pipeline.Workers)
	assert.False(t, cfg.ContinueOnError())
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vie-ocr.yaml")
	yamlData := `
render:
  dpi: 300
ocr:
  binary_path: /opt/tess/bin/tesseract
  page_seg_mode: 6
  page_timeout: 45s
pipeline:
  workers: 2
  failure_policy: continue
observability:
  log_format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))

	t.Setenv("VIEOCR_WORKERS", "4")
	t.Setenv("TESSDATA_PREFIX", "/opt/tess/share")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, float64(300), cfg.Render.DPI)
	assert.True(t, cfg.Render.ValidateStructure, "unset YAML keys keep defaults")
	assert.Equal(t, "/opt/tess/bin/tesseract", cfg.OCR.BinaryPath)
	assert.Equal(t, "/opt/tess/share", cfg.OCR.TessdataDir)
	assert.Equal(t, 6, cfg.OCR.PageSegMode)
	assert.Equal(t, 45*time.Second, cfg.OCR.PageTimeout)
	assert.Equal(t, 4, cfg.Pipeline.Workers, "env overrides YAML")
	assert.True(t, cfg.ContinueOnError())
	assert.Equal(t, "json", cfg.Observability.LogFormat)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"dpi too low", func(c *Config) { c.Render.DPI = 10 }},
		{"unknown engine", func(c *Config) { c.OCR.Engine = "easyocr" }},
		{"empty binary", func(c *Config) { c.OCR.BinaryPath = " " }},
		{"psm out of range", func(c *Config) { c.OCR.PageSegMode = 14 }},
		{"zero workers", func(c *Config) { c.Pipeline.Workers = 0 }},
		{"unknown policy", func(c *Config) { c.Pipeline.FailurePolicy = "skip" }},
		{"unknown log format", func(c *Config) { c.Observability.LogFormat = "xml" }},
		{"negative timeout", func(c *Config) { c.OCR.PageTimeout = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_GosseractNeedsNoBinary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OCR.Engine = EngineGosseract
	cfg.OCR.BinaryPath = ""
	assert.NoError(t, cfg.Validate())
}
