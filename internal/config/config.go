// Package config provides configuration loading for vie-ocr.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Engine names accepted by OCRConfig.Engine.
const (
	EngineCLI       = "cli"
	EngineGosseract = "gosseract"
)

// Failure policies accepted by PipelineConfig.FailurePolicy.
const (
	PolicyAbort    = "abort"
	PolicyContinue = "continue"
)

// Config holds all configuration for vie-ocr.
type Config struct {
	Render        RenderConfig        `yaml:"render"`
	OCR           OCRConfig           `yaml:"ocr"`
	Pipeline      PipelineConfig      `yaml:"pipeline"`
	Output        OutputConfig        `yaml:"output"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// RenderConfig holds PDF rasterization settings.
type RenderConfig struct {
	DPI               float64 `yaml:"dpi"`
	ValidateStructure bool    `yaml:"validate_structure"`
}

// OCRConfig holds OCR engine settings.
type OCRConfig struct {
	Engine      string        `yaml:"engine"` // cli or gosseract
	BinaryPath  string        `yaml:"binary_path"`
	TessdataDir string        `yaml:"tessdata_dir"`
	PageSegMode int           `yaml:"page_seg_mode"`
	Serialize   bool          `yaml:"serialize"`
	PageTimeout time.Duration `yaml:"page_timeout"`
}

// PipelineConfig holds document assembly settings.
type PipelineConfig struct {
	Workers       int    `yaml:"workers"`
	FailurePolicy string `yaml:"failure_policy"` // abort or continue
}

// OutputConfig holds transcript persistence settings.
type OutputConfig struct {
	Path string `yaml:"path"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Render: RenderConfig{
			DPI:               200,
			ValidateStructure: true,
		},
		OCR: OCRConfig{
			Engine:      EngineCLI,
			BinaryPath:  "tesseract",
			PageSegMode: 3,
		},
		Pipeline: PipelineConfig{
			Workers:       1,
			FailurePolicy: PolicyAbort,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Render.DPI < 36 || c.Render.DPI > 1200 {
		return fmt.Errorf("render dpi must be between 36 and 1200, got %v", c.Render.DPI)
	}
	if c.OCR.Engine != EngineCLI && c.OCR.Engine != EngineGosseract {
		return fmt.Errorf("invalid ocr engine: %s", c.OCR.Engine)
	}
	if c.OCR.Engine == EngineCLI && strings.TrimSpace(c.OCR.BinaryPath) == "" {
		return fmt.Errorf("ocr binary_path is required for the cli engine")
	}
	if c.OCR.PageSegMode < 0 || c.OCR.PageSegMode > 13 {
		return fmt.Errorf("page_seg_mode must be between 0 and 13, got %d", c.OCR.PageSegMode)
	}
	if c.OCR.PageTimeout < 0 {
		return fmt.Errorf("page_timeout cannot be negative")
	}
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.FailurePolicy != PolicyAbort && c.Pipeline.FailurePolicy != PolicyContinue {
		return fmt.Errorf("invalid failure policy: %s", c.Pipeline.FailurePolicy)
	}
	if c.Observability.LogFormat != "console" && c.Observability.LogFormat != "json" {
		return fmt.Errorf("invalid log format: %s", c.Observability.LogFormat)
	}
	return nil
}

// ContinueOnError reports whether failed pages are recorded instead of aborting.
func (c *Config) ContinueOnError() bool {
	return c.Pipeline.FailurePolicy == PolicyContinue
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VIEOCR_DPI"); v != "" {
		if dpi, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Render.DPI = dpi
		}
	}
	if v := os.Getenv("VIEOCR_VALIDATE_PDF"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Render.ValidateStructure = b
		}
	}
	if v := os.Getenv("VIEOCR_ENGINE"); v != "" {
		cfg.OCR.Engine = v
	}
	if v := os.Getenv("VIEOCR_TESSERACT_PATH"); v != "" {
		cfg.OCR.BinaryPath = v
	}
	if v := os.Getenv("TESSDATA_PREFIX"); v != "" && cfg.OCR.TessdataDir == "" {
		cfg.OCR.TessdataDir = v
	}
	if v := os.Getenv("VIEOCR_PSM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.OCR.PageSegMode = n
		}
	}
	if v := os.Getenv("VIEOCR_SERIALIZE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OCR.Serialize = b
		}
	}
	if v := os.Getenv("VIEOCR_PAGE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.OCR.PageTimeout = d
		}
	}
	if v := os.Getenv("VIEOCR_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Pipeline.Workers = n
		}
	}
	if v := os.Getenv("VIEOCR_FAILURE_POLICY"); v != "" {
		cfg.Pipeline.FailurePolicy = strings.ToLower(v)
	}
	if v := os.Getenv("VIEOCR_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("VIEOCR_LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
