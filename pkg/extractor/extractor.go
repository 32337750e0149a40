// Package extractor is the public entry point for OCR of scanned Vietnamese PDFs.
package extractor

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/spherical/vie-ocr/internal/config"
	"github.com/spherical/vie-ocr/internal/domain"
	"github.com/spherical/vie-ocr/internal/extract"
	"github.com/spherical/vie-ocr/internal/observability"
	"github.com/spherical/vie-ocr/internal/ocr"
	"github.com/spherical/vie-ocr/internal/pdf"
	"github.com/spherical/vie-ocr/internal/preprocess"
)

// Re-export event types for public API
type (
	StreamEvent = domain.StreamEvent
	EventType   = domain.EventType
	Progress    = domain.Progress
)

// Re-export result types
type (
	Transcript      = domain.Transcript
	PageText        = domain.PageText
	PageFailure     = domain.PageFailure
	LanguageSupport = domain.LanguageSupport
	Config          = config.Config
)

// Event type constants
const (
	EventStart        = domain.EventStart
	EventPageComplete = domain.EventPageComplete
	EventError        = domain.EventError
	EventComplete     = domain.EventComplete
)

// LanguageVietnamese is the default recognition language.
const LanguageVietnamese = domain.LanguageVietnamese

// Request describes one document to transcribe.
type Request struct {
	PDFPath string
	// Language is a tesseract language code. Empty means Vietnamese.
	Language string
	// OutputPath overrides the configured output file. Empty keeps the
	// configured one, which may itself be empty (no file written).
	OutputPath string
	// Events receives progress events. Sends block, so the caller must drain it.
	Events chan<- StreamEvent
}

// Result is the outcome of a streamed request.
type Result struct {
	Transcript *Transcript
	Err        error
}

// Client is the main entry point for the OCR library
type Client struct {
	cfg        *config.Config
	engine     ocr.Engine
	recognizer *ocr.Recognizer
	rasterizer *pdf.Rasterizer
	validator  *pdf.Validator
	logger     *observability.Logger
}

// NewClient creates a client from the environment. A .env file is loaded if
// present and VIEOCR_CONFIG may point at a YAML config file.
func NewClient() (*Client, error) {
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	cfg, err := config.Load(os.Getenv("VIEOCR_CONFIG"))
	if err != nil {
		return nil, domain.ConfigError("invalid configuration", err)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "vie-ocr",
	})
	return NewClientWithConfig(cfg, logger)
}

// NewClientWithConfig creates a client with an explicit configuration. A nil
// logger discards log output.
func NewClientWithConfig(cfg *config.Config, logger *observability.Logger) (*Client, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, domain.ConfigError("invalid configuration", err)
	}
	if logger == nil {
		logger = observability.Nop()
	}

	engine, err := NewEngine(cfg.OCR)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:    cfg,
		engine: engine,
		recognizer: ocr.NewRecognizer(engine, ocr.Options{
			Serialize:   cfg.OCR.Serialize,
			PageTimeout: cfg.OCR.PageTimeout,
		}, logger),
		rasterizer: pdf.NewRasterizer(pdf.Options{
			DPI:               cfg.Render.DPI,
			ValidateStructure: cfg.Render.ValidateStructure,
		}, logger),
		validator: pdf.NewValidator(logger),
		logger:    logger,
	}, nil
}

// NewEngine builds the OCR engine named by cfg.Engine.
func NewEngine(cfg config.OCRConfig) (ocr.Engine, error) {
	switch cfg.Engine {
	case config.EngineCLI, "":
		return ocr.NewCLIEngine(ocr.CLIEngineConfig{
			BinaryPath:  cfg.BinaryPath,
			TessdataDir: cfg.TessdataDir,
			PageSegMode: cfg.PageSegMode,
		}), nil
	case config.EngineGosseract:
		engine, err := ocr.NewGosseractEngine(ocr.GosseractConfig{
			TessdataDir: cfg.TessdataDir,
			PageSegMode: cfg.PageSegMode,
		})
		if err != nil {
			return nil, err
		}
		return engine, nil
	default:
		return nil, domain.ConfigError("unknown OCR engine: "+cfg.Engine, nil)
	}
}

// Config returns the client's configuration.
func (c *Client) Config() *Config {
	return c.cfg
}

// EngineName identifies the OCR backend in use.
func (c *Client) EngineName() string {
	return c.engine.Name()
}

// Process transcribes a PDF and blocks until it is done.
func (c *Client) Process(ctx context.Context, req Request) (*Transcript, error) {
	lang := req.Language
	if lang == "" {
		lang = domain.LanguageVietnamese
	}
	return c.service(req).Process(ctx, req.PDFPath, lang, req.Events)
}

// Stream starts transcription in the background. The event channel is closed
// before the single Result is delivered. Request.Events is ignored.
func (c *Client) Stream(ctx context.Context, req Request) (<-chan StreamEvent, <-chan Result, error) {
	if err := c.validator.ValidatePDFPath(req.PDFPath); err != nil {
		return nil, nil, err
	}

	eventCh := make(chan StreamEvent, 100)
	resultCh := make(chan Result, 1)
	req.Events = eventCh

	go func() {
		transcript, err := c.Process(ctx, req)
		close(eventCh)
		resultCh <- Result{Transcript: transcript, Err: err}
		close(resultCh)
	}()

	return eventCh, resultCh, nil
}

// Languages lists the language codes installed in the OCR engine.
func (c *Client) Languages(ctx context.Context) (LanguageSupport, error) {
	_, support, err := ocr.CheckLanguage(ctx, c.engine, "")
	return support, err
}

// CheckLanguage reports whether lang is installed in the OCR engine.
func (c *Client) CheckLanguage(ctx context.Context, lang string) (bool, error) {
	ok, _, err := ocr.CheckLanguage(ctx, c.engine, lang)
	return ok, err
}

// CheckVietnamese reports whether the Vietnamese model is installed.
func (c *Client) CheckVietnamese(ctx context.Context) (bool, error) {
	return ocr.VietnameseAvailable(ctx, c.engine)
}

// InstallHints returns commands that install the Vietnamese model.
func InstallHints() []string {
	return append([]string(nil), ocr.InstallHints...)
}

func (c *Client) service(req Request) *extract.Service {
	output := c.cfg.Output.Path
	if req.OutputPath != "" {
		output = req.OutputPath
	}
	return extract.NewService(c.rasterizer, preprocess.New(), c.recognizer, extract.Options{
		Workers:         c.cfg.Pipeline.Workers,
		ContinueOnError: c.cfg.ContinueOnError(),
		OutputPath:      output,
	}, c.logger)
}
