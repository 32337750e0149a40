package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spherical/vie-ocr/internal/config"
	"github.com/spherical/vie-ocr/internal/domain"
	"github.com/spherical/vie-ocr/pkg/extractor"
)

type extractFlags struct {
	output          string
	lang            string
	workers         int
	continueOnError bool
	dpi             float64
	tesseract       string
	print           bool
}

// extractResult is the --json summary of a run.
type extractResult struct {
	Source   string        `json:"source"`
	Output   string        `json:"output,omitempty"`
	Pages    int           `json:"pages"`
	Failed   []failedPage  `json:"failed,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Text     string        `json:"text,omitempty"`
}

type failedPage struct {
	Page  int    `json:"page"`
	Error string `json:"error"`
}

func newExtractCmd() *cobra.Command {
	var f extractFlags

	cmd := &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Extract text from a scanned PDF",
		Long: `Extract rasterizes each page of the PDF, preprocesses it and runs OCR.

The transcript is written to <pdf name>.txt in the current directory unless
--output is given. By default the first failing page aborts the run; with
--continue-on-error a placeholder is written for that page instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			applyExtractFlags(cmd, cfg, f)
			if err := cfg.Validate(); err != nil {
				return domain.ConfigError("invalid configuration", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runExtract(ctx, cmd, args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file path (default: <input-name>.txt)")
	cmd.Flags().StringVarP(&f.lang, "lang", "l", domain.LanguageVietnamese, "tesseract language code")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 1, "pages processed concurrently")
	cmd.Flags().BoolVar(&f.continueOnError, "continue-on-error", false, "record failed pages and keep going")
	cmd.Flags().Float64Var(&f.dpi, "dpi", 200, "rendering resolution")
	cmd.Flags().StringVar(&f.tesseract, "tesseract", "", "path to the tesseract executable")
	cmd.Flags().BoolVarP(&f.print, "print", "p", false, "also print the transcript to stdout")

	return cmd
}

// applyExtractFlags overrides configuration with explicitly set flags.
func applyExtractFlags(cmd *cobra.Command, cfg *config.Config, f extractFlags) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Pipeline.Workers = f.workers
	}
	if flags.Changed("continue-on-error") {
		cfg.Pipeline.FailurePolicy = config.PolicyAbort
		if f.continueOnError {
			cfg.Pipeline.FailurePolicy = config.PolicyContinue
		}
	}
	if flags.Changed("dpi") {
		cfg.Render.DPI = f.dpi
	}
	if flags.Changed("tesseract") {
		useTesseractBinary(cfg, f.tesseract)
	}
}

// useTesseractBinary selects the executable engine at path.
func useTesseractBinary(cfg *config.Config, path string) {
	cfg.OCR.Engine = config.EngineCLI
	cfg.OCR.BinaryPath = path
}

// defaultOutputPath names the transcript after the PDF, in the working directory.
func defaultOutputPath(pdfPath string) string {
	base := filepath.Base(pdfPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".txt"
}

func runExtract(ctx context.Context, cmd *cobra.Command, pdfPath string, f extractFlags) error {
	ui := NewUI(outputJSON, noColor)

	output := f.output
	if output == "" {
		output = cfg.Output.Path
	}
	if output == "" {
		output = defaultOutputPath(pdfPath)
	}

	client, err := extractor.NewClientWithConfig(cfg, logger)
	if err != nil {
		return err
	}

	ui.Step("Processing PDF: %s", pdfPath)
	logger.Debug().
		Str("engine", client.EngineName()).
		Int("workers", cfg.Pipeline.Workers).
		Str("policy", cfg.Pipeline.FailurePolicy).
		Msg("starting extraction")

	start := time.Now()
	events, results, err := client.Stream(ctx, extractor.Request{
		PDFPath:    pdfPath,
		Language:   f.lang,
		OutputPath: output,
	})
	if err != nil {
		return err
	}

	renderProgress(ui, events)
	res := <-results

	if res.Err != nil && res.Transcript == nil {
		if domain.IsType(res.Err, domain.ErrorTypeCancelled) || errors.Is(res.Err, context.Canceled) {
			ui.Warning("Interrupted, no output written")
		}
		return res.Err
	}

	transcript := res.Transcript
	for _, failure := range transcript.Failures {
		ui.Warning("Page %d failed: %v", failure.PageNumber, failure.Err)
	}

	if f.print && !outputJSON {
		fmt.Fprintln(cmd.OutOrStdout(), transcript.String())
	}

	if outputJSON {
		summary := extractResult{
			Source:   transcript.Document.FilePath,
			Pages:    transcript.Document.TotalPages,
			Duration: transcript.Stats.TotalTime,
		}
		if res.Err == nil {
			summary.Output = output
		}
		if f.print {
			summary.Text = transcript.String()
		}
		for _, failure := range transcript.Failures {
			summary.Failed = append(summary.Failed, failedPage{Page: failure.PageNumber, Error: failure.Err.Error()})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	}

	if res.Err != nil {
		return res.Err
	}

	ui.Success("Processing complete: %d pages in %s", len(transcript.Pages), FormatDuration(time.Since(start)))
	ui.Success("Text saved to %s", output)
	return nil
}

// renderProgress drives the spinner and progress bar from the event stream
// until it is closed.
func renderProgress(ui *UI, events <-chan extractor.StreamEvent) {
	spinner := ui.Spinner("Converting PDF to images...")
	spinner.Start()

	var (
		bar     *ProgressBar
		started bool
	)
	for event := range events {
		switch event.Type {
		case extractor.EventStart:
			logger.Debug().Msgf("%v", event.Payload)

		case extractor.EventPageComplete:
			if !started {
				spinner.Stop()
				bar = ui.ProgressBar(int64(event.TotalPages), "Processing pages")
				started = true
			}
			if bar == nil {
				// No terminal: plain status lines instead of a bar.
				ui.Info("%v", event.Payload)
			}
			bar.Set(int64(event.PageNumber))
			logger.Debug().Int("page", event.PageNumber).Int("total", event.TotalPages).Msgf("%v", event.Payload)

		case extractor.EventError:
			logger.Debug().Int("page", event.PageNumber).Msgf("%v", event.Payload)

		case extractor.EventComplete:
			if bar != nil {
				bar.Finish()
			}
			logger.Debug().Msgf("%v", event.Payload)
		}
	}
	spinner.Stop()
}
