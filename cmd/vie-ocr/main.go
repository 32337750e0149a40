// Package main provides the vie-ocr CLI entrypoint.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/spherical/vie-ocr/internal/config"
	"github.com/spherical/vie-ocr/internal/domain"
	"github.com/spherical/vie-ocr/internal/observability"
)

var version = "1.0.0"

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool
	noColor    bool

	// Configuration and logger
	cfg    *config.Config
	logger *observability.Logger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vie-ocr",
		Short: "Extract text from scanned Vietnamese PDFs with Tesseract",
		Long: `vie-ocr renders every page of a scanned PDF, cleans the page image
(grayscale, Otsu binarization, median denoise) and runs Tesseract with the
Vietnamese model on it. Page texts are joined in page order, separated by
one blank line, and written to a UTF-8 text file.

Configuration comes from --config (YAML), a .env file and VIEOCR_*
environment variables, in that order of precedence after flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load() // Ignore error if .env doesn't exist

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return domain.ConfigError("load config", err)
			}

			if verbose {
				cfg.Observability.LogLevel = "debug"
			}
			if outputJSON {
				cfg.Observability.LogFormat = "json"
			}

			logger = observability.NewLogger(observability.LogConfig{
				Level:       cfg.Observability.LogLevel,
				Format:      cfg.Observability.LogFormat,
				ServiceName: "vie-ocr",
			})
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	root.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(newExtractCmd())
	root.AddCommand(newLangsCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		NewUI(outputJSON, noColor).Error("%v", err)
		for _, hint := range errorHints(err) {
			fmt.Fprintf(os.Stderr, "  %s\n", hint)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error kind to the process exit status.
func exitCode(err error) int {
	switch domain.TypeOf(err) {
	case domain.ErrorTypeConfig:
		return 2
	case domain.ErrorTypeSourceRead:
		return 3
	case domain.ErrorTypeUnsupportedLanguage, domain.ErrorTypeEngineUnavailable:
		return 4
	case domain.ErrorTypePersist:
		return 5
	case domain.ErrorTypeCancelled:
		return 130
	default:
		return 1
	}
}

// errorHints returns follow-up instructions for errors a user can fix.
func errorHints(err error) []string {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return nil
	}
	switch de.Type {
	case domain.ErrorTypeUnsupportedLanguage:
		return append([]string{"Language data not found. The Vietnamese model installs with:"}, installHints()...)
	case domain.ErrorTypeEngineUnavailable:
		return []string{
			"Tesseract could not be started. Check that it is installed and on PATH,",
			"or point VIEOCR_TESSERACT_PATH (or --tesseract) at the executable.",
		}
	default:
		// A page failure may carry the engine's own error.
		if de.Err != nil {
			return errorHints(de.Err)
		}
		return nil
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vie-ocr version %s\n", version)
		},
	}
}
