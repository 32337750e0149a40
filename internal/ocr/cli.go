package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/spherical/vie-ocr/internal/domain"
)

// CLIEngineConfig configures the tesseract executable engine.
type CLIEngineConfig struct {
	// BinaryPath is the tesseract executable, either a path or a name
	// resolved on PATH.
	BinaryPath  string
	TessdataDir string
	// PageSegMode is passed as --psm; 0 keeps the tesseract default.
	PageSegMode int
}

// CLIEngine runs the tesseract executable once per image.
type CLIEngine struct {
	cfg CLIEngineConfig

	// lookPath resolves the executable. Tests may replace it.
	lookPath func(string) (string, error)
}

// NewCLIEngine creates an engine for the given executable configuration.
func NewCLIEngine(cfg CLIEngineConfig) *CLIEngine {
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "tesseract"
	}
	return &CLIEngine{cfg: cfg, lookPath: exec.LookPath}
}

func (e *CLIEngine) Name() string { return "tesseract-cli" }

// Recognize writes img to a temporary TIFF and reads the text tesseract
// prints on stdout.
func (e *CLIEngine) Recognize(ctx context.Context, img *image.Gray, lang string) (string, error) {
	bin, err := e.lookPath(e.cfg.BinaryPath)
	if err != nil {
		return "", domain.RecognitionError(fmt.Sprintf("tesseract executable %q not found", e.cfg.BinaryPath), err)
	}

	data, err := encodeTIFF(img)
	if err != nil {
		return "", domain.RecognitionError("failed to encode page image", err)
	}

	tmp, err := os.CreateTemp("", "vie-ocr-*.tif")
	if err != nil {
		return "", domain.RecognitionError("create temp file for OCR", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", domain.RecognitionError("write temp file for OCR", err)
	}
	if err := tmp.Close(); err != nil {
		return "", domain.RecognitionError("close temp file for OCR", err)
	}

	args := e.baseArgs()
	args = append(args, tmpPath, "stdout", "-l", lang)
	if e.cfg.PageSegMode > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PageSegMode))
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", domain.RecognitionError("tesseract timed out", ctx.Err())
		}
		if ctx.Err() != nil {
			return "", domain.CancelledError(ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if isMissingLanguage(msg) {
			return "", domain.UnsupportedLanguageError(lang, errors.New(msg))
		}
		return "", domain.RecognitionError("tesseract failed", fmt.Errorf("%w: %s", err, msg))
	}

	return stdout.String(), nil
}

// Languages runs `tesseract --list-langs`.
func (e *CLIEngine) Languages(ctx context.Context) ([]string, error) {
	bin, err := e.lookPath(e.cfg.BinaryPath)
	if err != nil {
		return nil, domain.EngineUnavailableError(fmt.Sprintf("tesseract executable %q not found", e.cfg.BinaryPath), err)
	}

	args := append(e.baseArgs(), "--list-langs")
	// Tesseract 3 prints the list on stderr, later versions on stdout.
	out, err := exec.CommandContext(ctx, bin, args...).CombinedOutput()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, domain.EngineUnavailableError("tesseract --list-langs timed out", ctx.Err())
		}
		if ctx.Err() != nil {
			return nil, domain.CancelledError(ctx.Err())
		}
		return nil, domain.EngineUnavailableError("tesseract --list-langs failed", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out))))
	}

	return ParseLanguageList(string(out)), nil
}

func (e *CLIEngine) baseArgs() []string {
	if e.cfg.TessdataDir == "" {
		return nil
	}
	return []string{"--tessdata-dir", e.cfg.TessdataDir}
}

var langCodeRe = regexp.MustCompile(`^[A-Za-z0-9_./-]+$`)

// ParseLanguageList extracts language codes from `tesseract --list-langs` output.
func ParseLanguageList(out string) []string {
	var codes []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of available languages") {
			continue
		}
		if !langCodeRe.MatchString(line) {
			continue
		}
		codes = append(codes, line)
	}
	return codes
}

func isMissingLanguage(stderr string) bool {
	return strings.Contains(stderr, "Failed loading language") ||
		strings.Contains(stderr, "Error opening data file")
}
