package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// UI provides user-friendly output utilities. Status lines go to stderr so
// stdout stays clean for --print and --json.
type UI struct {
	out         io.Writer
	noColor     bool
	jsonMode    bool
	interactive bool
}

// NewUI creates a new UI instance.
func NewUI(jsonMode, noColor bool) *UI {
	if noColor {
		color.NoColor = true
	}
	return &UI{
		out:         os.Stderr,
		noColor:     noColor,
		jsonMode:    jsonMode,
		interactive: IsTerminal(os.Stderr),
	}
}

func (ui *UI) print(c color.Attribute, symbol, format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if ui.noColor {
		fmt.Fprintf(ui.out, "%s %s\n", symbol, msg)
		return
	}
	color.New(c).Fprintf(ui.out, "%s %s\n", symbol, msg)
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	ui.print(color.FgGreen, "✓", format, args...)
}

// Error prints an error message. Errors are shown in JSON mode too.
func (ui *UI) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if ui.noColor || ui.jsonMode {
		fmt.Fprintf(ui.out, "✗ %s\n", msg)
		return
	}
	color.New(color.FgRed).Fprintf(ui.out, "✗ %s\n", msg)
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	ui.print(color.FgYellow, "⚠", format, args...)
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...interface{}) {
	ui.print(color.FgCyan, "ℹ", format, args...)
}

// Step prints a step message.
func (ui *UI) Step(format string, args ...interface{}) {
	ui.print(color.FgBlue, "→", format, args...)
}

// KeyValue prints a key-value pair.
func (ui *UI) KeyValue(key string, value interface{}) {
	if ui.jsonMode {
		return
	}
	if ui.noColor {
		fmt.Fprintf(ui.out, "  %s: %v\n", key, value)
		return
	}
	color.New(color.FgYellow).Fprintf(ui.out, "  %s: ", key)
	fmt.Fprintf(ui.out, "%v\n", value)
}

// ProgressBar wraps a progressbar instance for page progress. A nil
// *ProgressBar is valid and does nothing.
type ProgressBar struct {
	bar *progressbar.ProgressBar
}

// ProgressBar creates a page progress bar, or nil when output is not an
// interactive terminal.
func (ui *UI) ProgressBar(total int64, description string) *ProgressBar {
	if ui.jsonMode || !ui.interactive {
		return nil
	}
	bar := progressbar.NewOptions64(
		total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionSetWriter(ui.out),
		progressbar.OptionEnableColorCodes(!ui.noColor),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(ui.out, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &ProgressBar{bar: bar}
}

// Set moves the bar to the given page count.
func (p *ProgressBar) Set(current int64) {
	if p == nil {
		return
	}
	_ = p.bar.Set64(current)
}

// Finish completes the progress bar.
func (p *ProgressBar) Finish() {
	if p == nil {
		return
	}
	_ = p.bar.Finish()
}

// Spinner wraps a spinner instance for indeterminate progress display.
type Spinner struct {
	spinner *spinner.Spinner
	running bool
}

// Spinner creates a spinner, inert when output is not an interactive terminal.
func (ui *UI) Spinner(message string) *Spinner {
	if ui.jsonMode || !ui.interactive {
		return &Spinner{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(ui.out))
	s.Suffix = " " + message
	return &Spinner{spinner: s}
}

// Start starts the spinner animation.
func (s *Spinner) Start() {
	if s.spinner == nil || s.running {
		return
	}
	s.spinner.Start()
	s.running = true
}

// Stop stops the spinner animation and clears the line.
func (s *Spinner) Stop() {
	if s.spinner == nil || !s.running {
		return
	}
	s.spinner.Stop()
	s.running = false
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// IsTerminal checks if f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
