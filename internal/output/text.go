package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/maxvaer/secprobe/internal/check"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorDim    = "\033[2m"
)

// TextWriter writes one aligned line per probe result.
type TextWriter struct {
	w       io.Writer
	closer  io.Closer
	noColor bool
	quiet   bool
}

// NewTextWriter creates a text output writer. If outputFile is empty,
// stdout is used. Color is disabled on request, when writing to a file,
// and when stdout is not a terminal.
func NewTextWriter(outputFile string, noColor, quiet bool) (*TextWriter, error) {
	var w io.Writer = os.Stdout
	var closer io.Closer
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return nil, err
		}
		w = f
		closer = f
		noColor = true
	} else if !term.IsTerminal(int(os.Stdout.Fd())) {
		noColor = true
	}
	return &TextWriter{w: w, closer: closer, noColor: noColor, quiet: quiet}, nil
}

func (t *TextWriter) WriteHeader() error {
	if t.quiet {
		return nil
	}
	dim, reset := colorDim, colorReset
	if t.noColor {
		dim, reset = "", ""
	}
	_, err := fmt.Fprintf(t.w, "%s%-6s  %-16s  %-36s %s%s\n", dim, "Status", "Group", "Probe", "Detail", reset)
	return err
}

func (t *TextWriter) WriteResult(result *check.Result) error {
	color := t.colorForStatus(result.Verdict.Status)
	reset := colorReset
	if t.noColor {
		color, reset = "", ""
	}

	line := fmt.Sprintf("%s%-6s%s  %-16s  %-36s %s",
		color, result.Verdict.Status, reset,
		result.Group,
		result.Probe,
		result.Verdict.Message,
	)
	_, err := fmt.Fprintln(t.w, strings.TrimRight(line, " "))
	return err
}

func (t *TextWriter) WriteFooter(summary Summary) error {
	if t.quiet {
		return nil
	}
	color := t.colorForVerdict(summary.Verdict)
	reset := colorReset
	if t.noColor {
		color, reset = "", ""
	}
	_, err := fmt.Fprintf(t.w,
		"\nProbes: %d | Passed: %d | Warned: %d | Failed: %d | Duration: %s\nVerdict: %s%s%s\n",
		summary.Passed+summary.Warned+summary.Failed,
		summary.Passed,
		summary.Warned,
		summary.Failed,
		summary.Duration.Round(time.Millisecond),
		color, summary.Verdict, reset,
	)
	return err
}

func (t *TextWriter) Close() error {
	if t.closer == nil {
		return nil
	}
	err := t.closer.Close()
	t.closer = nil
	return err
}

func (t *TextWriter) colorForStatus(s check.Status) string {
	if t.noColor {
		return ""
	}
	switch s {
	case check.Pass:
		return colorGreen
	case check.Warn:
		return colorYellow
	case check.Fail:
		return colorRed
	default:
		return ""
	}
}

func (t *TextWriter) colorForVerdict(verdict string) string {
	if t.noColor {
		return ""
	}
	switch verdict {
	case "READY":
		return colorGreen
	case "DEGRADED":
		return colorYellow
	case "BLOCKED":
		return colorRed
	default:
		return ""
	}
}
