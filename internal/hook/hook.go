package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/maxvaer/secprobe/internal/check"
)

// resultJSON is the JSON payload sent to the hook command via stdin.
type resultJSON struct {
	Probe      string `json:"probe"`
	Group      string `json:"group"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// Runner executes a shell command for each failed probe.
type Runner struct {
	cmd   string
	quiet bool
}

// NewRunner creates a hook runner. cmd is the shell command to execute.
func NewRunner(cmd string, quiet bool) *Runner {
	return &Runner{cmd: cmd, quiet: quiet}
}

// Run executes the hook command with the result as JSON on stdin.
// Placeholders in the command expand to quoted shell words; the stdin
// payload is the structured transport. The command runs with a
// 30-second timeout. Errors are logged but never halt the probe run.
func (r *Runner) Run(result *check.Result) {
	payload := resultJSON{
		Probe:      result.Probe,
		Group:      result.Group,
		Status:     result.Verdict.Status.String(),
		Message:    result.Verdict.Message,
		StatusCode: result.StatusCode,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[hook] marshal error: %v\n", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shell, args := shellCommand()
	// Each placeholder expands to a single quoted word. {message} carries
	// response-derived text, so it must stay data, not shell syntax.
	expanded := r.cmd
	expanded = strings.ReplaceAll(expanded, "{probe}", quoteArg(result.Probe))
	expanded = strings.ReplaceAll(expanded, "{group}", quoteArg(result.Group))
	expanded = strings.ReplaceAll(expanded, "{status}", quoteArg(result.Verdict.Status.String()))
	expanded = strings.ReplaceAll(expanded, "{message}", quoteArg(result.Verdict.Message))
	expanded = strings.ReplaceAll(expanded, "{code}", quoteArg(fmt.Sprintf("%d", result.StatusCode)))

	cmd := exec.CommandContext(ctx, shell, append(args, expanded)...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = os.Stderr

	output, err := cmd.Output()
	if err != nil {
		if !r.quiet {
			fmt.Fprintf(os.Stderr, "[hook] error: %v\n", err)
		}
		return
	}

	if len(output) > 0 && !r.quiet {
		fmt.Fprintf(os.Stderr, "[hook] %s", output)
	}
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}

// quoteArg renders s as one sh word. cmd.exe has no reliable quoting,
// so on Windows the value passes through and untrusted text should be
// read from the stdin payload instead.
func quoteArg(s string) string {
	if runtime.GOOS == "windows" {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
