// Package runner drives one probe run end to end: catalogue execution,
// verdict collection, report output, hooks, and signing.
package runner

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/maxvaer/secprobe/internal/attest"
	"github.com/maxvaer/secprobe/internal/catalog"
	"github.com/maxvaer/secprobe/internal/check"
	"github.com/maxvaer/secprobe/internal/config"
	"github.com/maxvaer/secprobe/internal/hook"
	"github.com/maxvaer/secprobe/internal/output"
	"github.com/maxvaer/secprobe/internal/probe"
	"github.com/maxvaer/secprobe/internal/report"
	"github.com/maxvaer/secprobe/pkg/version"
)

// Run executes the probe catalogue against opts.URL and returns the
// assembled report. Individual probe failures become Fail verdicts and
// never abort the run; a non-nil error means the run could not be set
// up or was interrupted.
func Run(ctx context.Context, opts *config.Options) (*report.Report, error) {
	// 1. Build the probe catalogue.
	groups, err := catalog.Build(opts)
	if err != nil {
		return nil, err
	}

	// 2. Create HTTP requester.
	req, err := probe.NewRequester(opts)
	if err != nil {
		return nil, fmt.Errorf("creating requester: %w", err)
	}

	// 3. Create output writer.
	out, err := createWriter(opts)
	if err != nil {
		return nil, fmt.Errorf("creating output writer: %w", err)
	}
	defer out.Close()

	if err := out.WriteHeader(); err != nil {
		return nil, err
	}

	// 4. Print banner.
	if !opts.Quiet {
		printBanner(opts, len(groups), catalog.Count(groups))
	}

	// 5. Hook runner for failure alerting.
	var hookRunner *hook.Runner
	if opts.OnFailCmd != "" {
		hookRunner = hook.NewRunner(opts.OnFailCmd, opts.Quiet)
	}

	// 6. Execute every definition in catalogue order.
	rep := report.New(opts.URL, opts.FailThreshold)
	start := time.Now()
	runErr := runGroups(ctx, req, groups, rep, out, hookRunner, opts.Delay)
	rep.Duration = time.Since(start)

	// 7. Write the footer even for interrupted runs, so the report file
	// stays well formed.
	passed, warned, failed := rep.Counts()
	summary := output.Summary{
		Target:   opts.URL,
		Passed:   passed,
		Warned:   warned,
		Failed:   failed,
		Verdict:  rep.Readiness().String(),
		Duration: rep.Duration,
	}
	if err := out.WriteFooter(summary); err != nil {
		return rep, err
	}
	// Explicit close: the report file must be flushed before signing.
	if err := out.Close(); err != nil {
		return rep, err
	}

	if runErr != nil {
		return rep, runErr
	}

	// 8. Sign the written report when requested.
	if opts.SignKeyFile != "" {
		if err := signReport(opts); err != nil {
			return rep, err
		}
	}

	return rep, nil
}

// runGroups walks the catalogue in order, one result per definition.
func runGroups(ctx context.Context, req *probe.Requester, groups []check.Group, rep *report.Report, out output.Writer, hookRunner *hook.Runner, delay time.Duration) error {
	for _, group := range groups {
		for i := range group.Definitions {
			if err := ctx.Err(); err != nil {
				return err
			}

			def := &group.Definitions[i]
			result := executeDefinition(ctx, req, def)
			result.Group = group.Name
			rep.Add(*result)

			if err := out.WriteResult(result); err != nil {
				return err
			}
			if hookRunner != nil && result.Verdict.Status == check.Fail {
				hookRunner.Run(result)
			}

			if delay > 0 {
				if err := sleep(ctx, delay); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// executeDefinition renders exactly one result, whether or not the
// probe reached the target.
func executeDefinition(ctx context.Context, req *probe.Requester, def *check.Definition) *check.Result {
	if def.Burst != nil {
		return executeBurst(ctx, req, def)
	}

	resp, err := req.Do(ctx, def.Request)
	if err != nil {
		return &check.Result{
			Probe:   def.Name,
			Verdict: check.Failf("probe failed: %v", err),
		}
	}

	return &check.Result{
		Probe:      def.Name,
		Verdict:    check.Combine(resp, def.Predicates),
		StatusCode: resp.StatusCode,
		Duration:   resp.Duration,
	}
}

// executeBurst re-issues the definition's request until the target
// throttles with a 429 or the attempt budget runs out. Sequential on
// purpose: the probe observes the limiter, it does not race it.
func executeBurst(ctx context.Context, req *probe.Requester, def *check.Definition) *check.Result {
	var total time.Duration
	lastStatus := 0

	for i := 1; i <= def.Burst.Requests; i++ {
		resp, err := req.Do(ctx, def.Request)
		if err != nil {
			return &check.Result{
				Probe:    def.Name,
				Verdict:  check.Failf("burst request %d failed: %v", i, err),
				Duration: total,
			}
		}
		total += resp.Duration
		lastStatus = resp.StatusCode

		if resp.StatusCode == http.StatusTooManyRequests {
			return &check.Result{
				Probe:      def.Name,
				Verdict:    check.Passf("throttled after %d requests", i),
				StatusCode: resp.StatusCode,
				Duration:   total,
			}
		}

		if i < def.Burst.Requests && def.Burst.Delay > 0 {
			if err := sleep(ctx, def.Burst.Delay); err != nil {
				return &check.Result{
					Probe:    def.Name,
					Verdict:  check.Failf("burst aborted: %v", err),
					Duration: total,
				}
			}
		}
	}

	// No throttling observed. Inconclusive rather than a defect: the
	// limiter may sit above the attempt budget.
	return &check.Result{
		Probe:      def.Name,
		Verdict:    check.Warnf("no throttling after %d requests", def.Burst.Requests),
		StatusCode: lastStatus,
		Duration:   total,
	}
}

// sleep waits for d unless the context ends first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func signReport(opts *config.Options) error {
	signer, err := attest.NewSigner(opts.SignKeyFile)
	if err != nil {
		return err
	}
	sigPath, err := signer.SignFile(opts.OutputFile)
	if err != nil {
		return err
	}
	if !opts.Quiet {
		fmt.Fprintf(os.Stderr, "[+] Signature written to %s\n", sigPath)
	}
	return nil
}

func createWriter(opts *config.Options) (output.Writer, error) {
	switch opts.OutputFormat {
	case "json":
		return output.NewJSONWriter(opts.OutputFile)
	case "csv":
		return output.NewCSVWriter(opts.OutputFile)
	default:
		return output.NewTextWriter(opts.OutputFile, opts.NoColor, opts.Quiet)
	}
}

func printBanner(opts *config.Options, groupCount, probeCount int) {
	const (
		cyan   = "\033[36m"
		white  = "\033[97m"
		dim    = "\033[2m"
		red    = "\033[31m"
		green  = "\033[32m"
		yellow = "\033[33m"
		reset  = "\033[0m"
	)

	c, w, d, r, g, y, rs := cyan, white, dim, red, green, yellow, reset
	if opts.NoColor {
		c, w, d, r, g, y, rs = "", "", "", "", "", "", ""
	}

	fmt.Fprintf(os.Stderr, `
%s                                                 __         %s
%s   _____  ___   _____    ____    _____  ____    / /_   ___  %s
%s  / ___/ / _ \ / ___/   / __ \  / ___/ / __ \  / __ \ / _ \ %s
%s (__  ) /  __// /__    / /_/ / / /    / /_/ / / /_/ //  __/ %s
%s/____/  \___/ \___/   / .___/ /_/     \____/ /_.___/ \___/  %s %sv%s%s
%s                     /_/                                    %s
%s    API Security Probe Runner                               %s
%s    Release Readiness Gate for CI                           %s
`,
		c, rs,
		c, rs,
		c, rs,
		c, rs,
		c, rs, d, version.Version, rs,
		c, rs,
		w, rs,
		d, rs,
	)

	tlsLabel := fmt.Sprintf("%sON%s", g, rs)
	if opts.Insecure {
		tlsLabel = fmt.Sprintf("%sOFF%s", r, rs)
	}
	if opts.NoColor {
		tlsLabel = "ON"
		if opts.Insecure {
			tlsLabel = "OFF"
		}
	}

	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n", d, rs)
	fmt.Fprintf(os.Stderr, "  %sTarget:%s      %s%s%s\n", d, rs, w, opts.URL, rs)
	fmt.Fprintf(os.Stderr, "  %sGroups:%s      %s%d%s\n", d, rs, y, groupCount, rs)
	fmt.Fprintf(os.Stderr, "  %sProbes:%s      %s%d%s\n", d, rs, y, probeCount, rs)
	fmt.Fprintf(os.Stderr, "  %sTimeout:%s     %s%s%s\n", d, rs, w, opts.Timeout, rs)
	fmt.Fprintf(os.Stderr, "  %sTLS verify:%s  %s\n", d, rs, tlsLabel)
	fmt.Fprintf(os.Stderr, "%s  ──────────────────────────────────────%s\n\n", d, rs)
}
