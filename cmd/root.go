package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/maxvaer/secprobe/internal/catalog"
	"github.com/maxvaer/secprobe/internal/config"
	"github.com/maxvaer/secprobe/internal/report"
	"github.com/maxvaer/secprobe/internal/runner"
	"github.com/maxvaer/secprobe/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var opts config.Options

// errProbesFailed signals a finished run whose verdict was not READY.
// The summary already names the failed probes, so Execute exits 1
// without printing an extra error line.
var errProbesFailed = errors.New("probes failed")

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"url", "suite"}},
	{"PROBES", []string{"groups", "skip-groups", "burst-requests", "burst-delay", "burst-path", "pattern", "fail-threshold"}},
	{"HTTP", []string{"timeout", "delay", "header", "user-agent", "proxy", "insecure"}},
	{"OUTPUT", []string{"output", "format", "quiet", "no-color", "on-fail"}},
	{"SIGNING", []string{"sign-key"}},
}

var rootCmd = &cobra.Command{
	Use:     "secprobe -u <url> [flags]",
	Short:   "Black-box security probe runner for HTTP APIs",
	Version: version.Version,
	Long: `secprobe fires a catalogue of security probes at a deployed HTTP API and
grades every response: hardening headers, authentication, rate limiting,
input validation, path traversal, CORS, data exposure and transport. The
aggregate verdict (READY, DEGRADED, BLOCKED) maps onto the exit code, so
a pipeline step fails whenever the target is not fit for release.`,
	Example: `  secprobe -u https://api.example.com
  secprobe -u https://api.example.com -o report.json --format json
  secprobe -u https://staging.example.com -g headers,cors,transport
  secprobe -u https://api.example.com --skip-groups rate-limit --delay 200ms
  secprobe --suite probes.yaml --fail-threshold 0
  secprobe -u https://api.example.com --pattern "re:AKIA[0-9A-Z]{16}"
  secprobe -u https://api.example.com --on-fail "notify-send {probe}"
  secprobe -u https://api.example.com -o report.json --sign-key release-key.asc`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Load the suite file if provided.
		if opts.SuiteFile != "" {
			suite, err := config.LoadSuite(opts.SuiteFile)
			if err != nil {
				return err
			}
			// Suite values apply only where the flag was not explicitly set.
			config.ApplySuite(&opts, suite, cmd.Flags().Changed)
			if !opts.Quiet {
				fmt.Fprintf(os.Stderr, "[+] Loaded suite from %s\n", opts.SuiteFile)
			}
		}
		if opts.URL == "" {
			_ = cmd.Help()
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("target required: use -u or a suite file with a target")
		}
		if !strings.HasPrefix(opts.URL, "http://") && !strings.HasPrefix(opts.URL, "https://") {
			opts.URL = "http://" + opts.URL
		}
		if opts.OutputFormat != "text" && opts.OutputFormat != "json" && opts.OutputFormat != "csv" {
			return fmt.Errorf("--format must be one of: text, json, csv")
		}
		if opts.FailThreshold < 0 {
			return fmt.Errorf("--fail-threshold must not be negative")
		}
		if opts.BurstRequests <= 0 {
			return fmt.Errorf("--burst-requests must be positive")
		}
		if opts.SignKeyFile != "" && opts.OutputFile == "" {
			return fmt.Errorf("--sign-key requires an output file (-o)")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		rep, err := runner.Run(ctx, &opts)
		if err != nil {
			return err
		}
		if rep.ExitCode() != 0 {
			return errProbesFailed
		}
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()

	// Target
	f.StringVarP(&opts.URL, "url", "u", "", "Target base URL")
	f.StringVarP(&opts.SuiteFile, "suite", "s", "", "YAML suite file with settings and custom probes")

	// Probe selection
	f.StringSliceVarP(&opts.Groups, "groups", "g", nil, "Only run these probe groups (comma-separated)")
	f.StringSliceVar(&opts.SkipGroups, "skip-groups", nil, "Skip these probe groups (comma-separated)")

	// Burst
	f.IntVar(&opts.BurstRequests, "burst-requests", catalog.DefaultBurstRequests, "Requests per rate-limit burst")
	f.DurationVar(&opts.BurstDelay, "burst-delay", catalog.DefaultBurstDelay, "Delay between burst requests")
	f.StringVar(&opts.BurstPath, "burst-path", catalog.DefaultBurstPath, "Path the rate-limit burst targets")

	// Content sweep
	f.StringSliceVar(&opts.Patterns, "pattern", nil, "Extra sensitive-content pattern, literal or re:<regexp>")

	// Aggregation
	f.IntVar(&opts.FailThreshold, "fail-threshold", report.DefaultFailThreshold, "Failures above this count block the release")

	// HTTP
	f.DurationVarP(&opts.Timeout, "timeout", "t", 10*time.Second, "HTTP request timeout")
	f.DurationVar(&opts.Delay, "delay", 0, "Delay between probes")
	f.StringSliceVarP(new([]string), "header", "H", nil, "Custom headers (Key: Value)")
	f.StringVar(&opts.UserAgent, "user-agent", "", "Custom User-Agent string")
	f.StringVar(&opts.Proxy, "proxy", "", "HTTP/SOCKS proxy URL")
	f.BoolVarP(&opts.Insecure, "insecure", "k", false, "Skip TLS certificate verification")

	// Output
	f.StringVarP(&opts.OutputFile, "output", "o", "", "Output file path")
	f.StringVar(&opts.OutputFormat, "format", "text", "Output format: text, json, csv")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "Minimal output")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")

	// Hooks
	f.StringVar(&opts.OnFailCmd, "on-fail", "", "Shell command to run for each failed probe ({probe} and {status} expand)")

	// Signing
	f.StringVar(&opts.SignKeyFile, "sign-key", "", "Armored PGP private key for a detached report signature")

	// Custom help: categorized flags like httpx.
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if f := cmd.Flags().Lookup(name); f != nil {
					fmt.Fprintln(w, formatFlag(f))
				}
			}
		}
		fmt.Fprintln(w)
	})

	// Parse headers from string slice into map in PreRun.
	rootCmd.PreRunE = chainPreRun(rootCmd.PreRunE, func(cmd *cobra.Command, args []string) error {
		headers, _ := f.GetStringSlice("header")
		if len(headers) > 0 {
			opts.Headers = make(map[string]string, len(headers))
			for _, h := range headers {
				parts := strings.SplitN(h, ":", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid header format %q, expected 'Key: Value'", h)
				}
				opts.Headers[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
			}
		}
		return nil
	})
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errProbesFailed) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// chainPreRun combines two PreRunE functions.
func chainPreRun(first, second func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if first != nil {
			if err := first(cmd, args); err != nil {
				return err
			}
		}
		return second(cmd, args)
	}
}

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 36
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	// Show default for non-zero values.
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
                                                 __
   _____  ___   _____    ____    _____  ____    / /_   ___
  / ___/ / _ \ / ___/   / __ \  / ___/ / __ \  / __ \ / _ \
 (__  ) /  __// /__    / /_/ / / /    / /_/ / / /_/ //  __/
/____/  \___/ \___/   / .___/ /_/     \____/ /_.___/ \___/   %s
                     /_/

`, ver)
}
