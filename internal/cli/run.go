package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/terramuse/videocheck/internal/dsl"
	"github.com/terramuse/videocheck/internal/plugins"
	"github.com/terramuse/videocheck/internal/verify"
)

// ErrChecksFailed is returned after failures have already been printed.
var ErrChecksFailed = errors.New("video check failed")

type checkOutcome struct {
	check  verify.Check
	report *verify.Report
	err    error
}

// NewRunCmd creates a new run command
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [check-file]",
		Short: "Run the video modal check",
		Long: `Run the video modal check. Without a check file the built-in check against
http://localhost:3000 is run. A check file is a YAML file declaring one or more
checks; they run one after another, each in a fresh browser.

Values are resolved in this order, later wins: built-in defaults, check file,
environment (VIDEOCHECK_URL, VIDEOCHECK_VIDEO_ID, VIDEOCHECK_ENGINE,
VIDEOCHECK_SCREENSHOT, VIDEOCHECK_TIMEOUT, HEADLESS), command line flags.

When several checks end up with the same screenshot path, each check's name is
added to the file name (shot.png becomes shot-brand-film.png) so no screenshot
overwrites another.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliVars, err := cmd.Flags().GetStringToString("var")
			if err != nil {
				return fmt.Errorf("failed to get var flags: %w", err)
			}
			checkFile := ""
			if len(args) == 1 {
				checkFile = args[0]
			}
			return runChecks(cmd, checkFile, cliVars)
		},
	}

	cmd.Flags().StringToStringP("var", "v", nil, "Set check file variables (can be used multiple times: --var key=value --var nested.key=value)")

	return cmd
}

func runChecks(cmd *cobra.Command, checkFile string, cliVars map[string]string) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	fileEnv, err := applyEnvFile(envFile)
	if err != nil {
		return err
	}

	envCfg, err := configFromEnv(os.LookupEnv)
	if err != nil {
		return err
	}
	flagCfg, err := configFromFlags(cmd.Flags())
	if err != nil {
		return err
	}
	cfg := envCfg.Merge(flagCfg)

	checks := []verify.Check{verify.DefaultCheck()}
	if checkFile != "" {
		cf, err := dsl.LoadFile(checkFile, dsl.LoadOptions{Vars: cliVars, Env: fileEnv})
		if err != nil {
			return err
		}
		Logger.Debug("loaded check file", "path", checkFile, "name", cf.Name, "checks", len(cf.Checks))
		checks = cf.ToChecks(verify.DefaultCheck())
	}
	for i := range checks {
		checks[i] = cfg.Apply(checks[i])
	}
	uniqueScreenshotPaths(checks)

	engine, err := plugins.Resolve(cfg.Engine)
	if err != nil {
		return err
	}

	runner := verify.NewRunner(engine,
		verify.WithLogger(Logger),
		verify.WithEngineName(engine.GetType()),
		verify.WithLaunchOptions(cfg.LaunchOptions()),
	)

	out := cmd.OutOrStdout()
	outcomes := make([]checkOutcome, 0, len(checks))
	for _, check := range checks {
		report, err := runner.Run(cmd.Context(), check)
		outcome := checkOutcome{check: check, report: report, err: err}
		printOutcome(out, outcome)
		outcomes = append(outcomes, outcome)
		if cmd.Context().Err() != nil {
			break
		}
	}

	if len(checks) > 1 {
		printFinalSummary(out, outcomes)
	}

	for _, o := range outcomes {
		if o.err != nil {
			return ErrChecksFailed
		}
	}
	if len(outcomes) < len(checks) {
		return ErrChecksFailed
	}
	return nil
}

// uniqueScreenshotPaths gives checks that share a screenshot path their own
// file, suffixed with the check name or, failing that, its position.
func uniqueScreenshotPaths(checks []verify.Check) {
	if len(checks) < 2 {
		return
	}
	shared := make(map[string]int, len(checks))
	used := make(map[string]bool, len(checks))
	for _, c := range checks {
		shared[filepath.Clean(c.ScreenshotPath)]++
		used[filepath.Clean(c.ScreenshotPath)] = true
	}

	for i := range checks {
		path := filepath.Clean(checks[i].ScreenshotPath)
		if shared[path] < 2 {
			continue
		}
		ext := filepath.Ext(path)
		stem := strings.TrimSuffix(path, ext)

		candidate := ""
		if slug := slugify(checks[i].Name); slug != "" {
			candidate = stem + "-" + slug + ext
		}
		for n := i + 1; candidate == "" || used[candidate]; n++ {
			candidate = stem + "-" + strconv.Itoa(n) + ext
		}
		used[candidate] = true
		Logger.Debug("screenshot path shared by several checks", "check", checks[i].Name, "path", candidate)
		checks[i].ScreenshotPath = candidate
	}
}

// slugify lowercases name and collapses every run of other characters than
// letters and digits into a single dash.
func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

func printOutcome(w io.Writer, o checkOutcome) {
	brackets := "[" + o.check.Name + "]"

	if o.err == nil {
		printer := color.New(color.FgGreen, color.Bold)
		_, _ = fmt.Fprintf(w, "%s %s video %q found in %s\n",
			printer.Sprint(brackets), printer.Sprint("SUCCESS:"), o.report.Result.Expected, o.report.Result.Actual)
	} else {
		printer := color.New(color.FgRed, color.Bold)
		_, _ = fmt.Fprintf(w, "%s %s %s\n", printer.Sprint(brackets), printer.Sprint("FAILURE:"), describeFailure(o.err))
	}

	if o.report != nil && o.report.Screenshot != "" {
		_, _ = fmt.Fprintf(w, "%s screenshot saved to %s\n", color.New(color.FgMagenta).Sprint(brackets), o.report.Screenshot)
	}
}

// describeFailure names the failure kind first so the line reads on its own.
func describeFailure(err error) string {
	var (
		mismatch   *verify.IncorrectVideoIDError
		navigation *verify.NavigationError
		notFound   *verify.ElementNotFoundError
		visibility *verify.VisibilityTimeoutError
		assertion  *verify.AssertionFailedError
		screenshot *verify.ScreenshotError
	)
	switch {
	case errors.As(err, &mismatch):
		return fmt.Sprintf("incorrect video: expected %q, observed src %q", mismatch.Expected, mismatch.Actual)
	case errors.As(err, &navigation):
		return "navigation failed: " + err.Error()
	case errors.As(err, &notFound):
		return "element not found: " + err.Error()
	case errors.As(err, &visibility):
		return "frame not visible: " + err.Error()
	case errors.As(err, &assertion):
		return "assertion failed: " + err.Error()
	case errors.As(err, &screenshot):
		return "screenshot failed: " + err.Error()
	default:
		return err.Error()
	}
}

// printFinalSummary prints the aggregated results of a multi-check run
func printFinalSummary(w io.Writer, outcomes []checkOutcome) {
	passed := 0
	for _, o := range outcomes {
		if o.err == nil {
			passed++
		}
	}

	_, _ = fmt.Fprintln(w, "\n=== Final Summary ===")
	_, _ = fmt.Fprintf(w, "Total Checks: %d\n", len(outcomes))
	_, _ = fmt.Fprintf(w, "%s Passed Checks: %d\n", color.GreenString("✓"), passed)
	_, _ = fmt.Fprintf(w, "%s Failed Checks: %d\n", color.RedString("✗"), len(outcomes)-passed)
}
