package verify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Runner drives one browser session per Check.
type Runner struct {
	engine     Engine
	engineName string
	launch     LaunchOptions
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithEngineName sets the engine name attached to logs and reports.
func WithEngineName(name string) Option {
	return func(r *Runner) {
		r.engineName = name
	}
}

// WithLaunchOptions sets the browser launch options. The timeout is always
// taken from the Check being run.
func WithLaunchOptions(opts LaunchOptions) Option {
	return func(r *Runner) {
		r.launch = opts
	}
}

// NewRunner creates a runner over engine.
func NewRunner(engine Engine, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		launch: LaunchOptions{
			Headless:       true,
			ViewportWidth:  1280,
			ViewportHeight: 720,
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs the check. The returned report is non-nil whenever the check
// was valid, including on failure, so callers can print what was observed.
func (r *Runner) Run(ctx context.Context, check Check) (report *Report, err error) {
	if err := check.Validate(); err != nil {
		return nil, err
	}

	started := r.now()
	report = &Report{
		RunID:     uuid.NewString(),
		Check:     check.Name,
		Engine:    r.engineName,
		StartedAt: started,
		Result:    Result{Expected: check.ExpectedVideoID},
	}
	defer func() {
		report.Duration = r.now().Sub(started)
	}()

	logger := r.logger.With("run_id", report.RunID, "check", check.Name, "engine", r.engineName)

	launch := r.launch
	launch.Timeout = check.Timeout
	logger.Debug("launching browser", "headless", launch.Headless)
	session, err := r.engine.Launch(ctx, launch)
	if err != nil {
		return report, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("failed to close browser", "error", cerr)
		}
	}()

	page, err := session.NewPage(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to open page: %w", err)
	}

	src, err := r.observe(ctx, logger, page, check)
	if err != nil {
		logger.Error("check aborted", "error", err)
		if r.captureBestEffort(ctx, logger, page, check) {
			report.Screenshot = check.ScreenshotPath
		}
		return report, err
	}

	report.Result = Evaluate(check.ExpectedVideoID, src)
	checkErr := report.Result.Err()
	if checkErr == nil && len(check.Assertions) > 0 {
		logger.Debug("evaluating assertions", "count", len(check.Assertions))
		checkErr = CheckAssertions(ctx, check.Assertions, Observation(check, src))
	}
	if checkErr != nil {
		logger.Error("check failed", "error", checkErr)
	} else {
		logger.Info("check passed", "src", src)
	}

	if shotErr := r.capture(ctx, page, check); shotErr != nil {
		if checkErr != nil {
			logger.Warn("failed to capture screenshot", "error", shotErr)
			return report, checkErr
		}
		return report, shotErr
	}
	report.Screenshot = check.ScreenshotPath
	logger.Debug("screenshot saved", "path", check.ScreenshotPath)

	return report, checkErr
}

// observe navigates, opens the modal and reads the frame src.
func (r *Runner) observe(ctx context.Context, logger *slog.Logger, page Page, check Check) (string, error) {
	logger.Debug("navigating", "step", "goto", "url", check.URL)
	if err := r.step(ctx, check, func(ctx context.Context) error {
		return page.Goto(ctx, check.URL)
	}); err != nil {
		return "", &NavigationError{URL: check.URL, Err: err}
	}

	logger.Debug("clicking button", "step", "click", "label", check.ButtonLabel)
	if err := r.step(ctx, check, func(ctx context.Context) error {
		return page.ClickButton(ctx, check.ButtonLabel)
	}); err != nil {
		return "", &ElementNotFoundError{Role: "button", Label: check.ButtonLabel, Err: err}
	}

	selector := FrameSelector(check.FrameTitle)
	logger.Debug("waiting for frame", "step", "wait", "selector", selector)
	if err := r.step(ctx, check, func(ctx context.Context) error {
		return page.WaitFrameVisible(ctx, check.FrameTitle)
	}); err != nil {
		return "", &VisibilityTimeoutError{Selector: selector, Timeout: check.Timeout, Err: err}
	}

	var src string
	if err := r.step(ctx, check, func(ctx context.Context) error {
		var err error
		src, err = page.FrameSrc(ctx, check.FrameTitle)
		return err
	}); err != nil {
		return "", fmt.Errorf("failed to read src of %s: %w", selector, err)
	}
	logger.Info("frame src", "src", src)
	return src, nil
}

func (r *Runner) step(ctx context.Context, check Check, fn func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, check.Timeout)
	defer cancel()
	return fn(stepCtx)
}

func (r *Runner) capture(ctx context.Context, page Page, check Check) error {
	if dir := filepath.Dir(check.ScreenshotPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &ScreenshotError{Path: check.ScreenshotPath, Err: err}
		}
	}
	if err := r.step(ctx, check, func(ctx context.Context) error {
		return page.Screenshot(ctx, check.ScreenshotPath, check.FullPage)
	}); err != nil {
		return &ScreenshotError{Path: check.ScreenshotPath, Err: err}
	}
	return nil
}

func (r *Runner) captureBestEffort(ctx context.Context, logger *slog.Logger, page Page, check Check) bool {
	if err := r.capture(ctx, page, check); err != nil {
		logger.Warn("failed to capture failure screenshot", "error", err)
		return false
	}
	logger.Info("failure screenshot saved", "path", check.ScreenshotPath)
	return true
}
