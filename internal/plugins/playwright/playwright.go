package playwright

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/terramuse/videocheck/internal/plugins"
	"github.com/terramuse/videocheck/internal/verify"
)

func init() {
	plugins.RegisterPlugin(&Plugin{})
}

// Plugin launches Chromium through playwright-go.
type Plugin struct{}

func (p *Plugin) GetType() string {
	return "playwright"
}

// Launch starts the playwright driver, a Chromium browser and one context.
// Browsers are installed first unless PLAYWRIGHT_PREINSTALLED=1.
func (p *Plugin) Launch(ctx context.Context, opts verify.LaunchOptions) (verify.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if os.Getenv("PLAYWRIGHT_PREINSTALLED") != "1" {
		if err := installDriver(); err != nil {
			return nil, fmt.Errorf("could not install playwright browsers: %w", err)
		}
	}

	pw, err := startDriver()
	if err != nil {
		return nil, err
	}
	s := &session{pw: pw}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	}
	if opts.SlowMo > 0 {
		launchOpts.SlowMo = playwright.Float(float64(opts.SlowMo.Milliseconds()))
	}
	if opts.Timeout > 0 {
		launchOpts.Timeout = playwright.Float(float64(opts.Timeout.Milliseconds()))
	}
	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	s.browser = browser

	contextOpts := playwright.BrowserNewContextOptions{}
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		contextOpts.Viewport = &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		}
	}
	browserContext, err := browser.NewContext(contextOpts)
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("could not create context: %w", err)
	}
	s.context = browserContext
	s.timeout = opts.Timeout

	return s, nil
}

// Swapped in tests.
var (
	installDriver = func() error {
		return playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}})
	}
	runDriver = func() (*playwright.Playwright, error) {
		return playwright.Run()
	}
)

// startDriver runs the playwright driver. On failure, which usually means
// driver version drift, it installs explicitly and retries once.
func startDriver() (*playwright.Playwright, error) {
	pw, err := runDriver()
	if err == nil {
		return pw, nil
	}
	errs := []error{fmt.Errorf("run: %w", err)}
	if installErr := installDriver(); installErr != nil {
		errs = append(errs, fmt.Errorf("install: %w", installErr))
	}
	pw, retryErr := runDriver()
	if retryErr != nil {
		errs = append(errs, fmt.Errorf("retry: %w", retryErr))
		return nil, fmt.Errorf("could not start playwright after retry: %w", errors.Join(errs...))
	}
	return pw, nil
}

type session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	timeout time.Duration
}

func (s *session) NewPage(ctx context.Context) (verify.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	s.page = page
	if s.timeout > 0 {
		ms := float64(s.timeout.Milliseconds())
		page.SetDefaultTimeout(ms)
		page.SetDefaultNavigationTimeout(ms)
	}
	return &pwPage{page: page}, nil
}

// Close tears down page, context, browser and driver in that order.
func (s *session) Close() error {
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) Goto(ctx context.Context, url string) error {
	resp, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   timeoutOption(ctx),
	})
	if err != nil {
		return translateError(err)
	}
	if resp != nil && resp.Status() >= 400 {
		return fmt.Errorf("unexpected status %d from %s", resp.Status(), url)
	}
	return nil
}

func (p *pwPage) ClickButton(ctx context.Context, label string) error {
	button := p.page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
		Name: label,
	}).First()

	if err := button.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: timeoutOption(ctx),
	}); err != nil {
		return translateError(err)
	}
	return translateError(button.Click(playwright.LocatorClickOptions{
		Timeout: timeoutOption(ctx),
	}))
}

func (p *pwPage) WaitFrameVisible(ctx context.Context, title string) error {
	return translateError(p.frame(title).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: timeoutOption(ctx),
	}))
}

func (p *pwPage) FrameSrc(ctx context.Context, title string) (string, error) {
	src, err := p.frame(title).GetAttribute("src", playwright.LocatorGetAttributeOptions{
		Timeout: timeoutOption(ctx),
	})
	if err != nil {
		return "", translateError(err)
	}
	return src, nil
}

func (p *pwPage) Screenshot(ctx context.Context, path string, fullPage bool) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(fullPage),
		Timeout:  timeoutOption(ctx),
	})
	return translateError(err)
}

func (p *pwPage) frame(title string) playwright.Locator {
	return p.page.Locator(verify.FrameSelector(title)).First()
}

// translateError maps playwright timeouts onto verify.ErrTimeout.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", verify.ErrTimeout, err)
	}
	return err
}
