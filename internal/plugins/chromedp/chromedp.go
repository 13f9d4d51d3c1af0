// Package chromedp drives a local Chrome over the DevTools protocol.
package chromedp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/chromedp/chromedp"

	"github.com/terramuse/videocheck/internal/plugins"
	"github.com/terramuse/videocheck/internal/verify"
)

func init() {
	plugins.RegisterPlugin(&Plugin{})
}

// Plugin launches Chrome with chromedp's exec allocator. CHROME_PATH selects
// the binary; otherwise chromedp searches the usual locations.
type Plugin struct{}

func (p *Plugin) GetType() string {
	return "chromedp"
}

func (p *Plugin) Launch(ctx context.Context, opts verify.LaunchOptions) (verify.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("mute-audio", true),
	)
	if opts.ViewportWidth > 0 && opts.ViewportHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.ViewportWidth, opts.ViewportHeight))
	}
	if path := os.Getenv("CHROME_PATH"); path != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(path))
	}

	// The browser lives until Close, not until ctx is done.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	s := &session{ctx: browserCtx, cancelBrowser: cancelBrowser, cancelAlloc: cancelAlloc}

	// The first Run allocates the browser and must not carry a deadline, or
	// the deadline would stop the whole browser. It is raced against ctx and
	// opts.Timeout instead.
	launchCtx, cancel := ctx, context.CancelFunc(func() {})
	if opts.Timeout > 0 {
		launchCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	defer cancel()

	started := make(chan error, 1)
	go func() {
		started <- chromedp.Run(browserCtx)
	}()

	select {
	case err := <-started:
		if err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("could not launch chrome: %w", err)
		}
		return s, nil
	case <-launchCtx.Done():
		// Cancelling the allocator kills the process and unblocks Run.
		s.cancelBrowser()
		s.cancelAlloc()
		<-started
		return nil, fmt.Errorf("could not launch chrome: %w", timeoutError(launchCtx, launchCtx.Err()))
	}
}

type session struct {
	ctx           context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
	opened        bool
}

// NewPage returns the tab created with the browser; chromedp opens exactly one.
func (s *session) NewPage(ctx context.Context) (verify.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.opened {
		return nil, errors.New("chromedp session supports a single page")
	}
	s.opened = true
	return &cdpPage{ctx: s.ctx}, nil
}

func (s *session) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancelBrowser()
	s.cancelAlloc()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type cdpPage struct {
	ctx context.Context
}

func (p *cdpPage) Goto(ctx context.Context, url string) error {
	runCtx, cancel := bound(ctx, p.ctx)
	defer cancel()

	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		return timeoutError(runCtx, err)
	}
	if resp != nil && resp.Status >= 400 {
		return fmt.Errorf("unexpected status %d from %s", resp.Status, url)
	}
	return nil
}

func (p *cdpPage) ClickButton(ctx context.Context, label string) error {
	xpath := buttonXPath(label)
	if err := run(ctx, p.ctx, chromedp.WaitReady(xpath, chromedp.BySearch)); err != nil {
		return err
	}
	return run(ctx, p.ctx, chromedp.Click(xpath, chromedp.BySearch, chromedp.NodeVisible))
}

func (p *cdpPage) WaitFrameVisible(ctx context.Context, title string) error {
	return run(ctx, p.ctx, chromedp.WaitVisible(verify.FrameSelector(title), chromedp.ByQuery))
}

func (p *cdpPage) FrameSrc(ctx context.Context, title string) (string, error) {
	var src string
	var ok bool
	if err := run(ctx, p.ctx, chromedp.AttributeValue(verify.FrameSelector(title), "src", &src, &ok, chromedp.ByQuery)); err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return src, nil
}

func (p *cdpPage) Screenshot(ctx context.Context, path string, fullPage bool) error {
	var buf []byte
	action := chromedp.CaptureScreenshot(&buf)
	if fullPage {
		// quality 100 keeps the output PNG
		action = chromedp.FullScreenshot(&buf, 100)
	}
	if err := run(ctx, p.ctx, action); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write screenshot: %w", err)
	}
	return nil
}

// run executes actions on the browser context, bounded by ctx's deadline and
// cancellation. Deadline expiry is reported as verify.ErrTimeout.
func run(ctx context.Context, browserCtx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := bound(ctx, browserCtx)
	defer cancel()
	return timeoutError(runCtx, chromedp.Run(runCtx, actions...))
}

// bound derives a context from browserCtx that ends with ctx.
func bound(ctx context.Context, browserCtx context.Context) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(browserCtx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(browserCtx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func timeoutError(runCtx context.Context, err error) error {
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", verify.ErrTimeout, err)
	}
	return err
}

// buttonXPath matches a button, or any element with role=button, whose text or
// aria-label contains label.
func buttonXPath(label string) string {
	lit := xpathLiteral(label)
	return fmt.Sprintf(`//*[self::button or @role="button"][contains(normalize-space(.), %s) or contains(@aria-label, %s)]`, lit, lit)
}

// xpathLiteral quotes s for XPath 1.0, which has no escape sequences.
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, `'`) {
		return `'` + s + `'`
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, len(parts)*2)
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if part != "" {
			quoted = append(quoted, `"`+part+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
