package verify

import (
	"context"
	"strings"
	"time"
)

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	SlowMo         time.Duration
}

// Engine starts browser sessions.
type Engine interface {
	Launch(ctx context.Context, opts LaunchOptions) (Session, error)
}

// Session owns one browser instance. Close releases everything it started.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is the slice of a browser tab the runner needs.
type Page interface {
	Goto(ctx context.Context, url string) error
	// ClickButton clicks the element with role button whose accessible name
	// contains label.
	ClickButton(ctx context.Context, label string) error
	WaitFrameVisible(ctx context.Context, title string) error
	// FrameSrc returns "" when the attribute is absent.
	FrameSrc(ctx context.Context, title string) (string, error)
	Screenshot(ctx context.Context, path string, fullPage bool) error
}

// FrameSelector is the CSS selector for the iframe carrying title.
func FrameSelector(title string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(title)
	return `iframe[title="` + escaped + `"]`
}
