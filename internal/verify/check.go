package verify

import (
	"net/url"
	"strings"
	"time"
)

const (
	DefaultURL             = "http://localhost:3000"
	DefaultButtonLabel     = "Watch the Film"
	DefaultFrameTitle      = "TerraMuse Brand Film"
	DefaultExpectedVideoID = "pOe5M0GtYZo"
	DefaultScreenshotPath  = "verification/video_modal.png"
	DefaultTimeout         = 30 * time.Second
)

// Check describes one video modal verification.
type Check struct {
	Name            string
	URL             string
	ButtonLabel     string
	FrameTitle      string
	ExpectedVideoID string
	ScreenshotPath  string
	Timeout         time.Duration
	FullPage        bool
	Assertions      []Assertion
}

// DefaultCheck returns the check against the local TerraMuse home page.
func DefaultCheck() Check {
	return Check{
		Name:            "video modal",
		URL:             DefaultURL,
		ButtonLabel:     DefaultButtonLabel,
		FrameTitle:      DefaultFrameTitle,
		ExpectedVideoID: DefaultExpectedVideoID,
		ScreenshotPath:  DefaultScreenshotPath,
		Timeout:         DefaultTimeout,
	}
}

// Validate reports the first unusable field.
func (c Check) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return &InvalidCheckError{Field: "url", Reason: "is required"}
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &InvalidCheckError{Field: "url", Reason: "must be an absolute URL"}
	}
	if strings.TrimSpace(c.ButtonLabel) == "" {
		return &InvalidCheckError{Field: "button_label", Reason: "is required"}
	}
	if strings.TrimSpace(c.FrameTitle) == "" {
		return &InvalidCheckError{Field: "frame_title", Reason: "is required"}
	}
	// An empty id is contained in every string.
	if c.ExpectedVideoID == "" {
		return &InvalidCheckError{Field: "expected_video_id", Reason: "is required"}
	}
	if strings.TrimSpace(c.ScreenshotPath) == "" {
		return &InvalidCheckError{Field: "screenshot", Reason: "is required"}
	}
	if c.Timeout <= 0 {
		return &InvalidCheckError{Field: "timeout", Reason: "must be positive"}
	}
	return nil
}
