package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/terramuse/videocheck/internal/verify"
)

// Environment variables that override check values.
const (
	EnvURL        = "VIDEOCHECK_URL"
	EnvVideoID    = "VIDEOCHECK_VIDEO_ID"
	EnvEngine     = "VIDEOCHECK_ENGINE"
	EnvScreenshot = "VIDEOCHECK_SCREENSHOT"
	EnvTimeout    = "VIDEOCHECK_TIMEOUT"
	EnvHeadless   = "HEADLESS"
)

// Config is one layer of overrides. Zero fields leave the layer below alone.
// VideoID is a pointer so that an explicit empty id still overrides, and then
// fails validation.
type Config struct {
	URL         string
	ButtonLabel string
	FrameTitle  string
	VideoID     *string
	Screenshot  string
	Timeout     time.Duration
	Engine      string
	FullPage    *bool
	Headless    *bool
}

// configFromEnv reads overrides through lookup, normally os.LookupEnv.
func configFromEnv(lookup func(string) (string, bool)) (Config, error) {
	var cfg Config
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	cfg.URL = get(EnvURL)
	if v, ok := lookup(EnvVideoID); ok {
		cfg.VideoID = &v
	}
	cfg.Engine = get(EnvEngine)
	cfg.Screenshot = get(EnvScreenshot)

	if v := get(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		cfg.Timeout = d
	}
	if v := get(EnvHeadless); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvHeadless, v, err)
		}
		cfg.Headless = &b
	}
	return cfg, nil
}

// configFromFlags reads only the flags that were set explicitly.
func configFromFlags(flags *pflag.FlagSet) (Config, error) {
	var cfg Config
	var err error

	str := func(name string, dst *string) {
		if err != nil || !flags.Changed(name) {
			return
		}
		*dst, err = flags.GetString(name)
	}
	boolean := func(name string, dst **bool) {
		if err != nil || !flags.Changed(name) {
			return
		}
		var b bool
		b, err = flags.GetBool(name)
		*dst = &b
	}

	str("url", &cfg.URL)
	str("button", &cfg.ButtonLabel)
	str("frame-title", &cfg.FrameTitle)
	if err == nil && flags.Changed("video-id") {
		var id string
		id, err = flags.GetString("video-id")
		cfg.VideoID = &id
	}
	str("screenshot", &cfg.Screenshot)
	str("engine", &cfg.Engine)
	boolean("full-page", &cfg.FullPage)
	boolean("headless", &cfg.Headless)
	if err == nil && flags.Changed("timeout") {
		cfg.Timeout, err = flags.GetDuration("timeout")
	}
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Merge returns c overlaid with the non-zero fields of over.
func (c Config) Merge(over Config) Config {
	out := c
	if over.URL != "" {
		out.URL = over.URL
	}
	if over.ButtonLabel != "" {
		out.ButtonLabel = over.ButtonLabel
	}
	if over.FrameTitle != "" {
		out.FrameTitle = over.FrameTitle
	}
	if over.VideoID != nil {
		out.VideoID = over.VideoID
	}
	if over.Screenshot != "" {
		out.Screenshot = over.Screenshot
	}
	if over.Timeout != 0 {
		out.Timeout = over.Timeout
	}
	if over.Engine != "" {
		out.Engine = over.Engine
	}
	if over.FullPage != nil {
		out.FullPage = over.FullPage
	}
	if over.Headless != nil {
		out.Headless = over.Headless
	}
	return out
}

// Apply overrides the fields of check that c sets.
func (c Config) Apply(check verify.Check) verify.Check {
	if c.URL != "" {
		check.URL = c.URL
	}
	if c.ButtonLabel != "" {
		check.ButtonLabel = c.ButtonLabel
	}
	if c.FrameTitle != "" {
		check.FrameTitle = c.FrameTitle
	}
	if c.VideoID != nil {
		check.ExpectedVideoID = *c.VideoID
	}
	if c.Screenshot != "" {
		check.ScreenshotPath = c.Screenshot
	}
	if c.Timeout != 0 {
		check.Timeout = c.Timeout
	}
	if c.FullPage != nil {
		check.FullPage = *c.FullPage
	}
	return check
}

// LaunchOptions returns the browser options, headless unless disabled.
func (c Config) LaunchOptions() verify.LaunchOptions {
	opts := verify.LaunchOptions{
		Headless:       true,
		ViewportWidth:  1280,
		ViewportHeight: 720,
	}
	if c.Headless != nil {
		opts.Headless = *c.Headless
	}
	return opts
}
