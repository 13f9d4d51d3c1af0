// Package enginetest runs the video modal scenarios against a real browser
// engine and the fixture app.
package enginetest

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terramuse/videocheck/internal/fixture"
	"github.com/terramuse/videocheck/internal/verify"
)

// EnvEnable must be "1" for browser-backed tests to run.
const EnvEnable = "VIDEOCHECK_E2E"

// Run exercises engine against every fixture state. It skips when browser
// tests are disabled or the engine cannot start a browser.
func Run(t *testing.T, name string, engine verify.Engine) {
	t.Helper()
	if testing.Short() || os.Getenv(EnvEnable) != "1" {
		t.Skipf("set %s=1 to run browser tests", EnvEnable)
	}

	probe, err := engine.Launch(context.Background(), verify.LaunchOptions{Headless: true, Timeout: 30 * time.Second})
	if err != nil {
		t.Skipf("could not start %s browser: %v", name, err)
	}
	require.NoError(t, probe.Close())

	app := fixture.NewServer(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts := httptest.NewServer(app)
	t.Cleanup(ts.Close)

	tests := []struct {
		name  string
		state fixture.State
		check func(t *testing.T, err error)
	}{
		{
			name:  "matching video",
			state: fixture.DefaultState(),
			check: func(t *testing.T, err error) { require.NoError(t, err) },
		},
		{
			name:  "different video",
			state: fixture.State{VideoID: "abcXYZ123"},
			check: func(t *testing.T, err error) {
				var mismatch *verify.IncorrectVideoIDError
				require.ErrorAs(t, err, &mismatch)
				assert.Contains(t, mismatch.Actual, "abcXYZ123")
			},
		},
		{
			name:  "missing src",
			state: fixture.State{VideoID: fixture.DefaultVideoID, OmitSrc: true},
			check: func(t *testing.T, err error) {
				var mismatch *verify.IncorrectVideoIDError
				require.ErrorAs(t, err, &mismatch)
				assert.Empty(t, mismatch.Actual)
			},
		},
		{
			name:  "missing button",
			state: fixture.State{VideoID: fixture.DefaultVideoID, HideButton: true},
			check: func(t *testing.T, err error) { assert.True(t, verify.IsElementNotFound(err), "got %v", err) },
		},
		{
			name:  "modal never opens",
			state: fixture.State{VideoID: fixture.DefaultVideoID, NeverOpen: true},
			check: func(t *testing.T, err error) { assert.True(t, verify.IsVisibilityTimeout(err), "got %v", err) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.SetState(tt.state)

			check := verify.DefaultCheck()
			check.URL = ts.URL
			check.Timeout = 5 * time.Second
			check.ScreenshotPath = filepath.Join(t.TempDir(), "video_modal.png")

			runner := verify.NewRunner(engine,
				verify.WithEngineName(name),
				verify.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			)
			_, err := runner.Run(context.Background(), check)
			tt.check(t, err)
			assert.FileExists(t, check.ScreenshotPath)
		})
	}

	t.Run("unreachable target", func(t *testing.T) {
		check := verify.DefaultCheck()
		check.URL = "http://127.0.0.1:1"
		check.Timeout = 5 * time.Second
		check.ScreenshotPath = filepath.Join(t.TempDir(), "video_modal.png")

		_, err := verify.NewRunner(engine, verify.WithEngineName(name)).Run(context.Background(), check)
		assert.True(t, verify.IsNavigation(err), "got %v", err)
	})
}
