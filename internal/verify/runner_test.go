package verify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine records every call so tests can check ordering and cleanup.
type fakeEngine struct {
	launchErr error
	page      *fakePage
	launches  int
	closes    int
	calls     []string
}

func (e *fakeEngine) Launch(ctx context.Context, opts LaunchOptions) (Session, error) {
	e.calls = append(e.calls, "launch")
	if e.launchErr != nil {
		return nil, e.launchErr
	}
	e.launches++
	return &fakeSession{engine: e}, nil
}

type fakeSession struct {
	engine *fakeEngine
}

func (s *fakeSession) NewPage(ctx context.Context) (Page, error) {
	s.engine.calls = append(s.engine.calls, "new_page")
	s.engine.page.engine = s.engine
	return s.engine.page, nil
}

func (s *fakeSession) Close() error {
	s.engine.calls = append(s.engine.calls, "close")
	s.engine.closes++
	return nil
}

type fakePage struct {
	engine        *fakeEngine
	gotoErr       error
	clickErr      error
	waitErr       error
	src           string
	screenshotErr error
	shots         []string
}

func (p *fakePage) Goto(ctx context.Context, url string) error {
	p.engine.calls = append(p.engine.calls, "goto")
	return p.gotoErr
}

func (p *fakePage) ClickButton(ctx context.Context, label string) error {
	p.engine.calls = append(p.engine.calls, "click")
	return p.clickErr
}

func (p *fakePage) WaitFrameVisible(ctx context.Context, title string) error {
	p.engine.calls = append(p.engine.calls, "wait")
	return p.waitErr
}

func (p *fakePage) FrameSrc(ctx context.Context, title string) (string, error) {
	p.engine.calls = append(p.engine.calls, "src")
	return p.src, nil
}

func (p *fakePage) Screenshot(ctx context.Context, path string, fullPage bool) error {
	p.engine.calls = append(p.engine.calls, "screenshot")
	if p.screenshotErr != nil {
		return p.screenshotErr
	}
	p.shots = append(p.shots, path)
	return os.WriteFile(path, []byte("png"), 0o644)
}

func testCheck(t *testing.T) Check {
	t.Helper()
	check := DefaultCheck()
	check.ScreenshotPath = filepath.Join(t.TempDir(), "verification", "video_modal.png")
	check.Timeout = time.Second
	return check
}

func newTestRunner(engine Engine) *Runner {
	return NewRunner(engine,
		WithEngineName("fake"),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestRunner_Success(t *testing.T) {
	engine := &fakeEngine{page: &fakePage{src: "https://youtube.com/embed/pOe5M0GtYZo"}}
	check := testCheck(t)

	report, err := newTestRunner(engine).Run(context.Background(), check)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.True(t, report.Result.Passed)
	assert.Equal(t, "pOe5M0GtYZo", report.Result.Expected)
	assert.Equal(t, check.ScreenshotPath, report.Screenshot)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "fake", report.Engine)
	assert.FileExists(t, check.ScreenshotPath)
	assert.Equal(t, []string{"launch", "new_page", "goto", "click", "wait", "src", "screenshot", "close"}, engine.calls)
}

func TestRunner_Failures(t *testing.T) {
	tests := []struct {
		name      string
		page      *fakePage
		check     func(error) bool
		wantCalls []string
	}{
		{
			name:      "unreachable target",
			page:      &fakePage{gotoErr: errors.New("net::ERR_CONNECTION_REFUSED")},
			check:     IsNavigation,
			wantCalls: []string{"launch", "new_page", "goto", "screenshot", "close"},
		},
		{
			name:      "missing button",
			page:      &fakePage{clickErr: ErrTimeout},
			check:     IsElementNotFound,
			wantCalls: []string{"launch", "new_page", "goto", "click", "screenshot", "close"},
		},
		{
			name:      "frame never visible",
			page:      &fakePage{waitErr: ErrTimeout},
			check:     IsVisibilityTimeout,
			wantCalls: []string{"launch", "new_page", "goto", "click", "wait", "screenshot", "close"},
		},
		{
			name:      "different video",
			page:      &fakePage{src: "https://youtube.com/embed/abcXYZ123"},
			check:     IsIncorrectVideoID,
			wantCalls: []string{"launch", "new_page", "goto", "click", "wait", "src", "screenshot", "close"},
		},
		{
			name:      "empty src",
			page:      &fakePage{src: ""},
			check:     IsIncorrectVideoID,
			wantCalls: []string{"launch", "new_page", "goto", "click", "wait", "src", "screenshot", "close"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{page: tt.page}
			check := testCheck(t)

			report, err := newTestRunner(engine).Run(context.Background(), check)
			require.Error(t, err)
			require.NotNil(t, report)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
			assert.False(t, report.Result.Passed)
			assert.Equal(t, tt.wantCalls, engine.calls)
			assert.Equal(t, 1, engine.launches)
			assert.Equal(t, 1, engine.closes, "browser must be released exactly once")
			assert.FileExists(t, check.ScreenshotPath)
		})
	}
}

func TestRunner_MismatchCarriesValues(t *testing.T) {
	engine := &fakeEngine{page: &fakePage{src: "https://youtube.com/embed/abcXYZ123"}}

	_, err := newTestRunner(engine).Run(context.Background(), testCheck(t))

	var mismatch *IncorrectVideoIDError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "pOe5M0GtYZo", mismatch.Expected)
	assert.Equal(t, "https://youtube.com/embed/abcXYZ123", mismatch.Actual)
	assert.Contains(t, err.Error(), "abcXYZ123")
}

func TestRunner_MissingButtonSkipsVisibilityWait(t *testing.T) {
	engine := &fakeEngine{page: &fakePage{clickErr: ErrTimeout}}

	_, err := newTestRunner(engine).Run(context.Background(), testCheck(t))
	require.Error(t, err)
	assert.NotContains(t, engine.calls, "wait")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestRunner_LaunchFailureNeverCloses(t *testing.T) {
	engine := &fakeEngine{launchErr: errors.New("chromium not installed")}

	_, err := newTestRunner(engine).Run(context.Background(), testCheck(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to launch browser")
	assert.Equal(t, 0, engine.closes)
}

func TestRunner_ScreenshotFailureFailsPassingCheck(t *testing.T) {
	engine := &fakeEngine{page: &fakePage{
		src:           "https://youtube.com/embed/pOe5M0GtYZo",
		screenshotErr: errors.New("disk full"),
	}}

	report, err := newTestRunner(engine).Run(context.Background(), testCheck(t))

	var shotErr *ScreenshotError
	require.ErrorAs(t, err, &shotErr)
	assert.True(t, report.Result.Passed)
	assert.Empty(t, report.Screenshot)
	assert.Equal(t, 1, engine.closes)
}

func TestRunner_ScreenshotFailureKeepsMismatch(t *testing.T) {
	engine := &fakeEngine{page: &fakePage{
		src:           "https://youtube.com/embed/abcXYZ123",
		screenshotErr: errors.New("disk full"),
	}}

	_, err := newTestRunner(engine).Run(context.Background(), testCheck(t))
	assert.True(t, IsIncorrectVideoID(err))
	assert.Equal(t, 1, engine.closes)
}

func TestRunner_InvalidCheckDoesNotLaunch(t *testing.T) {
	engine := &fakeEngine{page: &fakePage{}}
	check := testCheck(t)
	check.ExpectedVideoID = ""

	report, err := newTestRunner(engine).Run(context.Background(), check)

	var invalid *InvalidCheckError
	require.ErrorAs(t, err, &invalid)
	assert.Nil(t, report)
	assert.Empty(t, engine.calls)
}

func TestRunner_Assertions(t *testing.T) {
	engine := &fakeEngine{page: &fakePage{src: "https://www.youtube.com/embed/pOe5M0GtYZo?autoplay=1&mute=1"}}
	check := testCheck(t)
	check.Assertions = []Assertion{
		{Type: AssertionScript, Script: `src.indexOf("mute=1") >= 0`},
		{Type: AssertionJSONPath, Path: `.src | startswith("https://www.youtube.com/embed/")`, Expected: true},
	}

	_, err := newTestRunner(engine).Run(context.Background(), check)
	require.NoError(t, err)

	check.Assertions = []Assertion{{Type: AssertionScript, Script: `src.indexOf("controls=0") >= 0`}}
	_, err = newTestRunner(engine).Run(context.Background(), check)

	var failed *AssertionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 2, engine.closes)
}
