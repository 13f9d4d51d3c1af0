package verify

import (
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is wrapped by engines when a browser operation runs out of time.
var ErrTimeout = errors.New("browser operation timed out")

// NavigationError means the target application could not be loaded.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// ElementNotFoundError means no element matched the role and label.
type ElementNotFoundError struct {
	Role  string
	Label string
	Err   error
}

func (e *ElementNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no %s labeled %q found: %v", e.Role, e.Label, e.Err)
	}
	return fmt.Sprintf("no %s labeled %q found", e.Role, e.Label)
}

func (e *ElementNotFoundError) Unwrap() error {
	return e.Err
}

// VisibilityTimeoutError means the frame never became visible.
type VisibilityTimeoutError struct {
	Selector string
	Timeout  time.Duration
	Err      error
}

func (e *VisibilityTimeoutError) Error() string {
	return fmt.Sprintf("%s not visible after %s: %v", e.Selector, e.Timeout, e.Err)
}

func (e *VisibilityTimeoutError) Unwrap() error {
	return e.Err
}

// IncorrectVideoIDError means the frame loaded but embeds another video.
type IncorrectVideoIDError struct {
	Expected string
	Actual   string
}

func (e *IncorrectVideoIDError) Error() string {
	if e.Actual == "" {
		return fmt.Sprintf("incorrect video id: expected %q, frame src is empty", e.Expected)
	}
	return fmt.Sprintf("incorrect video id: expected %q in %q", e.Expected, e.Actual)
}

// AssertionFailedError is returned when an extra check-file assertion does not hold.
type AssertionFailedError struct {
	Assertion string
	Reason    string
}

func (e *AssertionFailedError) Error() string {
	return fmt.Sprintf("assertion %s failed: %s", e.Assertion, e.Reason)
}

// ScreenshotError means the diagnostic screenshot could not be written.
type ScreenshotError struct {
	Path string
	Err  error
}

func (e *ScreenshotError) Error() string {
	return fmt.Sprintf("screenshot %s: %v", e.Path, e.Err)
}

func (e *ScreenshotError) Unwrap() error {
	return e.Err
}

// InvalidCheckError is returned before launching a browser for an unusable Check.
type InvalidCheckError struct {
	Field  string
	Reason string
}

func (e *InvalidCheckError) Error() string {
	return fmt.Sprintf("invalid check: %s %s", e.Field, e.Reason)
}

// IsNavigation reports whether err wraps a NavigationError.
func IsNavigation(err error) bool {
	var target *NavigationError
	return errors.As(err, &target)
}

// IsElementNotFound reports whether err wraps an ElementNotFoundError.
func IsElementNotFound(err error) bool {
	var target *ElementNotFoundError
	return errors.As(err, &target)
}

// IsVisibilityTimeout reports whether err wraps a VisibilityTimeoutError.
func IsVisibilityTimeout(err error) bool {
	var target *VisibilityTimeoutError
	return errors.As(err, &target)
}

// IsIncorrectVideoID reports whether err wraps an IncorrectVideoIDError.
func IsIncorrectVideoID(err error) bool {
	var target *IncorrectVideoIDError
	return errors.As(err, &target)
}
