package verify

import (
	"strings"
	"time"
)

// Result is the outcome of looking for the expected video id in the frame src.
type Result struct {
	Expected string
	Actual   string
	Passed   bool
}

// Evaluate checks whether src embeds the expected id.
func Evaluate(expected, src string) Result {
	return Result{
		Expected: expected,
		Actual:   src,
		Passed:   expected != "" && strings.Contains(src, expected),
	}
}

// Err converts a failed result into an *IncorrectVideoIDError.
func (r Result) Err() error {
	if r.Passed {
		return nil
	}
	return &IncorrectVideoIDError{Expected: r.Expected, Actual: r.Actual}
}

// Report summarizes one run for the caller.
type Report struct {
	RunID      string
	Check      string
	Engine     string
	Result     Result
	Screenshot string
	StartedAt  time.Time
	Duration   time.Duration
}
