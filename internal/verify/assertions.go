package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/itchyny/gojq"
)

const (
	AssertionJSONPath = "json_path"
	AssertionScript   = "script"

	scriptTimeout = 5 * time.Second
)

// Assertion is an extra condition evaluated against the observation once the
// video id check has passed.
type Assertion struct {
	Type     string
	Path     string
	Expected interface{}
	Exists   bool
	Script   string
}

func (a Assertion) String() string {
	switch a.Type {
	case AssertionJSONPath:
		return fmt.Sprintf("%s(%s)", a.Type, a.Path)
	case AssertionScript:
		return fmt.Sprintf("%s(%s)", a.Type, a.Script)
	default:
		return a.Type
	}
}

// Observation is what the runner saw on the page, keyed the way assertions
// refer to it.
func Observation(c Check, src string) map[string]interface{} {
	return map[string]interface{}{
		"url":               c.URL,
		"button_label":      c.ButtonLabel,
		"frame_title":       c.FrameTitle,
		"src":               src,
		"expected_video_id": c.ExpectedVideoID,
	}
}

// CheckAssertions evaluates assertions in order and stops at the first failure.
func CheckAssertions(ctx context.Context, assertions []Assertion, observation map[string]interface{}) error {
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertionJSONPath:
			err = checkJSONPath(a, observation)
		case AssertionScript:
			err = checkScript(ctx, a, observation)
		default:
			return fmt.Errorf("unsupported assertion type %q", a.Type)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func checkJSONPath(a Assertion, observation map[string]interface{}) error {
	if a.Path == "" {
		return fmt.Errorf("json_path assertion requires path")
	}

	query, err := gojq.Parse(a.Path)
	if err != nil {
		return fmt.Errorf("failed to parse jq expression %q: %w", a.Path, err)
	}

	iter := query.Run(observation)
	var actual interface{}
	var found bool

	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return fmt.Errorf("jq evaluation error for %q: %w", a.Path, err)
		}
		// jq yields null for missing keys
		if !found && v != nil {
			actual = v
			found = true
		}
	}

	if a.Exists {
		if !found {
			return &AssertionFailedError{Assertion: a.String(), Reason: "expected a value"}
		}
		return nil
	}

	if !found {
		return &AssertionFailedError{Assertion: a.String(), Reason: "path did not return a value"}
	}

	if a.Expected != nil && fmt.Sprint(actual) != fmt.Sprint(a.Expected) {
		return &AssertionFailedError{
			Assertion: a.String(),
			Reason:    fmt.Sprintf("expected %v, got %v", a.Expected, actual),
		}
	}
	return nil
}

func checkScript(ctx context.Context, a Assertion, observation map[string]interface{}) error {
	if a.Script == "" {
		return fmt.Errorf("script assertion requires script")
	}

	program, err := goja.Compile("assertion", a.Script, false)
	if err != nil {
		return fmt.Errorf("javascript syntax error: %w", err)
	}

	vm := goja.New()
	for key, value := range observation {
		if err := vm.Set(key, value); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, scriptTimeout)
	defer cancel()
	stop := context.AfterFunc(execCtx, func() {
		vm.Interrupt("assertion timed out")
	})
	defer stop()

	value, err := vm.RunProgram(program)
	if err != nil {
		return fmt.Errorf("javascript execution error: %w", err)
	}
	if !value.ToBoolean() {
		return &AssertionFailedError{Assertion: a.String(), Reason: "expression was false"}
	}
	return nil
}
