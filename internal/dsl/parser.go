// Package dsl reads check files: YAML documents declaring one or more video
// modal checks plus the variables their fields may refer to.
package dsl

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/terramuse/videocheck/internal/verify"
)

const Version = "v1.0.0"

type CheckFile struct {
	Version     string                 `json:"version" yaml:"version"`
	Name        string                 `json:"name" yaml:"name"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Vars        map[string]interface{} `json:"vars,omitempty" yaml:"vars,omitempty"`
	Checks      []CheckSpec            `json:"checks" yaml:"checks"`
}

// CheckSpec is a check as written in a file. Empty fields fall back to the
// base check they are applied to, except ExpectedVideoID, which overrides
// whenever the key is present.
type CheckSpec struct {
	Name            string          `json:"name" yaml:"name"`
	URL             string          `json:"url,omitempty" yaml:"url,omitempty"`
	ButtonLabel     string          `json:"button_label,omitempty" yaml:"button_label,omitempty"`
	FrameTitle      string          `json:"frame_title,omitempty" yaml:"frame_title,omitempty"`
	ExpectedVideoID *string         `json:"expected_video_id,omitempty" yaml:"expected_video_id,omitempty"`
	Screenshot      string          `json:"screenshot,omitempty" yaml:"screenshot,omitempty"`
	Timeout         string          `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	FullPage        *bool           `json:"full_page,omitempty" yaml:"full_page,omitempty"`
	Assertions      []AssertionSpec `json:"assertions,omitempty" yaml:"assertions,omitempty"`
}

type AssertionSpec struct {
	Type     string      `json:"type" yaml:"type"`
	Path     string      `json:"path,omitempty" yaml:"path,omitempty"`
	Expected interface{} `json:"expected,omitempty" yaml:"expected,omitempty"`
	Exists   bool        `json:"exists,omitempty" yaml:"exists,omitempty"`
	Script   string      `json:"script,omitempty" yaml:"script,omitempty"`
}

// LoadOptions control template processing while loading a check file.
type LoadOptions struct {
	// Vars override the file's vars; dotted keys address nested values.
	Vars map[string]string
	// Env backs {{ .env.X }} for keys the process environment lacks.
	Env map[string]string
}

// LoadFile reads, validates and renders the check file at path.
func LoadFile(path string, opts LoadOptions) (*CheckFile, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read check file: %w", err)
	}
	cf, err := Load(payload, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cf, nil
}

// Load validates yamlPayload against the schema, renders templates in the
// checks and parses the result.
func Load(yamlPayload []byte, opts LoadOptions) (*CheckFile, error) {
	if err := ValidateYAMLWithSchema(yamlPayload); err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(yamlPayload, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	fileVars, _ := doc["vars"].(map[string]interface{})
	vars := MergeVariables(fileVars, opts.Vars)

	// Only the checks are templated; vars are taken literally.
	rendered, err := ProcessTemplatesRecursive(doc["checks"], TemplateContext{Vars: vars, Env: opts.Env})
	if err != nil {
		return nil, fmt.Errorf("failed to process templates: %w", err)
	}
	doc["checks"] = rendered
	doc["vars"] = vars

	processed, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal processed YAML: %w", err)
	}
	return ParseYAML(processed)
}

// ParseYAML decodes a rendered check file and checks the fields the schema
// cannot express.
func ParseYAML(yamlPayload []byte) (*CheckFile, error) {
	var cf CheckFile
	if err := yaml.Unmarshal(yamlPayload, &cf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if cf.Version != Version {
		return nil, fmt.Errorf("unsupported version: %q", cf.Version)
	}

	if len(cf.Checks) == 0 {
		return nil, fmt.Errorf("no checks defined")
	}

	seen := make(map[string]bool, len(cf.Checks))
	for i, c := range cf.Checks {
		if c.Name == "" {
			return nil, fmt.Errorf("check %d: a name is required for each check", i)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("check %q: names must be unique", c.Name)
		}
		seen[c.Name] = true

		if c.Timeout != "" {
			if _, err := time.ParseDuration(c.Timeout); err != nil {
				return nil, fmt.Errorf("check %q: invalid timeout %q: %w", c.Name, c.Timeout, err)
			}
		}
		for j, a := range c.Assertions {
			switch a.Type {
			case verify.AssertionJSONPath:
				if a.Path == "" {
					return nil, fmt.Errorf("check %q: assertion %d: json_path requires path", c.Name, j)
				}
			case verify.AssertionScript:
				if a.Script == "" {
					return nil, fmt.Errorf("check %q: assertion %d: script requires script", c.Name, j)
				}
			default:
				return nil, fmt.Errorf("check %q: assertion %d: unsupported type %q", c.Name, j, a.Type)
			}
		}
	}

	return &cf, nil
}

// Apply layers c over base. Fields left empty keep the values of base.
func (c CheckSpec) Apply(base verify.Check) verify.Check {
	out := base
	out.Name = c.Name
	if c.URL != "" {
		out.URL = c.URL
	}
	if c.ButtonLabel != "" {
		out.ButtonLabel = c.ButtonLabel
	}
	if c.FrameTitle != "" {
		out.FrameTitle = c.FrameTitle
	}
	if c.ExpectedVideoID != nil {
		out.ExpectedVideoID = *c.ExpectedVideoID
	}
	if c.Screenshot != "" {
		out.ScreenshotPath = c.Screenshot
	}
	if c.Timeout != "" {
		// ParseYAML has already rejected bad durations.
		if d, err := time.ParseDuration(c.Timeout); err == nil {
			out.Timeout = d
		}
	}
	if c.FullPage != nil {
		out.FullPage = *c.FullPage
	}
	if len(c.Assertions) > 0 {
		out.Assertions = make([]verify.Assertion, 0, len(c.Assertions))
		for _, a := range c.Assertions {
			out.Assertions = append(out.Assertions, verify.Assertion{
				Type:     a.Type,
				Path:     a.Path,
				Expected: a.Expected,
				Exists:   a.Exists,
				Script:   a.Script,
			})
		}
	}
	return out
}

// ToChecks returns every check in the file applied over base.
func (cf *CheckFile) ToChecks(base verify.Check) []verify.Check {
	checks := make([]verify.Check, 0, len(cf.Checks))
	for _, c := range cf.Checks {
		checks = append(checks, c.Apply(base))
	}
	return checks
}
