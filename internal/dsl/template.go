package dsl

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"text/template"
)

// Pre-compiled regex patterns for better performance
var (
	escapedHandlebarsRegex = regexp.MustCompile(`(\\+)(\{\{[^}]*\}\})`)
	safeEscapedRegex       = regexp.MustCompile(`\{_\{([^}]*?)\}_\}`)
)

// TemplateContext holds the values templates in a check file can refer to.
type TemplateContext struct {
	Vars map[string]interface{} // {{ .vars.key }}, nested keys via dots
	Env  map[string]string      // {{ .env.KEY }}; OS env takes precedence over these
}

// getEnvironmentVariables returns all environment variables as a map
func getEnvironmentVariables() map[string]interface{} {
	envVars := make(map[string]interface{})
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) == 2 {
			envVars[parts[0]] = parts[1]
		}
	}
	return envVars
}

// ProcessTemplate renders {{ .vars.* }} and {{ .env.* }} references in input.
// Escaped handlebars using \{{ }} are kept as literal {{ }} text. Unknown
// variables are an error.
func ProcessTemplate(input string, context TemplateContext) (string, error) {
	if !IsTemplateString(input) {
		return input, nil
	}

	processed := handleAllEscapedHandlebars(input)

	tmpl, err := template.New("videocheck").Option("missingkey=error").Parse(processed)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	envMap := make(map[string]interface{})
	for key, value := range context.Env {
		envMap[key] = value
	}
	for key, value := range getEnvironmentVariables() {
		envMap[key] = value
	}

	vars := context.Vars
	if vars == nil {
		vars = map[string]interface{}{}
	}

	templateData := map[string]interface{}{
		"vars": vars,
		"env":  envMap,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, templateData); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return restoreSafeEscapedHandlebars(buf.String()), nil
}

// ProcessTemplatesRecursive renders templates in every string of a decoded
// YAML document. Map keys are left alone.
func ProcessTemplatesRecursive(data interface{}, context TemplateContext) (interface{}, error) {
	switch v := data.(type) {
	case string:
		return ProcessTemplate(v, context)
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, value := range v {
			processedValue, err := ProcessTemplatesRecursive(value, context)
			if err != nil {
				return nil, fmt.Errorf("failed to process template in value for key '%s': %w", key, err)
			}
			result[key] = processedValue
		}
		return result, nil
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			processedItem, err := ProcessTemplatesRecursive(item, context)
			if err != nil {
				return nil, fmt.Errorf("failed to process template in array item %d: %w", i, err)
			}
			result[i] = processedItem
		}
		return result, nil
	default:
		return data, nil
	}
}

// IsTemplateString checks if a string contains template variables
func IsTemplateString(s string) bool {
	return strings.Contains(s, "{{") && strings.Contains(s, "}}")
}

// MergeVariables merges CLI variables with YAML vars, with CLI taking precedence
func MergeVariables(yamlVars map[string]interface{}, cliVars map[string]string) map[string]interface{} {
	result := make(map[string]interface{})
	for k, v := range yamlVars {
		result[k] = v
	}

	for k, v := range cliVars {
		// Support dot notation for nested variables
		setNestedValue(result, k, v)
	}

	return result
}

// setNestedValue sets a value in a nested map using dot notation
// e.g., "site.base_url" sets result["site"]["base_url"] = value
func setNestedValue(m map[string]interface{}, key string, value interface{}) {
	keys := strings.Split(key, ".")
	current := m

	for _, k := range keys[:len(keys)-1] {
		next, ok := current[k].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			current[k] = next
		}
		current = next
	}

	current[keys[len(keys)-1]] = value
}

// handleAllEscapedHandlebars processes escaped handlebars with support for unlimited escape levels:
// Algorithm: Count consecutive backslashes before {{ }}
// - Even number of \: template variable (half backslashes remain)
// - Odd number of \: literal handlebars (half backslashes remain, rounded down)
// Examples:
//
//	\{{ }} (1) -> {{ }} (0, literal handlebars)
//	\\{{ }} (2) -> \{{ }} (1, literal text)
//	\\\{{ }} (3) -> \{{ }} (1, literal handlebars)
func handleAllEscapedHandlebars(input string) string {
	return escapedHandlebarsRegex.ReplaceAllStringFunc(input, func(match string) string {
		submatch := escapedHandlebarsRegex.FindStringSubmatch(match)
		if len(submatch) < 3 {
			return match
		}
		backslashes := submatch[1]
		handlebars := submatch[2]

		result := strings.Repeat("\\", len(backslashes)/2)
		if len(backslashes)%2 == 1 {
			// Odd: park the content in a placeholder the template engine ignores
			content := handlebars[2 : len(handlebars)-2]
			return result + fmt.Sprintf("{_{%s}_}", content)
		}
		return result + handlebars
	})
}

// restoreSafeEscapedHandlebars converts safe escaped placeholders back to literal handlebars
func restoreSafeEscapedHandlebars(input string) string {
	return safeEscapedRegex.ReplaceAllString(input, "{{$1}}")
}
