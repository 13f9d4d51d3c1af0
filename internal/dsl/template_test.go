package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessTemplate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		vars     map[string]interface{}
		expected string
	}{
		{
			name:     "plain string untouched",
			input:    "http://localhost:3000",
			expected: "http://localhost:3000",
		},
		{
			name:     "config var",
			input:    "{{ .vars.base_url }}/home",
			vars:     map[string]interface{}{"base_url": "http://localhost:3000"},
			expected: "http://localhost:3000/home",
		},
		{
			name:  "nested var",
			input: "{{ .vars.film.id }}",
			vars: map[string]interface{}{
				"film": map[string]interface{}{"id": "pOe5M0GtYZo"},
			},
			expected: "pOe5M0GtYZo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ProcessTemplate(tt.input, TemplateContext{Vars: tt.vars})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestProcessTemplate_UnknownVariable(t *testing.T) {
	_, err := ProcessTemplate("{{ .vars.missing }}", TemplateContext{Vars: map[string]interface{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute template")
}

func TestProcessTemplate_Env(t *testing.T) {
	t.Setenv("VIDEOCHECK_TEST_BOTH", "from-os")

	context := TemplateContext{
		Env: map[string]string{
			"VIDEOCHECK_TEST_BOTH":     "from-file",
			"VIDEOCHECK_TEST_FILEONLY": "file-value",
		},
	}

	result, err := ProcessTemplate("{{ .env.VIDEOCHECK_TEST_BOTH }}", context)
	require.NoError(t, err)
	assert.Equal(t, "from-os", result, "OS environment wins over env file values")

	result, err = ProcessTemplate("{{ .env.VIDEOCHECK_TEST_FILEONLY }}", context)
	require.NoError(t, err)
	assert.Equal(t, "file-value", result)
}

func TestEscapedHandlebars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		vars     map[string]interface{}
		expected string
	}{
		{
			name:     "escaped handlebars with config var",
			input:    `Site: {{ .vars.base_url }}, literal handlebars: \{{ not_a_variable }}`,
			vars:     map[string]interface{}{"base_url": "http://localhost:3000"},
			expected: `Site: http://localhost:3000, literal handlebars: {{ not_a_variable }}`,
		},
		{
			name:     "multiple escaped handlebars",
			input:    `\{{ first }} and \{{ second }} are literals, but {{ .vars.real }} is processed`,
			vars:     map[string]interface{}{"real": "actual_value"},
			expected: `{{ first }} and {{ second }} are literals, but actual_value is processed`,
		},
		{
			name:     "double escape (2 backslashes)",
			input:    `Literal backslash: \\{{ .vars.value }}`,
			vars:     map[string]interface{}{"value": "v"},
			expected: `Literal backslash: \v`,
		},
		{
			name:     "triple escape (3 backslashes)",
			input:    `Triple: \\\{{ .vars.value }} and processed: {{ .vars.value }}`,
			vars:     map[string]interface{}{"value": "v"},
			expected: `Triple: \{{ .vars.value }} and processed: v`,
		},
		{
			name:     "quadruple escape (4 backslashes)",
			input:    `Quad: \\\\{{ .vars.value }}`,
			vars:     map[string]interface{}{"value": "v"},
			expected: `Quad: \\v`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ProcessTemplate(tt.input, TemplateContext{Vars: tt.vars})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestProcessTemplatesRecursive(t *testing.T) {
	data := map[string]interface{}{
		"url": "{{ .vars.base_url }}",
		"assertions": []interface{}{
			map[string]interface{}{"type": "json_path", "expected": "{{ .vars.id }}"},
		},
		"full_page": true,
	}
	vars := map[string]interface{}{"base_url": "http://localhost:3000", "id": "pOe5M0GtYZo"}

	out, err := ProcessTemplatesRecursive(data, TemplateContext{Vars: vars})
	require.NoError(t, err)

	result := out.(map[string]interface{})
	assert.Equal(t, "http://localhost:3000", result["url"])
	assert.Equal(t, true, result["full_page"])
	first := result["assertions"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "pOe5M0GtYZo", first["expected"])
}

func TestMergeVariables(t *testing.T) {
	yamlVars := map[string]interface{}{
		"base_url": "http://localhost:3000",
		"film":     map[string]interface{}{"id": "pOe5M0GtYZo", "title": "TerraMuse Brand Film"},
	}
	cliVars := map[string]string{
		"base_url": "http://staging:3000",
		"film.id":  "abcXYZ123",
		"new.deep": "x",
	}

	merged := MergeVariables(yamlVars, cliVars)

	assert.Equal(t, "http://staging:3000", merged["base_url"])
	film := merged["film"].(map[string]interface{})
	assert.Equal(t, "abcXYZ123", film["id"])
	assert.Equal(t, "TerraMuse Brand Film", film["title"])
	assert.Equal(t, "x", merged["new"].(map[string]interface{})["deep"])
}
