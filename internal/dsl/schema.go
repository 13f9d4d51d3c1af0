package dsl

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	yaml "gopkg.in/yaml.v3"
)

func GetJSONSchema() string {
	return `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["version", "name", "checks"],
		"additionalProperties": false,
		"properties": {
			"version": {
				"type": "string",
				"enum": ["v1.0.0"]
			},
			"name": {
				"type": "string",
				"minLength": 1
			},
			"description": {
				"type": "string"
			},
			"vars": {
				"type": "object"
			},
			"checks": {
				"type": "array",
				"items": {
					"$ref": "#/definitions/check"
				},
				"minItems": 1
			}
		},
		"definitions": {
			"check": {
				"type": "object",
				"required": ["name"],
				"additionalProperties": false,
				"properties": {
					"name": {
						"type": "string",
						"minLength": 1
					},
					"url": {
						"type": "string"
					},
					"button_label": {
						"type": "string"
					},
					"frame_title": {
						"type": "string"
					},
					"expected_video_id": {
						"type": "string"
					},
					"screenshot": {
						"type": "string"
					},
					"timeout": {
						"type": "string"
					},
					"full_page": {
						"type": "boolean"
					},
					"assertions": {
						"type": "array",
						"items": {
							"$ref": "#/definitions/assertion"
						}
					}
				}
			},
			"assertion": {
				"type": "object",
				"required": ["type"],
				"properties": {
					"type": {
						"type": "string",
						"enum": ["json_path", "script"]
					},
					"path": {
						"type": "string"
					},
					"expected": {},
					"exists": {
						"type": "boolean"
					},
					"script": {
						"type": "string"
					}
				},
				"allOf": [
					{
						"if": {
							"properties": {
								"type": {
									"enum": ["json_path"]
								}
							}
						},
						"then": {
							"required": ["path"]
						}
					},
					{
						"if": {
							"properties": {
								"type": {
									"enum": ["script"]
								}
							}
						},
						"then": {
							"required": ["script"]
						}
					}
				]
			}
		}
	}`
}

func ValidateYAMLWithSchema(yamlPayload []byte) error {
	var data interface{}
	if err := yaml.Unmarshal(yamlPayload, &data); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal to JSON: %w", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(GetJSONSchema())
	documentLoader := gojsonschema.NewBytesLoader(jsonData)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate schema: %w", err)
	}

	if !result.Valid() {
		var errMsg string
		for _, desc := range result.Errors() {
			errMsg += fmt.Sprintf("- %s\n", desc)
		}
		return fmt.Errorf("schema validation failed:\n%s", errMsg)
	}

	return nil
}
