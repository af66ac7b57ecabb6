package shared

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// MaxTransforms bounds the length of a declared transform list
const MaxTransforms = 64

// MaxSemitones bounds |Pitch(n)|
const MaxSemitones = 48

// transformListSchema describes the JSON wire form of a TransformList
var transformListSchema = fmt.Sprintf(`{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array",
	"maxItems": %d,
	"items": {
		"oneOf": [
			{"type": "string", "enum": ["Reverse"]},
			{
				"type": "object",
				"properties": {"Reverse": {"type": ["object", "null"]}},
				"required": ["Reverse"],
				"additionalProperties": false
			},
			{
				"type": "object",
				"properties": {"Pitch": {"type": "integer", "minimum": %d, "maximum": %d}},
				"required": ["Pitch"],
				"additionalProperties": false
			},
			{
				"type": "object",
				"properties": {"Stretch": {"type": "number", "exclusiveMinimum": 0}},
				"required": ["Stretch"],
				"additionalProperties": false
			}
		]
	}
}`, MaxTransforms, -MaxSemitones, MaxSemitones)

var (
	compiledTransformSchema *gojsonschema.Schema
	compileSchemaErr        error
	compileSchemaOnce       sync.Once
)

func transformSchema() (*gojsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		compiledTransformSchema, compileSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(transformListSchema))
	})
	return compiledTransformSchema, compileSchemaErr
}

// ValidateTransformJSON checks a raw transformations document against the schema
func ValidateTransformJSON(data []byte) error {
	schema, err := transformSchema()
	if err != nil {
		return fmt.Errorf("failed to compile transformations schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return WrapValidationError("transformations", string(data), "invalid JSON", err)
	}
	if !result.Valid() {
		var b strings.Builder
		for _, e := range result.Errors() {
			if b.Len() > 0 {
				b.WriteString("; ")
			}
			b.WriteString(e.String())
		}
		return NewValidationError("transformations", string(data), b.String())
	}
	return nil
}

// ParseTransformList validates and unmarshals a transformations document in one step
func ParseTransformList(data []byte) (TransformList, error) {
	if err := ValidateTransformJSON(data); err != nil {
		return nil, err
	}
	var list TransformList
	if err := json.Unmarshal(data, &list); err != nil {
		if IsValidationError(err) {
			return nil, err
		}
		return nil, WrapValidationError("transformations", string(data), "failed to unmarshal", err)
	}
	return list, nil
}
