package shared

import (
	"fmt"
	"strings"
	"testing"
)

func TestParseTransformList(t *testing.T) {
	list, err := ParseTransformList([]byte(`[{"Pitch": 12}, "Reverse", {"Stretch": 2}]`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if list.String() != "[Pitch(12), Reverse, Stretch(2)]" {
		t.Errorf("Unexpected list %s", list)
	}

	empty, err := ParseTransformList([]byte(`[]`))
	if err != nil || len(empty) != 0 {
		t.Errorf("Expected empty list, got %v, %v", empty, err)
	}
}

func TestValidateTransformJSON(t *testing.T) {
	tooMany := "[" + strings.TrimSuffix(strings.Repeat(`"Reverse",`, MaxTransforms+1), ",") + "]"

	cases := map[string]string{
		"NotArray":      `{"Pitch": 1}`,
		"NotJSON":       `[`,
		"UnknownTag":    `["Echo"]`,
		"PitchTooHigh":  fmt.Sprintf(`[{"Pitch": %d}]`, MaxSemitones+1),
		"PitchFraction": `[{"Pitch": 0.5}]`,
		"ZeroStretch":   `[{"Stretch": 0}]`,
		"ExtraKey":      `[{"Stretch": 1, "Pitch": 1}]`,
		"TooMany":       tooMany,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if err := ValidateTransformJSON([]byte(data)); !IsValidationError(err) {
				t.Errorf("Expected validation error, got %v", err)
			}
		})
	}

	if err := ValidateTransformJSON([]byte(fmt.Sprintf(`[{"Pitch": %d}]`, -MaxSemitones))); err != nil {
		t.Errorf("Expected boundary pitch to pass, got %v", err)
	}
}
