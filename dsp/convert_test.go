package dsp

import (
	"math"
	"testing"
)

func TestSampleToInt16(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int16
	}{
		{"Zero", 0, 0},
		{"FullScale", 1, math.MaxInt16},
		{"NegativeFullScale", -1, -math.MaxInt16},
		{"ClampHigh", 1.5, math.MaxInt16},
		{"ClampLow", -1.5, math.MinInt16},
		{"PositiveInfinity", math.Inf(1), math.MaxInt16},
		{"NegativeInfinity", math.Inf(-1), math.MinInt16},
		{"NaN", math.NaN(), 0},
		{"TruncatesTowardZero", 10.9 / 32767, 10},
		{"TruncatesNegativeTowardZero", -10.9 / 32767, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SampleToInt16(tt.in); got != tt.want {
				t.Errorf("SampleToInt16(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestToFloatRange(t *testing.T) {
	in := []int16{math.MinInt16, -1, 0, 1, math.MaxInt16}
	out := ToFloat(in)
	if len(out) != len(in) {
		t.Fatalf("Expected %d samples, got %d", len(in), len(out))
	}
	if out[4] != 1 {
		t.Errorf("Expected max sample to map to 1, got %v", out[4])
	}
	if out[2] != 0 {
		t.Errorf("Expected zero to map to 0, got %v", out[2])
	}
	// -32768 lies just below -1 and saturates on the way back
	if out[0] >= -1 {
		t.Errorf("Expected min sample below -1, got %v", out[0])
	}
	if back := ToInt16(out[:1]); back[0] != math.MinInt16 {
		t.Errorf("Expected min sample to saturate to %d, got %d", math.MinInt16, back[0])
	}
}
