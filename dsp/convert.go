package dsp

import "math"

// sampleScale maps int16 PCM onto [-1, 1]. Both the preview and the proving
// guest go through these helpers; every intermediate is an explicit float64
// conversion so the compiler cannot fuse operations differently per context.
const sampleScale = float64(math.MaxInt16)

// ToFloat converts PCM samples to floats in [-1, 1]
func ToFloat(samples []int16) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(float64(s) / sampleScale)
	}
	return out
}

// ToInt16 converts floats back to PCM, saturating at the int16 bounds
func ToInt16(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, v := range samples {
		out[i] = SampleToInt16(v)
	}
	return out
}

// SampleToInt16 scales one float sample, clamps it to [-32768, 32767] and
// truncates toward zero. NaN maps to 0.
func SampleToInt16(v float64) int16 {
	if math.IsNaN(v) {
		return 0
	}
	scaled := float64(v * sampleScale)
	if scaled >= math.MaxInt16 {
		return math.MaxInt16
	}
	if scaled <= math.MinInt16 {
		return math.MinInt16
	}
	return int16(scaled)
}
