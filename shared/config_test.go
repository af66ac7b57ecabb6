package shared

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("ZK_TEST_STR", "value")
	t.Setenv("ZK_TEST_INT", "42")
	t.Setenv("ZK_TEST_BAD_INT", "forty")
	t.Setenv("ZK_TEST_BOOL", "true")
	t.Setenv("ZK_TEST_DUR", "90s")
	t.Setenv("ZK_TEST_DUR_SECS", "30")
	t.Setenv("ZK_TEST_DUR_BAD", "soon")

	if got := GetEnvOrDefault("ZK_TEST_STR", "x"); got != "value" {
		t.Errorf("Expected value, got %s", got)
	}
	if got := GetEnvOrDefault("ZK_TEST_UNSET", "x"); got != "x" {
		t.Errorf("Expected default, got %s", got)
	}
	if got := GetEnvIntOrDefault("ZK_TEST_INT", 1); got != 42 {
		t.Errorf("Expected 42, got %d", got)
	}
	if got := GetEnvIntOrDefault("ZK_TEST_BAD_INT", 1); got != 1 {
		t.Errorf("Expected default for bad int, got %d", got)
	}
	if !GetEnvBoolOrDefault("ZK_TEST_BOOL", false) {
		t.Error("Expected true")
	}

	durations := map[string]time.Duration{
		"ZK_TEST_DUR":      90 * time.Second,
		"ZK_TEST_DUR_SECS": 30 * time.Second,
		"ZK_TEST_DUR_BAD":  time.Minute,
		"ZK_TEST_UNSET":    time.Minute,
	}
	for key, want := range durations {
		if got := GetEnvDurationOrDefault(key, time.Minute); got != want {
			t.Errorf("%s: expected %v, got %v", key, want, got)
		}
	}
}
