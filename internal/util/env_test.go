package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value    string
		fallback bool
		want     bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"No", true, false},
		{"off", true, false},
		{" true ", false, true},
		{"banana", true, true},
		{"banana", false, false},
		{"", true, true},
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL_ENV", tt.value)
		if got := ParseBoolEnv("TEST_BOOL_ENV", tt.fallback); got != tt.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.fallback, got, tt.want)
		}
	}
}

func TestParseIntEnv(t *testing.T) {
	tests := []struct {
		value    string
		fallback int
		want     int
	}{
		{"42", 0, 42},
		{"-7", 0, -7},
		{" 10 ", 0, 10},
		{"", 25, 25},
		{"abc", 25, 25},
		{"1.5", 25, 25},
	}
	for _, tt := range tests {
		t.Setenv("TEST_INT_ENV", tt.value)
		if got := ParseIntEnv("TEST_INT_ENV", tt.fallback); got != tt.want {
			t.Errorf("ParseIntEnv(%q, %d) = %d, want %d", tt.value, tt.fallback, got, tt.want)
		}
	}
}
