package util

import (
	"testing"
	"time"
)

func TestGetEnvInt(t *testing.T) {
	t.Setenv("RESULT_LIMIT", "500")
	if got := GetEnvInt("RESULT_LIMIT", 2000); got != 500 {
		t.Fatalf("expected 500, got %d", got)
	}

	t.Setenv("RESULT_LIMIT", "lots")
	if got := GetEnvInt("RESULT_LIMIT", 2000); got != 2000 {
		t.Fatalf("expected default for invalid value, got %d", got)
	}

	if got := GetEnvInt("UNSET_INT_KEY", 7); got != 7 {
		t.Fatalf("expected default for unset key, got %d", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{value: "200", want: 200 * time.Millisecond},
		{value: "1s", want: time.Second},
		{value: "soon", want: 50 * time.Millisecond},
		{value: "", want: 50 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Setenv("STABILIZE_MS", tt.value)
		if got := GetEnvDuration("STABILIZE_MS", 50*time.Millisecond); got != tt.want {
			t.Fatalf("value %q: expected %v, got %v", tt.value, tt.want, got)
		}
	}
}

func TestGetEnvStringEmptyUsesDefault(t *testing.T) {
	t.Setenv("AGE_GRAPH", "")
	if got := GetEnvString("AGE_GRAPH", "cicd"); got != "cicd" {
		t.Fatalf("expected cicd, got %s", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("DEBUG", "true")
	if !GetEnvBool("DEBUG", false) {
		t.Fatal("expected true")
	}
	t.Setenv("DEBUG", "yes")
	if GetEnvBool("DEBUG", false) {
		t.Fatal("expected default for unrecognized value")
	}
}
