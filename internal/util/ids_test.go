package util

import "testing"

func TestNewIDIsValidAndUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !IsID(id) {
			t.Fatalf("generated id %q is not valid", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestIsID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{id: "0123456789abcdef", valid: true},
		{id: "0123456789ABCDEF", valid: false},
		{id: "short", valid: false},
		{id: "0123456789abcde/", valid: false},
		{id: "", valid: false},
	}
	for _, tt := range tests {
		if got := IsID(tt.id); got != tt.valid {
			t.Fatalf("IsID(%q) = %v, want %v", tt.id, got, tt.valid)
		}
	}
}
