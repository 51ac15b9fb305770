package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID returns a URL-safe random identifier for views and correlation ids.
func NewID() (string, error) {
	return gonanoid.Generate(idAlphabet, 16)
}

// IsID reports whether s could have been produced by NewID.
func IsID(s string) bool {
	if len(s) != 16 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}
