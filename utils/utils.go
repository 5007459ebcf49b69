// Package utils provides utility functions for the application.
package utils

import (
	"strings"
	"unicode"
)

func ToPtr[T any](v T) *T {
	return &v
}

func IsTrue(b *bool) bool {
	return b != nil && *b
}

// NormalizeDigits strips every non-digit rune from s.
// Used to canonicalize CPF/CNPJ numbers before storage and lookup.
func NormalizeDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
