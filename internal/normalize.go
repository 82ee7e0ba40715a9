package internal

import "strings"

// NormalizeEmail lowercases and trims the address. No syntactic validation
// happens here; the identifier is only a store key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips every character except digits and a leading "+".
func NormalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))

	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
