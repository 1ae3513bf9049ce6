// Package normalize canonicalises the natural keys used for de-duplication.
package normalize

import (
	"strings"
	"unicode"

	"github.com/ttacon/libphonenumber"
)

// Plate keeps only letters and digits, uppercased. "abc-1234" and "ABC1234"
// become the same key.
func Plate(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(unicode.ToUpper(r))
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Phone formats raw as E.164 using region for numbers without a country code.
// Numbers libphonenumber rejects fall back to their digits.
func Phone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := libphonenumber.Parse(raw, region)
	if err == nil && libphonenumber.IsValidNumber(num) {
		return libphonenumber.Format(num, libphonenumber.E164)
	}
	return Digits(raw)
}

// Document strips CPF/CNPJ punctuation. Empty input yields nil so the column
// stays NULL and outside the unique index.
func Document(raw string) *string {
	d := Digits(raw)
	if d == "" {
		return nil
	}
	return &d
}

// Digits drops every non-digit rune.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Email trims and lowercases; empty yields nil.
func Email(raw string) *string {
	e := strings.ToLower(strings.TrimSpace(raw))
	if e == "" {
		return nil
	}
	return &e
}

// Optional trims raw; empty yields nil.
func Optional(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return &s
}

// OptionalPtr trims *raw; nil or empty yields nil.
func OptionalPtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	return Optional(*raw)
}

// Upper trims and uppercases an enum-like value.
func Upper(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
