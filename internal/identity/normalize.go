// Package identity canonicalizes phone-number identifiers into the single
// storage form used as the join key between orders, notifications, favorites
// and ratings.
package identity

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultCountryCode is prefixed to bare 10-digit national numbers.
const DefaultCountryCode = "+91"

// nationalDigits is the length of a national number without country code.
const nationalDigits = 10

// Normalizer canonicalizes raw identifiers. The zero value uses
// DefaultCountryCode.
type Normalizer struct {
	CountryCode string
}

// New returns a Normalizer for the given country code marker (e.g. "+91").
// An empty code falls back to DefaultCountryCode.
func New(countryCode string) Normalizer {
	return Normalizer{CountryCode: countryCode}
}

// Normalize returns the canonical form of raw:
//   - "" stays ""
//   - exactly 10 digits: country code + digits
//   - more than 10 digits: "+" + digits
//   - fewer than 10 digits: the bare digits
//
// Every non-digit character is dropped first, so the result never contains
// anything but digits and a single leading '+'. Normalize is idempotent.
func (n Normalizer) Normalize(raw string) string {
	if raw == "" {
		return raw
	}
	digits := Digits(raw)
	switch {
	case len(digits) == nationalDigits:
		return n.countryCode() + digits
	case len(digits) > nationalDigits:
		return "+" + digits
	default:
		return digits
	}
}

func (n Normalizer) countryCode() string {
	if n.CountryCode == "" {
		return DefaultCountryCode
	}
	return n.CountryCode
}

// Digits returns only the ASCII decimal digits of s. Compatibility forms such
// as full-width digits are folded to ASCII (NFKC) before filtering.
func Digits(s string) string {
	s = norm.NFKC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Normalize canonicalizes raw with DefaultCountryCode.
func Normalize(raw string) string {
	return Normalizer{}.Normalize(raw)
}
