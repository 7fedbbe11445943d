package util

import (
	"fmt"
	"strings"
)

const brazilCountryCode = "55"

// StripJID drops the "@s.whatsapp.net" style suffix from a chat identifier.
func StripJID(id string) string {
	if i := strings.IndexByte(id, '@'); i >= 0 {
		return id[:i]
	}
	return id
}

// Digits keeps only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AddNineToPhoneNumber inserts the mobile trunk digit into Brazilian numbers
// that arrive without it (55 + DDD + 8 digits). The Cloud API reports some
// contacts in that legacy form but only delivers to the 9-prefixed number.
func AddNineToPhoneNumber(phone string) string {
	digits := Digits(StripJID(phone))
	if len(digits) == 12 && strings.HasPrefix(digits, brazilCountryCode) {
		return digits[:4] + "9" + digits[4:]
	}
	return digits
}

// NormalizeBrazilianMobile reduces a chat identifier to the 11-digit local
// mobile number (DDD + 9 + 8 digits). Identifiers that do not look like a
// Brazilian number come back as their digits only.
func NormalizeBrazilianMobile(id string) string {
	digits := Digits(StripJID(id))
	if (len(digits) == 12 || len(digits) == 13) && strings.HasPrefix(digits, brazilCountryCode) {
		digits = digits[2:]
	}
	if len(digits) == 10 {
		digits = digits[:2] + "9" + digits[2:]
	}
	return digits
}

// FormatPhoneCSV renders "DD NNNNN-NNNN". Unrecognized numbers are returned
// unchanged.
func FormatPhoneCSV(id string) string {
	n := NormalizeBrazilianMobile(id)
	if len(n) != 11 {
		return StripJID(id)
	}
	return fmt.Sprintf("%s %s-%s", n[:2], n[2:7], n[7:])
}

// FormatPhoneDisplay renders "(DD) NNNNN-NNNN". Unrecognized numbers are
// returned unchanged.
func FormatPhoneDisplay(id string) string {
	n := NormalizeBrazilianMobile(id)
	if len(n) != 11 {
		return StripJID(id)
	}
	return fmt.Sprintf("(%s) %s-%s", n[:2], n[2:7], n[7:])
}
