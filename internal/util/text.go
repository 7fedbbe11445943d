package util

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CapitalizeName upper-cases the first letter of every word and lower-cases
// the rest: "mARIA da silva" becomes "Maria Da Silva".
func CapitalizeName(name string) string {
	// Casers keep state, so each call gets its own.
	return cases.Title(language.BrazilianPortuguese).String(strings.TrimSpace(name))
}

// FirstName returns the first word of a profile name, or fallback when the
// profile has no name.
func FirstName(profileName, fallback string) string {
	fields := strings.Fields(profileName)
	if len(fields) == 0 {
		return fallback
	}
	return fields[0]
}

// UpperAnswers trims and upper-cases every comma-separated code.
func UpperAnswers(value string) string {
	if value == "" {
		return ""
	}
	parts := strings.Split(value, ",")
	for i, part := range parts {
		parts[i] = strings.ToUpper(strings.TrimSpace(part))
	}
	return strings.Join(parts, ",")
}
