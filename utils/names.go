// utils/names.go
package utils

import (
	"strings"

	"github.com/gosimple/slug"
	"github.com/gosimple/unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CountryKey folds a user-entered country name into a lookup key.
// "  Brasília " -> "brasilia", "United States of America" -> "united-states-of-america"
func CountryKey(name string) string {
	return slug.Make(unidecode.Unidecode(strings.TrimSpace(name)))
}

// CanonicalCountryName tidies a free-form country name for display:
// whitespace collapsed, each word title-cased ("south  korea" -> "South Korea").
func CanonicalCountryName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	// Casers are stateful; build one per call.
	return cases.Title(language.English).String(strings.ToLower(strings.Join(fields, " ")))
}

// CleanList trims every entry, drops blanks and removes case-insensitive duplicates,
// keeping the first spelling seen.
func CleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.Join(strings.Fields(v), " ")
		if v == "" {
			continue
		}
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
