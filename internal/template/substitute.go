// Package template implements the engine's placeholder substitution
// (spec §6): {{key}} tokens inside SMS/email bodies and subjects, resolved
// against a flat string map. This is deliberately simpler than the
// teacher's nested-path Resolver (internal/application/template/resolver.go)
// — that resolver supports dotted/array-indexed variable references against
// arbitrary env/input trees, which this engine's closed per-type payloads
// never need; spec §6 only requires flat key lookup with case-insensitive
// keys and unresolved tokens left literal.
package template

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Substitute replaces every {{key}} token in body with the matching value
// from values, matched case-insensitively on key. Tokens with no match are
// left untouched.
func Substitute(body string, values map[string]string) string {
	lower := make(map[string]string, len(values))
	for k, v := range values {
		lower[normalizeKey(k)] = v
	}

	return placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := lower[normalizeKey(key)]; ok {
			return v
		}
		return match
	})
}

func normalizeKey(key string) string {
	return strings.ToLower(key)
}
