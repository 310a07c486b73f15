package snippet

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// whitespaceRegex matches one or more whitespace characters
var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeAppName canonicalizes an application name for case-insensitive comparison:
// trim, lowercase, collapse internal whitespace.
func NormalizeAppName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// IsIdentRune reports whether r belongs to the identifier class used for
// exact-match word boundaries: letters, digits and underscore.
func IsIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ParseMatchType parses a match type name. Empty input yields MatchExact.
func ParseMatchType(s string) (MatchType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return MatchExact, nil
	case "prefix":
		return MatchPrefix, nil
	default:
		return "", fmt.Errorf("unknown match type %q (want exact or prefix)", s)
	}
}

// Valid reports whether m is a known match type.
func (m MatchType) Valid() bool {
	return m == MatchExact || m == MatchPrefix
}

// TrimOptional trims *p and returns nil when the result is empty.
func TrimOptional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
