package model

import (
	"fmt"
	"regexp"
	"strings"
)

// symbolRe matches a normalized TWSE symbol code, e.g. "2330.TW".
var symbolRe = regexp.MustCompile(`^\d{4}\.TW$`)

// NormalizeSymbol canonicalizes a user-entered stock code:
// "2330" → "2330.TW", "2330.tw" → "2330.TW".
func NormalizeSymbol(code string) string {
	s := strings.TrimSpace(code)
	if s == "" {
		return s
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return strings.ToUpper(s)
	}
	return strings.ToUpper(s) + ".TW"
}

// ValidateSymbol checks that a symbol is in normalized NNNN.TW form.
func ValidateSymbol(symbol string) error {
	if !symbolRe.MatchString(symbol) {
		return fmt.Errorf("%w: %q", ErrInvalidSymbol, symbol)
	}
	return nil
}
