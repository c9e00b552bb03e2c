package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	questionMark = regexp.MustCompile(`\?`)
	dollarArg    = regexp.MustCompile(`\$\d+`)
)

// ConvertPlaceholders converts SQL query placeholders between positional (`?`) and PostgreSQL format (`$1`, `$2`, ...).
// If reverse is true, it converts `$1`, `$2`, ... back to `?`. If not provided, defaults to forward conversion.
func ConvertPlaceholders(query string, reverse ...bool) string {
	isReverse := len(reverse) > 0 && reverse[0]

	if isReverse {
		return dollarArg.ReplaceAllString(query, "?")
	}

	count := 0
	return questionMark.ReplaceAllStringFunc(query, func(_ string) string {
		count++
		return fmt.Sprintf("$%d", count)
	})
}

// Placeholders returns n comma separated `?` placeholders for IN clauses
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
