package nutrition

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	numericJunkRe    = regexp.MustCompile(`[^\d.,]`)
	thousandsCommaRe = regexp.MustCompile(`,(\d{3})(?:$|[.,])`)
)

// SafeFloat coerces an OCR number token to a float. Everything except
// digits, '.' and ',' is dropped first, so "12.5g" reads as 12.5.
//
// A comma followed by exactly three digits is a thousands separator
// ("1,234" is 1234); any other comma is a decimal comma ("12,5" is 12.5).
// It returns false for empty input or more than one decimal point.
func SafeFloat(token string) (float64, bool) {
	s := numericJunkRe.ReplaceAllString(token, "")
	if s == "" {
		return 0, false
	}
	for thousandsCommaRe.MatchString(s) {
		s = thousandsCommaRe.ReplaceAllStringFunc(s, func(m string) string {
			return strings.TrimPrefix(m, ",")
		})
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
