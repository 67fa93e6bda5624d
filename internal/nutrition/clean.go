package nutrition

import (
	"regexp"
	"strings"
)

// space matches what Unicode treats as whitespace. RE2's \s is ASCII only,
// so NBSP, thin spaces and \v need naming.
const space = `\s\v\p{Z}\x{1c}-\x{1f}\x{85}`

var (
	noiseRe      = regexp.MustCompile(`[^\p{L}\p{N}` + space + `.,%()\-]`)
	lineWrapRe   = regexp.MustCompile(`([\p{L}\p{N}_])-[ \t\r\f\v\p{Zs}]*\n[` + space + `]*([\p{L}\p{N}_])`)
	whitespaceRe = regexp.MustCompile(`[` + space + `]+`)
	blankLinesRe = regexp.MustCompile(`\n[` + space + `]*\n`)
)

// Clean normalizes raw OCR output. The steps run in a fixed order:
//
//  1. drop every rune that is not a letter, digit, whitespace, '.', ',',
//     '%', '(', ')' or '-'
//  2. rejoin words hyphenated across a line break ("Carbo-\nhydrate")
//  3. collapse whitespace runs to a single space
//  4. collapse consecutive blank lines
//  5. trim
//
// Whitespace is the Unicode set, so a no-break space between "Total" and
// "Fat" becomes an ordinary space. Clean(Clean(s)) == Clean(s) for every s.
func Clean(raw string) string {
	s := noiseRe.ReplaceAllString(raw, "")
	s = lineWrapRe.ReplaceAllString(s, "$1$2")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = blankLinesRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
