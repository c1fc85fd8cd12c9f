package structural

import (
	"regexp"
	"strings"
)

// branchTokens are counted once per occurrence. "else if" is covered by its "if".
var branchTokens = []*regexp.Regexp{
	regexp.MustCompile(`\bif\b`),
	regexp.MustCompile(`\belif\b`),
	regexp.MustCompile(`\bwhile\b`),
	regexp.MustCompile(`\bfor\b`),
	regexp.MustCompile(`\bcase\b`),
	regexp.MustCompile(`\bcatch\b`),
	regexp.MustCompile(`&&`),
	regexp.MustCompile(`\|\|`),
}

// CyclomaticEstimate returns 1 + the number of branching tokens in text.
// It is a token count, not a control-flow computation.
func CyclomaticEstimate(text string) int {
	n := 1
	for _, re := range branchTokens {
		n += len(re.FindAllStringIndex(text, -1))
	}
	return n + countTernaries(text)
}

// countTernaries counts '?' that are not part of '?.', '??' or '?:'.
func countTernaries(text string) int {
	n := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '?' {
			continue
		}
		if i > 0 && text[i-1] == '?' {
			continue
		}
		if i+1 < len(text) {
			switch text[i+1] {
			case '.', '?', ':':
				continue
			}
		}
		n++
	}
	return n
}

var commentPrefixes = []string{"//", "#", "/*", "*", "--"}

// LinesOfCode counts non-blank lines that do not start with a comment prefix.
func LinesOfCode(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || hasAnyPrefix(trimmed, commentPrefixes) {
			continue
		}
		n++
	}
	return n
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
