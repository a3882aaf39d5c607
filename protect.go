package rpgtl

import (
	"regexp"
	"strconv"
	"strings"
)

// ProtectedText is a string whose control codes were swapped for placeholders.
// Codes[i] is the original text of placeholder i.
type ProtectedText struct {
	Body  string
	Codes []string
}

// codePattern matches engine control sequences. Alternation order matters:
// Go's regexp is leftmost-first, so \C[2] is taken whole before the
// generic "anything after a backslash" branch.
var codePattern = regexp.MustCompile(`(?i)(` +
	`\\[A-Za-z<>](\[[0-9]+\])?` +
	`|\\[#@$!<>][A-Za-z0-9_]*` +
	`|\\[CN]\[[0-9]+\]` +
	`|\$[A-Za-z0-9_]+` +
	`|![A-Za-z0-9_\-]+` +
	`|\?{3,}` +
	`|[!$\\<>][^ \n\r\t]+` +
	`)`)

var alreadyProtected = regexp.MustCompile(`(?i)RPGM[_\s]*CODE[_\s]*\d+`)

// placeholderPattern recognises the canonical placeholder and the shapes
// translation services tend to turn it into. Exactly one group captures the index.
var placeholderPattern = regexp.MustCompile(`(?i)` +
	`\[\s*CODE[_\s]*(\d+)[_\s]*\]` +
	`|RPGM?[_\s]*CODE[_\s]*(\d+)[_\s]*` +
	`|RPGM[_\s]*(\d+)[_\s]*` +
	`|CODE[_\s]*(\d+)[_\s]*` +
	`|rpm_protect_(\d+)_`)

var (
	spacedBracketCode = regexp.MustCompile(`\s*(\\[A-Za-z]\[[0-9]+\])\s*`)
	spacedNameCode    = regexp.MustCompile(`\s*(\\[CN]\[[0-9]+\])\s*`)
	spacedToken       = regexp.MustCompile(`\s*([!$\\][A-Za-z0-9_\-]+)\s*`)
	spacedQuestions   = regexp.MustCompile(`\s*\?\s*\?\s*\?\s*`)
)

// Placeholder returns the token that stands in for code i.
func Placeholder(i int) string {
	return " RPGM_CODE_" + strconv.Itoa(i) + "_ "
}

// Protect replaces control codes in text with indexed placeholders.
func Protect(text string) ProtectedText {
	var codes []string
	body := codePattern.ReplaceAllStringFunc(text, func(code string) string {
		if alreadyProtected.MatchString(code) {
			return code
		}
		codes = append(codes, code)
		return Placeholder(len(codes) - 1)
	})
	return ProtectedText{Body: body, Codes: codes}
}

// Restore puts the codes back in place of their placeholders. Placeholders
// with an unknown index are left as they are.
func Restore(body string, codes []string) string {
	out := body
	if len(codes) > 0 {
		out = placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
			idx, ok := placeholderIndex(match)
			if !ok || idx >= len(codes) || codes[idx] == "" {
				return match
			}
			return codes[idx]
		})
	}

	out = spacedBracketCode.ReplaceAllString(out, "$1")
	out = spacedNameCode.ReplaceAllString(out, "$1")
	out = spacedToken.ReplaceAllString(out, "$1")
	out = spacedQuestions.ReplaceAllString(out, "???")
	return out
}

func placeholderIndex(match string) (int, bool) {
	groups := placeholderPattern.FindStringSubmatch(match)
	if groups == nil {
		return 0, false
	}
	for _, g := range groups[1:] {
		if g == "" {
			continue
		}
		n, err := strconv.Atoi(g)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// CollapseSpaces trims s and folds every whitespace run into one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
