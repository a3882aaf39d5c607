package rpgtl

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/ZaguanLabs/rpgtl/document"
)

// SkippedFields lists object keys whose string values are never translated.
var SkippedFields = map[string]bool{
	"code":          true,
	"indent":        true,
	"name":          true,
	"characterName": true,
	"id":            true,
	"note":          true,
	"meta":          true,
	"displayName":   true,
}

var identifierPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[!$\\][a-zA-Z0-9_\-\[\]]+$`),
	regexp.MustCompile(`^[a-zA-Z0-9_$!\-]+$`),
	regexp.MustCompile(`^\$[a-zA-Z0-9_\-]+$`),
	regexp.MustCompile(`^![a-zA-Z0-9_\-]+$`),
	regexp.MustCompile(`^\\[A-Za-z]\[[0-9]+\]$`),
}

var (
	bareControlToken = regexp.MustCompile(`^[!$\\][a-zA-Z0-9_\-\[\]]+$`)
	proseMarkers     = []*regexp.Regexp{
		regexp.MustCompile(`[\s.!?,;:'"()\-]`),
		regexp.MustCompile(`[\x{3000}-\x{9FFF}]`),
		regexp.MustCompile(`[a-z][A-Z][0-9]`),
	}
)

// Extract walks a parsed document and returns every string that looks like
// player-visible text, in document order.
func Extract(root any) []TextUnit {
	e := &extractor{}
	switch v := root.(type) {
	case *document.Object:
		e.walkObject(v, nil)
	case []any:
		e.walkArray("", v, nil)
	}
	return e.units
}

type extractor struct {
	units []TextUnit
}

func (e *extractor) emit(path Path, text, field string) {
	e.units = append(e.units, TextUnit{Path: path, Text: text, FieldName: field})
}

func (e *extractor) walkObject(obj *document.Object, path Path) {
	// The command gate is read up front so key order inside the object
	// does not matter.
	gated := false
	if code, ok := commandCodeOf(obj); ok && obj.Has("parameters") {
		gated = !ShouldTranslateCommand(code)
	}

	for _, key := range obj.Keys() {
		if gated && key == "parameters" {
			continue
		}

		value, _ := obj.Get(key)
		childPath := path.Key(key)

		switch v := value.(type) {
		case string:
			if ShouldSkip(key, v) {
				continue
			}
			if IsLikelyText(v) {
				e.emit(childPath, v, key)
			}
		case []any:
			e.walkArray(key, v, childPath)
		case *document.Object:
			e.walkObject(v, childPath)
		}
	}
}

func (e *extractor) walkArray(key string, arr []any, path Path) {
	for i, item := range arr {
		itemPath := path.Index(i)

		switch v := item.(type) {
		case string:
			label := key + "[" + strconv.Itoa(i) + "]"
			if ShouldSkip(label, v) {
				continue
			}
			if IsLikelyText(v) {
				e.emit(itemPath, v, label)
			}
		case []any:
			e.walkArray(key, v, itemPath)
		case *document.Object:
			e.walkObject(v, itemPath)
		}
	}
}

// commandCodeOf returns the numeric "code" member of an event command.
func commandCodeOf(obj *document.Object) (CommandCode, bool) {
	raw, ok := obj.Get("code")
	if !ok {
		return 0, false
	}
	num, ok := raw.(json.Number)
	if !ok {
		return 0, false
	}
	n, err := num.Int64()
	if err != nil {
		f, ferr := num.Float64()
		if ferr != nil || f != math.Trunc(f) {
			// Fractional codes match nothing in either command set.
			return CommandCode(-1), true
		}
		n = int64(f)
	}
	return CommandCode(n), true
}

// ShouldSkip reports whether a string under field is an identifier, a bare
// control code, or lives in a field that never holds translatable text.
func ShouldSkip(field, text string) bool {
	if SkippedFields[field] {
		return true
	}
	for _, p := range identifierPatterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// IsLikelyText reports whether text reads like prose rather than an
// identifier or a number. Borderline strings count as text.
func IsLikelyText(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return false
	}
	if isNumeric(trimmed) {
		return false
	}
	if isUppercaseToken(trimmed) {
		return false
	}
	if bareControlToken.MatchString(text) {
		return false
	}
	for _, p := range proseMarkers {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	if _, err := strconv.ParseInt(s, 0, 64); err == nil {
		return true
	}
	switch s {
	case "Infinity", "+Infinity", "-Infinity":
		return true
	}
	return false
}

// isUppercaseToken matches shouting identifiers such as "ATK" or "MAX_HP".
// Scripts without letter case (CJK, Thai) never match.
func isUppercaseToken(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
