package coerce

import (
	"regexp"
	"strconv"
	"strings"
)

// leading_number matches the longest numeric prefix of a cleaned cell value,
// the same way parseFloat-style parsers read "12.5 kg" as 12.5.
var leading_number = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// Number converts an arbitrary cell value to a float64.
//
// Strings go through locale-aware cleanup: the field unit is stripped
// (prefix or suffix, case-insensitive), thousands separators are removed
// (space, no-break space, narrow no-break space, and comma when a decimal
// point is also present), and a French decimal comma becomes a point.
// Anything unparseable after that degrades to 0. Never returns NaN, never
// panics: a single malformed cell must not abort an aggregation pass.
func Number(raw any, unit string) float64 {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		return numberFromString(v, unit)
	}
	return 0
}

func numberFromString(s, unit string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if unit != "" {
		lower_s, lower_unit := strings.ToLower(s), strings.ToLower(unit)
		if strings.HasSuffix(lower_s, lower_unit) {
			s = strings.TrimSpace(s[:len(s)-len(unit)])
		} else if strings.HasPrefix(lower_s, lower_unit) {
			s = strings.TrimSpace(s[len(unit):])
		}
	}

	s = cleanSeparators(s)

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	match := leading_number.FindString(s)
	if match == "" {
		return 0
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return f
}

func cleanSeparators(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, "\u202f", "")

	if strings.Contains(s, ".") && strings.Contains(s, ",") {
		// "1,234.56": comma is a thousands separator here
		return strings.ReplaceAll(s, ",", "")
	}
	// "1234,56": French decimal comma
	return strings.Replace(s, ",", ".", 1)
}

// IsNumeric reports whether the whole cleaned string parses as a number.
// Unlike Number it rejects trailing garbage, so it is safe for type
// inference where "12 rue Oberkampf" must stay text.
func IsNumeric(s string) bool {
	s = cleanSeparators(strings.TrimSpace(s))
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
