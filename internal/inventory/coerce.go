package inventory

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Only plain decimals are numeric; "12 units" or "1,200" are not.
var numericText = regexp.MustCompile(`^-?\d*\.?\d+$`)

// ToNumber coerces v for use in a calculation, returning def whenever the
// cell is missing, empty or not a plain decimal.
func ToNumber(v Value, def float64) float64 {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) {
			return def
		}
		return v.num
	case KindText:
		trimmed := strings.TrimSpace(v.text)
		if v.text == "" || !numericText.MatchString(trimmed) {
			return def
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(f) {
			return def
		}
		return f
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	default:
		return def
	}
}

// ToText renders v as a string; undefined and null cells yield def.
func ToText(v Value, def string) string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		return formatNumber(v.num)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return def
	}
}

// Exists reports whether v carries data. Zero and false count as data.
func Exists(v Value) bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindText:
		return v.text != ""
	default:
		return true
	}
}

// truthy mirrors how a spreadsheet cell reads in a boolean context: empty
// text, zero and false are "no value".
func truthy(v Value) bool {
	switch v.kind {
	case KindText:
		return v.text != ""
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindBool:
		return v.b
	default:
		return false
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// parseIntPrefix reads the leading integer of s after trimming, the way a
// lenient spreadsheet parser would: "14 days" -> 14, "7.5" -> 7.
func parseIntPrefix(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
