package core

// convert.go turns raw CSV cells into integers for the field rules.
//
// Accepted syntax: optional surrounding whitespace, an optional leading '-',
// then ASCII digits only. "+5", "1.0", "1,000" and "1e3" are not integers.
// Values of any length are accepted; range checks decide what is too big.

import (
	"strconv"
	"strings"
)

// Integer is a parsed cell in canonical decimal form: an optional '-', no
// leading zeros, and "0" for zero. It has no size limit.
type Integer string

// IntegerOf returns the canonical form of v.
func IntegerOf(v int64) Integer {
	return Integer(strconv.FormatInt(v, 10))
}

// Int64 returns the value and false when it does not fit in an int64.
func (n Integer) Int64() (int64, bool) {
	v, err := strconv.ParseInt(string(n), 10, 64)
	return v, err == nil
}

func (n Integer) String() string { return string(n) }

// ParseInteger parses a cell under the general integer rule.
//
// On failure it returns the reason code: ReasonMissing, ReasonNegativeNotAllowed,
// ReasonNotInteger, or a digit-length reason when minDigits/maxDigits are set
// (0 disables a bound). Digit length is measured on the absolute value, so
// "007" has one digit.
func ParseInteger(raw string, allowNegative bool, minDigits, maxDigits int) (Integer, string) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ReasonMissing
	}

	digits := s
	negative := strings.HasPrefix(s, "-")
	if negative {
		if !allowNegative {
			return "", ReasonNegativeNotAllowed
		}
		digits = s[1:]
	}
	if !isDigits(digits) {
		return "", ReasonNotInteger
	}

	digits = strings.TrimLeft(digits, "0")
	n := len(digits)
	if n == 0 {
		n = 1
	}
	if minDigits > 0 && n < minDigits {
		return "", "too_short_len<" + strconv.Itoa(minDigits)
	}
	if maxDigits > 0 && n > maxDigits {
		return "", "too_long_len>" + strconv.Itoa(maxDigits)
	}

	switch {
	case digits == "":
		return "0", ""
	case negative:
		return Integer("-" + digits), ""
	default:
		return Integer(digits), ""
	}
}

// isDigits reports whether s is non-empty and made only of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MakeHeaderIndex creates a HeaderIndex from a header row whose cells have
// already been trimmed. The first occurrence of a repeated name wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}

// PositionalIndex maps names to positions 0..n-1 in the given order. It is
// used when the file carries no header.
func PositionalIndex(names []string) HeaderIndex {
	idx := make(HeaderIndex, len(names))
	for i, name := range names {
		idx[name] = i
	}
	return idx
}

// trimCells returns a copy of row with surrounding whitespace removed from
// every cell.
func trimCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
