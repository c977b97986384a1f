package domain

import (
	"math"
	"strconv"
	"strings"
)

// ParseStreams converts a chart stream count to a number. Thousands
// separators are removed and a lone decimal comma is accepted. The second
// return value is false when the text does not hold a finite number.
func ParseStreams(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(normalizeSeparators(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// normalizeSeparators rewrites commas so strconv can parse the value:
//
//	"1,234.5"   -> "1234.5"
//	"4,321,000" -> "4321000"
//	"3,2"       -> "3.2"
func normalizeSeparators(s string) string {
	commas := strings.Count(s, ",")
	if commas == 0 {
		return s
	}
	if commas == 1 && !strings.Contains(s, ".") {
		i := strings.IndexByte(s, ',')
		frac := s[i+1:]
		if n := len(frac); n >= 1 && n <= 2 && allDigits(frac) {
			return s[:i] + "." + frac
		}
	}
	return strings.ReplaceAll(s, ",", "")
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
