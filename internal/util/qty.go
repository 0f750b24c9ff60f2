package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	thousandDot   = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+$`)
	thousandComma = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+$`)
)

// ParseQuantity parses a loose quantity token as it appears in analytics
// payloads and markup ("2", "1,5", "1 000"). Returns nil unless the result
// is a finite number.
func ParseQuantity(input string) *float64 {
	compact := strings.ReplaceAll(strings.TrimSpace(input), " ", " ")
	compact = strings.ReplaceAll(compact, " ", "")
	if compact == "" {
		return nil
	}
	if thousandDot.MatchString(compact) {
		compact = strings.ReplaceAll(compact, ".", "")
	} else if thousandComma.MatchString(compact) {
		compact = strings.ReplaceAll(compact, ",", "")
	} else if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		compact = strings.ReplaceAll(compact, ",", ".")
	}
	parsed, err := strconv.ParseFloat(compact, 64)
	if err != nil {
		return nil
	}
	return Finite(parsed)
}

// Finite returns a pointer to v, or nil when v is NaN or infinite.
func Finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func StringPtr(s string) *string { return &s }

func FloatPtr(v float64) *float64 { return &v }
