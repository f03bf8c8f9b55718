package schema

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const maxDurationDigits = 3

var weekToken = regexp.MustCompile(`(?i)^\s*(\d+)\s*weeks?\s*$`)

// ParseNumber parses raw as a float. Anything that does not parse, including
// NaN and infinities, is 0.
func ParseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// FormatNumber renders v in the shortest form that parses back to v.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func digitsOnly(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == maxDurationDigits {
				break
			}
		}
	}
	return b.String()
}

// CoerceText normalizes raw for a non-numeric field.
func (f Field) CoerceText(raw string) string {
	switch f.Kind {
	case KindDuration:
		return digitsOnly(raw)
	case KindEnum:
		want := strings.TrimSpace(raw)
		for _, opt := range f.Options {
			if strings.EqualFold(opt, want) {
				return opt
			}
		}
		return f.DefaultText()
	default:
		return raw
	}
}

// PasteText is CoerceText plus the clipboard-only conversions: a duration
// written as "<N>week" becomes a day count.
func (f Field) PasteText(raw string) string {
	if f.Kind == KindDuration {
		if m := weekToken.FindStringSubmatch(raw); m != nil {
			n, err := strconv.Atoi(m[1])
			if err == nil {
				return digitsOnly(strconv.Itoa(n * 7))
			}
		}
	}
	return f.CoerceText(raw)
}

func (f Field) DefaultText() string {
	if f.Kind == KindEnum && f.Default == "" && len(f.Options) > 0 {
		return f.Options[0]
	}
	if f.Kind == KindDuration {
		return digitsOnly(f.Default)
	}
	return f.Default
}

func (f Field) DefaultNumber() float64 {
	return ParseNumber(f.Default)
}
