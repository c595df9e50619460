package fields

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// IsEmpty reports the vendor's many ways of saying "no value".
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(x)
		return s == "" || s == "null" || s == "undefined"
	}
	return false
}

// IsFalsy matches the vendor's negative sentinels: "False", false, "0" and 0.
func IsFalsy(v any) bool {
	switch x := v.(type) {
	case bool:
		return !x
	case string:
		s := strings.TrimSpace(x)
		return strings.EqualFold(s, "false") || s == "0"
	case json.Number:
		f, err := x.Float64()
		return err == nil && f == 0
	}
	if f, ok := number(v); ok {
		return f == 0
	}
	return false
}

// IsTruthy is the positive counterpart used for success flags.
func IsTruthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		s := strings.TrimSpace(x)
		return strings.EqualFold(s, "true") || s == "1"
	}
	if f, ok := number(v); ok {
		return f == 1
	}
	return false
}

// ParseFloat accepts numbers and numeric strings with either "." or a single
// "," as decimal separator. Trailing garbage after a numeric prefix is
// ignored, the way the vendor's own clients read prices like "45,50 EUR".
func ParseFloat(v any) (float64, bool) {
	if f, ok := number(v); ok {
		return f, finite(f)
	}
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case json.Number:
		s = x.String()
	default:
		return 0, false
	}
	s = strings.Replace(strings.TrimSpace(s), ",", ".", 1)
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, finite(f)
	}
	prefix := leadingNumber.FindString(s)
	if prefix == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, false
	}
	return f, finite(f)
}

// ParsePrice never fails: anything unparseable is 0.
func ParsePrice(v any) float64 {
	f, ok := ParseFloat(v)
	if !ok {
		return 0
	}
	return f
}

// ToString renders an identifier canonically: integral floats lose their
// fraction so 77 and "77" compare equal.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	}
	if f, ok := number(v); ok {
		return formatFloat(f)
	}
	return fmt.Sprint(v)
}

// CanonicalID maps "07", "7", 7 and 7.0 onto the same key.
func CanonicalID(v any) string {
	s := ToString(v)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && finite(f) && f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

func formatFloat(f float64) string {
	if finite(f) && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
