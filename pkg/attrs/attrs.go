// Package attrs reads values out of decoded JSON documents by dotted path.
// Lookups never fail loudly: missing keys and wrong types yield zero values.
package attrs

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Lookup walks a dotted path ("bureau_report.credit_score") through nested
// objects. It reports false when any segment is missing or not an object.
func Lookup(doc map[string]any, path string) (any, bool) {
	if doc == nil || path == "" {
		return nil, false
	}
	var current any = doc
	for _, key := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// String returns the value at path when it is a non-empty string, or a
// number rendered without exponent.
func String(doc map[string]any, path string) string {
	v, ok := Lookup(doc, path)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// Float returns the numeric value at path. Numeric strings are parsed;
// anything else, including NaN and infinities, yields 0.
func Float(doc map[string]any, path string) float64 {
	v, ok := Lookup(doc, path)
	if !ok {
		return 0
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Score returns the value at path as a whole bureau score. Fractions are
// truncated and the result is clamped to [0, math.MaxInt32], so hostile
// payloads cannot overflow or go negative.
func Score(doc map[string]any, path string) int {
	f := math.Trunc(Float(doc, path))
	switch {
	case f <= 0:
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	default:
		return int(f)
	}
}
