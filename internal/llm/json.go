package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNoJSONObject is returned when a completion contains no JSON object
var ErrNoJSONObject = errors.New("no JSON object in completion")

// Object is a decoded JSON object with lenient typed accessors.
// Accessors never fail; ill-typed or missing fields return the supplied default.
type Object map[string]any

// ParseObject extracts the first JSON object from a completion, tolerating
// markdown code fences and leading or trailing prose.
func ParseObject(content string) (Object, error) {
	s := strings.TrimSpace(content)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSONObject
	}

	var obj Object
	if err := json.Unmarshal([]byte(s[start:end+1]), &obj); err != nil {
		return nil, fmt.Errorf("decode completion: %w", err)
	}
	return obj, nil
}

// String returns the field as a string
func (o Object) String(key, def string) string {
	switch v := o[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return def
	}
}

// Float returns the field as a float64, parsing numeric strings
func (o Object) Float(key string, def float64) float64 {
	switch v := o[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return def
		}
		return v
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return def
		}
		return f
	default:
		return def
	}
}

// Int returns the field truncated toward zero
func (o Object) Int(key string, def int) int {
	if _, ok := o[key]; !ok {
		return def
	}
	f := o.Float(key, math.NaN())
	if math.IsNaN(f) {
		return def
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	if f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

// Bool returns the field as a bool; "true"/"false" strings are accepted
func (o Object) Bool(key string, def bool) bool {
	switch v := o[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return def
		}
		return b
	default:
		return def
	}
}

// Strings returns the string elements of an array field, skipping other types
func (o Object) Strings(key string) []string {
	arr, ok := o[key].([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Objects returns the object elements of an array field, skipping other types
func (o Object) Objects(key string) []Object {
	arr, ok := o[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Object, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Object(m))
		}
	}
	return out
}
