package docstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Fields wraps a loosely typed document payload with coercing accessors.
// Missing keys and unexpected shapes yield zero values.
type Fields map[string]interface{}

// Has reports whether the key is present.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// String returns the value as a string.
func (f Fields) String(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int, int32, int64, bool:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// Bool returns the value as a bool. Strings "true" and "1" count as true.
func (f Fields) Bool(key string) bool {
	switch v := f[key].(type) {
	case bool:
		return v
	case string:
		v = strings.TrimSpace(strings.ToLower(v))
		return v == "true" || v == "1"
	case float64:
		return v != 0
	case int64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

// Int returns the value as an int.
func (f Fields) Int(key string) int {
	switch v := f[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}

// Map returns a nested map value.
func (f Fields) Map(key string) Fields {
	if v, ok := f[key].(map[string]interface{}); ok {
		return Fields(v)
	}
	if v, ok := f[key].(Fields); ok {
		return v
	}
	return Fields{}
}

// Time parses RFC3339 strings and passes through time values.
func (f Fields) Time(key string) time.Time {
	switch v := f[key].(type) {
	case time.Time:
		return v
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// mergeInto merges src into dst. Nested maps are merged recursively, other
// values are replaced.
func mergeInto(dst, src map[string]interface{}) map[string]interface{} {
	if dst == nil {
		dst = make(map[string]interface{}, len(src))
	}
	for k, v := range src {
		if srcMap, ok := v.(map[string]interface{}); ok {
			if dstMap, ok := dst[k].(map[string]interface{}); ok {
				dst[k] = mergeInto(dstMap, srcMap)
				continue
			}
			dst[k] = copyMap(srcMap)
			continue
		}
		dst[k] = copyValue(v)
	}
	return dst
}

func copyMap(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}
	out := make(map[string]interface{}, len(src))
	for k, v := range src {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v interface{}) interface{} {
	switch typed := v.(type) {
	case map[string]interface{}:
		return copyMap(typed)
	case []interface{}:
		out := make([]interface{}, len(typed))
		for i, item := range typed {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
