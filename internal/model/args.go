package model

import (
	"encoding/json"
	"math"
	"strconv"
)

// Metadata args are written without validation: a missing key or a value of
// an unexpected type yields the zero/absent value of the target attribute.

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func argInt(args map[string]any, key string) *int64 {
	var n int64
	switch v := args[key].(type) {
	case float64:
		i, ok := floatToInt(v)
		if !ok {
			return nil
		}
		n = i
	case int:
		n = int64(v)
	case int64:
		n = v
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return nil
			}
			var ok bool
			if i, ok = floatToInt(f); !ok {
				return nil
			}
		}
		n = i
	default:
		return nil
	}
	return &n
}

// floatToInt truncates f, failing on NaN and values outside the int64 range.
func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func argFloat(args map[string]any, key string) *float64 {
	var f float64
	switch v := args[key].(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
