package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coerce converts v to the Go type stored for kind (int, float64, string,
// bool). Strings are parsed; empty strings become NULL.
func Coerce(kind Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		return parseString(kind, s)
	}

	switch kind {
	case KindInt:
		switch n := v.(type) {
		case int:
			return n, nil
		case int32:
			return int(n), nil
		case int64:
			return int(n), nil
		case float64:
			if !isFinite(n) || n != math.Trunc(n) {
				return nil, fmt.Errorf("value %v is not an integer", n)
			}
			return int(n), nil
		}
	case KindFloat:
		switch n := v.(type) {
		case float64, float32:
			f := toFloat64(n)
			if !isFinite(f) {
				return nil, fmt.Errorf("value %v is not a finite number", f)
			}
			return f, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindString:
		return fmt.Sprint(v), nil
	}
	return nil, fmt.Errorf("cannot store %T as %s", v, kind)
}

func parseString(kind Kind, raw string) (any, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	switch kind {
	case KindString:
		return s, nil
	case KindInt:
		n, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
			if ferr != nil || !isFinite(f) || f != math.Trunc(f) {
				return nil, fmt.Errorf("invalid integer %q", raw)
			}
			return int(f), nil
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.ReplaceAll(s, ",", ""), "%"), 64)
		if err != nil || !isFinite(f) {
			return nil, fmt.Errorf("invalid number %q", raw)
		}
		return f, nil
	case KindBool:
		switch strings.ToLower(s) {
		case "true", "yes", "y", "1":
			return true, nil
		case "false", "no", "n", "0":
			return false, nil
		}
		return nil, fmt.Errorf("invalid boolean %q", raw)
	}
	return nil, fmt.Errorf("unknown kind %d", kind)
}

// isFinite reports false for NaN and the infinities. JSON cannot encode them.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func toFloat64(v any) float64 {
	if f, ok := v.(float32); ok {
		return float64(f)
	}
	return v.(float64)
}
