package models

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Metadata is a free-form document map. Values are limited to scalars
// (nil, bool, string, number), arrays and nested maps so that canonical
// encoding for hashing is well defined.
type Metadata map[string]any

// NormalizeMetadata validates in and returns a fresh copy in canonical form:
// numbers become float64, arrays []any and nested maps map[string]any.
// Integers outside ±2^53 are rejected rather than rounded.
// A nil input yields an empty, non-nil map.
func NormalizeMetadata(in map[string]any) (Metadata, error) {
	out := make(Metadata, len(in))
	for key, value := range in {
		normalized, err := NormalizeValue(value)
		if err != nil {
			return nil, Invalidf("metadata key %q: %v", key, err)
		}
		out[key] = normalized
	}
	return out, nil
}

// NormalizeValue converts v into the closed set of metadata value kinds.
func NormalizeValue(v any) (any, error) {
	switch value := v.(type) {
	case nil:
		return nil, nil
	case bool, string:
		return value, nil
	case float64:
		return checkFloat(value)
	case float32:
		return checkFloat(float64(value))
	case int:
		return checkInt(int64(value))
	case int64:
		return checkInt(value)
	case int32:
		return float64(value), nil
	case json.Number:
		return normalizeNumber(value)
	case Metadata:
		return normalizeMap(value)
	case map[string]any:
		return normalizeMap(value)
	case []any:
		return normalizeSlice(reflect.ValueOf(value))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return checkInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > maxExactInt {
			return nil, fmt.Errorf("integer %d is outside ±2^53", rv.Uint())
		}
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return checkFloat(rv.Float())
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Slice, reflect.Array:
		return normalizeSlice(rv)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map keys must be strings, got %s", rv.Type().Key())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			normalized, err := NormalizeValue(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = normalized
		}
		return out, nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return NormalizeValue(rv.Elem().Interface())
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

// Clone returns a deep copy of m.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for key, value := range m {
		out[key] = cloneValue(value)
	}
	return out
}

func normalizeMap(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		normalized, err := NormalizeValue(value)
		if err != nil {
			return nil, err
		}
		out[key] = normalized
	}
	return out, nil
}

func normalizeSlice(rv reflect.Value) ([]any, error) {
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return []any{}, nil
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		normalized, err := NormalizeValue(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out[i] = normalized
	}
	return out, nil
}

// maxExactInt bounds integers that survive the float64 canonical form.
const maxExactInt = 1 << 53

func checkInt(n int64) (any, error) {
	if n > maxExactInt || n < -maxExactInt {
		return nil, fmt.Errorf("integer %d is outside ±2^53", n)
	}
	return float64(n), nil
}

func normalizeNumber(n json.Number) (any, error) {
	literal := n.String()
	if !strings.ContainsAny(literal, ".eE") {
		i, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integer %s is outside ±2^53", literal)
		}
		return checkInt(i)
	}
	f, err := n.Float64()
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", literal)
	}
	return checkFloat(f)
}

func checkFloat(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite number %v", f)
	}
	return f, nil
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for key, item := range value {
			out[key] = cloneValue(item)
		}
		return out
	case Metadata:
		return value.Clone()
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}
