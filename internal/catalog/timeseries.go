package catalog

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"printvault/internal/fingerprint"
	"printvault/internal/models"
)

var seriesEncoding = mustCoreEncMode()

func mustCoreEncMode() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}

// CreateTimeseries stores dataset as a new series. Data keeps the
// dataset's nesting; the element count, span and hash come from its
// flattened form. Series are always inserted; two identical calls produce
// two rows with the same hash_id.
func (r *Repository) CreateTimeseries(ctx context.Context, name string, dataset any) (string, error) {
	values := flatten(reflect.ValueOf(dataset), nil)

	series := &models.Timeseries{Name: name, ArraySize: len(values)}
	var raw []byte
	if numbers, ok := numericValues(values); ok {
		raw = make([]byte, 0, 8*len(numbers))
		for i, n := range numbers {
			if math.IsInf(n, 0) {
				return "", models.Invalidf("timeseries %q element %d is infinite", name, i)
			}
			raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(n))
		}
		series.ArraySpan = span(numbers)
	} else {
		flat := make([]any, len(values))
		for i, v := range values {
			leaf, err := seriesLeaf(v)
			if err != nil {
				return "", models.Invalidf("timeseries %q element %d: %v", name, i, err)
			}
			flat[i] = leaf
		}
		encoded, err := seriesEncoding.Marshal(flat)
		if err != nil {
			return "", fmt.Errorf("encode timeseries %q: %w", name, err)
		}
		raw = encoded
	}
	series.HashID = fingerprint.SeriesHash(name, raw)

	data, err := shaped(reflect.ValueOf(dataset))
	if err != nil {
		return "", models.Invalidf("timeseries %q: %v", name, err)
	}
	switch data := data.(type) {
	case []any:
		series.Data = data
	case nil:
		series.Data = []any{}
	default:
		series.Data = []any{data}
	}

	if err := r.store.CreateTimeseries(ctx, series); err != nil {
		return "", fmt.Errorf("create timeseries: %w", err)
	}
	r.logger.Info("timeseries created", "timeseries_id", series.ID, "name", name, "size", series.ArraySize)
	return series.ID, nil
}

// shaped mirrors the slice and array nesting of v with normalized leaves.
func shaped(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	if v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		return shaped(v.Elem())
	}
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		out := make([]any, v.Len())
		for i := range out {
			item, err := shaped(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = item
		}
		return out, nil
	}
	return seriesLeaf(v.Interface())
}

// seriesLeaf normalizes one element. Series numbers are float64, so
// integers convert without the metadata range check. NaN is stored as null.
func seriesLeaf(v any) (any, error) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		if math.IsNaN(rv.Float()) {
			return nil, nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	}
	return models.NormalizeValue(v)
}

// flatten walks nested slices and arrays depth first. A scalar dataset
// flattens to a single element; nil flattens to nothing.
func flatten(v reflect.Value, out []any) []any {
	if !v.IsValid() {
		return out
	}
	if v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return append(out, nil)
		}
		return flatten(v.Elem(), out)
	}
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		for i := 0; i < v.Len(); i++ {
			out = flatten(v.Index(i), out)
		}
		return out
	}
	return append(out, v.Interface())
}

// numericValues converts values to float64 when every element is a number.
func numericValues(values []any) ([]float64, bool) {
	out := make([]float64, len(values))
	for i, v := range values {
		if n, ok := v.(json.Number); ok {
			f, err := n.Float64()
			if err != nil {
				return nil, false
			}
			out[i] = f
			continue
		}
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out[i] = float64(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out[i] = float64(rv.Uint())
		case reflect.Float32, reflect.Float64:
			out[i] = rv.Float()
		default:
			return nil, false
		}
	}
	return out, true
}

// span is max minus min ignoring NaN. It is nil when every element is NaN
// and zero for an empty series.
func span(values []float64) *float64 {
	if len(values) == 0 {
		zero := 0.0
		return &zero
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	seen := false
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		seen = true
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if !seen {
		return nil
	}
	s := hi - lo
	return &s
}
