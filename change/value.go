// Package change decides whether a document was modified by comparing
// snapshots of its field map as trees of tagged values.
package change

import (
	"encoding/json"
	"math"
	"reflect"
)

// Kind is the variant of a value in a field tree.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
	// KindOther is any value the tree has no variant for. Such values are
	// compared with reflect.DeepEqual.
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "other"
	}
}

// KindOf classifies v.
func KindOf(v interface{}) Kind {
	switch v := v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return KindNumber
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return KindOther
		}
		return KindNumber
	case string:
		return KindString
	case []interface{}:
		return KindList
	case map[string]interface{}:
		return KindMap
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			return KindList
		case reflect.Map:
			if rv.Type().Key().Kind() == reflect.String {
				return KindMap
			}
		case reflect.Ptr:
			if rv.IsNil() {
				return KindNull
			}
		}
		return KindOther
	}
}

// number returns v as a float64 and whether it is an exact integer that
// must be compared as such.
func number(v interface{}) (f float64, i int64, isInt bool) {
	switch n := v.(type) {
	case int:
		return float64(n), int64(n), true
	case int8:
		return float64(n), int64(n), true
	case int16:
		return float64(n), int64(n), true
	case int32:
		return float64(n), int64(n), true
	case int64:
		return float64(n), n, true
	case uint:
		return float64(n), int64(n), n <= math.MaxInt64
	case uint8:
		return float64(n), int64(n), true
	case uint16:
		return float64(n), int64(n), true
	case uint32:
		return float64(n), int64(n), true
	case uint64:
		return float64(n), int64(n), n <= math.MaxInt64
	case float32:
		return float64(n), 0, false
	case float64:
		return n, 0, false
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return float64(i), i, true
		}
		f, _ := n.Float64()
		return f, 0, false
	}
	return math.NaN(), 0, false
}

func list(v interface{}) []interface{} {
	if l, ok := v.([]interface{}); ok {
		return l
	}
	rv := reflect.ValueOf(v)
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func fields(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	rv := reflect.ValueOf(v)
	out := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out
}
