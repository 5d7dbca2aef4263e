package change

import (
	"reflect"
)

// Equal reports whether a and b are structurally equal. Numbers are equal
// when their values are, whatever their Go type: 1, int64(1) and 1.0 are equal.
func Equal(a, b interface{}) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}

	switch ka {
	case KindNull:
		return true
	case KindBool:
		return a.(bool) == b.(bool)
	case KindString:
		return a.(string) == b.(string)
	case KindNumber:
		fa, ia, inta := number(a)
		fb, ib, intb := number(b)
		if inta && intb {
			return ia == ib
		}
		return fa == fb
	case KindList:
		la, lb := list(a), list(b)
		if len(la) != len(lb) {
			return false
		}
		for i := range la {
			if !Equal(la[i], lb[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return !differs(fields(a), fields(b))
	default:
		return reflect.DeepEqual(a, b)
	}
}

// Differs reports whether after is a change of before. A key of after that is
// missing from before, a key removed from before, a change of kind or a value
// inequality at any depth are all changes.
func Differs(before, after map[string]interface{}) bool {
	return differs(before, after)
}

func differs(before, after map[string]interface{}) bool {
	if len(before) != len(after) {
		return true
	}
	for k, av := range after {
		bv, ok := before[k]
		if !ok {
			return true
		}
		if !Equal(bv, av) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of a field map. Lists and maps are copied, other
// values are shared.
func Clone(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch KindOf(v) {
	case KindList:
		l := list(v)
		out := make([]interface{}, len(l))
		for i := range l {
			out[i] = cloneValue(l[i])
		}
		return out
	case KindMap:
		return Clone(fields(v))
	default:
		return v
	}
}
