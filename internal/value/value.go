// Package value implements a small tagged-union JSON value type used
// by the condition interpreter and the evaluation engine. It mirrors
// JavaScript's loose comparison and casting rules so that evaluation
// results match the reference cross-SDK conformance fixtures, and it
// distinguishes a missing ("undefined") value from an explicit JSON
// null, which plain Go map lookups and encoding/json cannot do on
// their own.
package value

import "reflect"

// Type tags a Value's underlying JSON shape.
type Type int

const (
	NullType Type = iota
	UndefinedType
	BoolType
	NumType
	StrType
	ArrType
	ObjType
)

func (t Type) String() string {
	switch t {
	case NullType:
		return "null"
	case UndefinedType:
		return "undefined"
	case BoolType:
		return "boolean"
	case NumType:
		return "number"
	case StrType:
		return "string"
	case ArrType:
		return "array"
	case ObjType:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the common interface implemented by every JSON value
// variant plus the Undefined sentinel.
type Value interface {
	Type() Type
	Cast(Type) Value
	String() string
}

// New converts a Go value (as produced by encoding/json.Unmarshal into
// interface{}, or passed directly by a caller building attributes in
// code) into a Value. A nil input becomes Null, never Undefined —
// Undefined is reserved for path resolution of missing keys.
func New(a any) Value {
	if a == nil {
		return Null()
	}
	switch v := a.(type) {
	case Value:
		return v
	case map[string]any:
		return newObj(v)
	case []any:
		return newArr(v)
	default:
		return fromAny(a)
	}
}

func fromAny(a any) Value {
	ref := reflect.ValueOf(a)
	switch {
	case ref.Kind() == reflect.Map:
		m := map[string]any{}
		iter := ref.MapRange()
		for iter.Next() {
			m[fromAnyString(iter.Key())] = iter.Value().Interface()
		}
		return newObj(m)
	case ref.Kind() == reflect.Slice || ref.Kind() == reflect.Array:
		arr := make([]any, ref.Len())
		for i := range arr {
			arr[i] = ref.Index(i).Interface()
		}
		return newArr(arr)
	case ref.CanFloat():
		return Num(ref.Float())
	case ref.CanInt():
		return Num(ref.Int())
	case ref.CanUint():
		return Num(ref.Uint())
	case ref.Kind() == reflect.Bool:
		return Bool(ref.Bool())
	case ref.Kind() == reflect.String:
		return Str(ref.String())
	default:
		return Null()
	}
}

func fromAnyString(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return ""
}

// IsNullish reports whether v is JSON null or the undefined sentinel.
func IsNullish(v Value) bool {
	return v.Type() == NullType || v.Type() == UndefinedType
}

// Equal implements strict (type-aware) equality used by $eq/$ne/$in.
func Equal(a, b Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch av := a.(type) {
	case NullValue, UndefinedValue:
		return true
	case BoolValue:
		return av == b.(BoolValue)
	case NumValue:
		return av == b.(NumValue)
	case StrValue:
		return av == b.(StrValue)
	case ArrValue:
		bv := b.(ArrValue)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case ObjValue:
		bv := b.(ObjValue)
		if len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !Equal(v, bvv) {
				return false
			}
		}
		return true
	}
	return false
}

// Get resolves a dot-separated path against a Value. Each segment is
// either an object key or, when the current value is an array, a
// decimal index. Resolution never fails: a missing segment yields
// Undefined at every subsequent step.
func Get(v Value, path []string) Value {
	cur := v
	for _, seg := range path {
		switch c := cur.(type) {
		case ObjValue:
			next, ok := c[seg]
			if !ok {
				return Undefined()
			}
			cur = next
		case ArrValue:
			idx, ok := parseIndex(seg)
			if !ok || idx < 0 || idx >= len(c) {
				return Undefined()
			}
			cur = c[idx]
		default:
			return Undefined()
		}
	}
	return cur
}

func parseIndex(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
