package value

import "strings"

// ArrValue represents a JSON array.
type ArrValue []Value

func Arr(args ...any) ArrValue {
	res := make(ArrValue, len(args))
	for i, a := range args {
		res[i] = New(a)
	}
	return res
}

func newArr(raw []any) ArrValue {
	res := make(ArrValue, len(raw))
	for i, a := range raw {
		res[i] = New(a)
	}
	return res
}

func (ArrValue) Type() Type { return ArrType }

func (a ArrValue) Cast(t Type) Value {
	switch t {
	case BoolType:
		return True()
	case NumType:
		return a.toNum()
	case StrType:
		return Str(a.String())
	case ArrType:
		return a
	default:
		return Null()
	}
}

func (a ArrValue) toNum() Value {
	switch len(a) {
	case 0:
		return Num(0)
	case 1:
		return a[0].Cast(NumType)
	default:
		return Null()
	}
}

func (a ArrValue) String() string {
	var sb strings.Builder
	for i, v := range a {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(v.String())
	}
	return sb.String()
}

// ObjValue represents a JSON object.
type ObjValue map[string]Value

func Obj(args map[string]any) ObjValue {
	res := make(ObjValue, len(args))
	for k, v := range args {
		res[k] = New(v)
	}
	return res
}

func newObj(raw map[string]any) ObjValue {
	res := make(ObjValue, len(raw))
	for k, v := range raw {
		res[k] = New(v)
	}
	return res
}

func (ObjValue) Type() Type { return ObjType }

func (o ObjValue) Cast(Type) Value { return Null() }

func (o ObjValue) String() string { return "[object Object]" }
