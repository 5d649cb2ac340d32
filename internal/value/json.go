package value

import "encoding/json"

// Decode parses raw JSON bytes into a Value, preserving the null vs.
// undefined distinction for the top level (a bare `null` literal
// decodes to Null, never Undefined).
func Decode(data []byte) (Value, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return New(raw), nil
}

// JSON wraps a Value so that it can be embedded as a struct field and
// decoded directly by encoding/json, instead of via an intermediate
// map[string]any and a hand-written builder. Feature payload fields
// whose shape is arbitrary JSON (rule.force, feature.defaultValue,
// experiment variations) use this type.
type JSON struct {
	V Value
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	v, err := Decode(data)
	if err != nil {
		return err
	}
	j.V = v
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j.V == nil {
		return []byte("null"), nil
	}
	return json.Marshal(toAny(j.V))
}

func toAny(v Value) any {
	switch vv := v.(type) {
	case nil:
		return nil
	case NullValue, UndefinedValue:
		return nil
	case BoolValue:
		return bool(vv)
	case NumValue:
		return float64(vv)
	case StrValue:
		return string(vv)
	case ArrValue:
		res := make([]any, len(vv))
		for i, e := range vv {
			res[i] = toAny(e)
		}
		return res
	case ObjValue:
		res := make(map[string]any, len(vv))
		for k, e := range vv {
			res[k] = toAny(e)
		}
		return res
	default:
		return nil
	}
}
