package condition

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/flagkit/flagkit/internal/value"
)

// UnmarshalJSON builds a Condition tree from a single raw condition
// object, following the grammar of spec.md §4.3. Unknown operators and
// malformed arguments to field operators ($in, $regex, $type, ...) or
// to a top-level $not degrade to a condition that never matches rather
// than failing unmarshaling. Input that is not a JSON object, and a
// $and/$or/$nor argument that is not an array of objects, do fail
// unmarshaling with an error.
func (b *Base) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	cond, err := buildObject(value.New(m).(value.ObjValue))
	if err != nil {
		return fmt.Errorf("condition: %w", err)
	}
	*b = Base{cond}
	return nil
}

// buildObject builds a condition from a top-level (or $and/$or/$nor
// list element) object: each key is either a logical operator or a
// path, and all entries are ANDed together.
func buildObject(obj value.ObjValue) (Condition, error) {
	var conds AndConds
	for k, v := range obj {
		c, err := buildTopLevelEntry(k, v)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return conds, nil
}

func buildTopLevelEntry(key string, arg value.Value) (Condition, error) {
	switch Operator(key) {
	case andOp:
		conds, err := buildObjectList(arg)
		if err != nil {
			return nil, fmt.Errorf("$and: %w", err)
		}
		return AndConds(conds), nil
	case orOp:
		conds, err := buildObjectList(arg)
		if err != nil {
			return nil, fmt.Errorf("$or: %w", err)
		}
		return OrConds(conds), nil
	case norOp:
		conds, err := buildObjectList(arg)
		if err != nil {
			return nil, fmt.Errorf("$nor: %w", err)
		}
		return NorConds(conds), nil
	case notOp:
		obj, ok := arg.(value.ObjValue)
		if !ok {
			return False{}, nil
		}
		c, err := buildObject(obj)
		if err != nil {
			return nil, fmt.Errorf("$not: %w", err)
		}
		return NotCond{c}, nil
	default:
		return buildFieldCond(key, arg)
	}
}

func buildObjectList(arg value.Value) ([]Condition, error) {
	arr, ok := arg.(value.ArrValue)
	if !ok {
		return nil, fmt.Errorf("expected an array")
	}
	res := make([]Condition, 0, len(arr))
	for _, v := range arr {
		obj, ok := v.(value.ObjValue)
		if !ok {
			return nil, fmt.Errorf("expected an object")
		}
		c, err := buildObject(obj)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

func buildFieldCond(path string, arg value.Value) (Condition, error) {
	matcher, err := buildMatcher(arg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewFieldCond(path, matcher), nil
}

// buildMatcher builds the matcher applied to a resolved path value:
// either a recursive condition (a non-operator object), or a set of
// `$op: arg` entries ANDed together, or — for anything else — a bare
// literal-equality matcher.
func buildMatcher(arg value.Value) (Condition, error) {
	obj, ok := arg.(value.ObjValue)
	if !ok {
		return NewValueCond(arg), nil
	}
	if !isOperatorObject(obj) {
		return buildObject(obj)
	}
	var conds AndConds
	for op, opArg := range obj {
		c, err := buildOperator(Operator(op), opArg)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return conds, nil
}

func isOperatorObject(obj value.ObjValue) bool {
	if len(obj) == 0 {
		return false
	}
	for k := range obj {
		if !isOperatorKey(k) {
			return false
		}
	}
	return true
}

func buildOperator(op Operator, arg value.Value) (Condition, error) {
	switch op {
	case eqOp, neOp, ltOp, lteOp, gtOp, gteOp:
		return NewCompCond(op, arg), nil
	case veqOp, vneOp, vgtOp, vgteOp, vltOp, vlteOp:
		return NewVersionCond(op, arg), nil
	case inOp:
		arr, ok := arg.(value.ArrValue)
		if !ok {
			return False{}, nil
		}
		return NewInCond(arr), nil
	case ninOp:
		arr, ok := arg.(value.ArrValue)
		if !ok {
			return False{}, nil
		}
		return NewNinCond(arr), nil
	case regexOp:
		return buildRegexCond(arg)
	case sizeOp:
		sub, err := buildMatcher(arg)
		if err != nil {
			return nil, fmt.Errorf("$size: %w", err)
		}
		return NewSizeCond(sub), nil
	case typeOp:
		s, ok := arg.(value.StrValue)
		if !ok {
			return False{}, nil
		}
		return NewTypeCond(string(s)), nil
	case existsOp:
		b := arg.Cast(value.BoolType)
		return NewExistsCond(value.Equal(b, value.True())), nil
	case elemMatchOp:
		return buildElemMatchCond(arg)
	case allOp:
		return buildAllCond(arg)
	case notOp:
		sub, err := buildMatcher(arg)
		if err != nil {
			return nil, fmt.Errorf("$not: %w", err)
		}
		return NotCond{sub}, nil
	default:
		return False{}, nil
	}
}

func buildRegexCond(arg value.Value) (Condition, error) {
	s, ok := arg.(value.StrValue)
	if !ok {
		return False{}, nil
	}
	re, err := regexp.Compile(string(s))
	if err != nil {
		return False{}, nil
	}
	return NewRegexCond(re), nil
}

func buildElemMatchCond(arg value.Value) (Condition, error) {
	obj, ok := arg.(value.ObjValue)
	if !ok {
		return False{}, nil
	}
	var sub Condition
	var err error
	if isOperatorObject(obj) {
		sub, err = buildMatcher(obj)
	} else {
		sub, err = buildObject(obj)
	}
	if err != nil {
		return nil, fmt.Errorf("$elemMatch: %w", err)
	}
	return NewElemMatchCond(sub), nil
}

func buildAllCond(arg value.Value) (Condition, error) {
	arr, ok := arg.(value.ArrValue)
	if !ok {
		return False{}, nil
	}
	res := make(AllCond, 0, len(arr))
	for _, v := range arr {
		c, err := buildMatcher(v)
		if err != nil {
			return nil, fmt.Errorf("$all: %w", err)
		}
		res = append(res, c)
	}
	return res, nil
}
