package condition

// Operator names the recognized `$`-prefixed keys in the condition
// grammar (spec.md §4.3).
type Operator string

const (
	andOp Operator = "$and"
	orOp  Operator = "$or"
	norOp Operator = "$nor"
	notOp Operator = "$not"

	eqOp  Operator = "$eq"
	neOp  Operator = "$ne"
	ltOp  Operator = "$lt"
	lteOp Operator = "$lte"
	gtOp  Operator = "$gt"
	gteOp Operator = "$gte"

	veqOp  Operator = "$veq"
	vneOp  Operator = "$vne"
	vgtOp  Operator = "$vgt"
	vgteOp Operator = "$vgte"
	vltOp  Operator = "$vlt"
	vlteOp Operator = "$vlte"

	inOp  Operator = "$in"
	ninOp Operator = "$nin"

	regexOp     Operator = "$regex"
	sizeOp      Operator = "$size"
	elemMatchOp Operator = "$elemMatch"
	allOp       Operator = "$all"
	typeOp      Operator = "$type"
	existsOp    Operator = "$exists"
)

// isOperatorKey reports whether k is a `$`-prefixed operator name.
// isOperatorObject applies it to every key of an object to distinguish
// a matcher object (spec.md §4.3: "every $op: arg entry must hold")
// from a nested recursive condition.
func isOperatorKey(k string) bool {
	return len(k) > 0 && k[0] == '$'
}
