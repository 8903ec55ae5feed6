package expr

import "fmt"

// ErrNoCommonType is returned by CommonType when two types do not share
// a position in the join lattice (e.g. a character string and a bit
// string).
type ErrNoCommonType struct {
	A, B Type
}

func (e *ErrNoCommonType) Error() string {
	return fmt.Sprintf("%s and %s have no common type", e.A, e.B)
}

// CommonType computes the least upper bound of a and b in the 16-type
// primitive lattice (spec.md §4.5): an idempotent, commutative and
// associative join with NULL/NA absorbing and MAYBE as identity.
//
// The table here is the source of truth and is reproduced verbatim from
// the lattice described in spec.md: DATETIME dominates TIMESTAMP
// dominates DATE; VARCHAR+CHAR -> VARCHAR; numeric+numeric follows
// SMALLINT < INTEGER < BIGINT < NUMERIC < FLOAT < DOUBLE < MONETARY.
func CommonType(a, b Type) (Type, error) {
	if a == b {
		return a, nil
	}
	// MAYBE is identity wherever the counterparty is concrete.
	if a == MaybeType {
		return b, nil
	}
	if b == MaybeType {
		return a, nil
	}
	// NULL/NA absorb on every op except set union, which callers
	// implement with CommonTypeUnion instead of this function.
	if a == NullType || a == NAType {
		return a, nil
	}
	if b == NullType || b == NAType {
		return b, nil
	}

	if a.Numeric() && b.Numeric() {
		return joinRank(numericRank, a, b)
	}
	if a.Temporal() && b.Temporal() {
		if a == TimeType || b == TimeType {
			return NoneType, &ErrNoCommonType{a, b}
		}
		return joinRank(temporalRank, a, b)
	}
	if _, ok := stringRank[a]; ok {
		if _, ok2 := stringRank[b]; ok2 {
			return joinRank(stringRank, a, b)
		}
	}
	if _, ok := ncharRank[a]; ok {
		if _, ok2 := ncharRank[b]; ok2 {
			return joinRank(ncharRank, a, b)
		}
	}
	if _, ok := bitRank[a]; ok {
		if _, ok2 := bitRank[b]; ok2 {
			return joinRank(bitRank, a, b)
		}
	}
	if a == LogicalType && b == LogicalType {
		return LogicalType, nil
	}
	return NoneType, &ErrNoCommonType{a, b}
}

func joinRank(rank map[Type]int, a, b Type) (Type, error) {
	ra, oka := rank[a]
	rb, okb := rank[b]
	if !oka || !okb {
		return NoneType, &ErrNoCommonType{a, b}
	}
	if ra >= rb {
		return a, nil
	}
	return b, nil
}

// CommonTypeUnion is CommonType's counterpart for SET/MULTISET union,
// where NULL is the identity element rather than absorbing (spec.md
// §4.5: "NULL absorbs on most ops but NOT on set union for collection
// types").
func CommonTypeUnion(a, b Type) (Type, error) {
	if a == NullType || a == NAType {
		return b, nil
	}
	if b == NullType || b == NAType {
		return a, nil
	}
	return CommonType(a, b)
}

// NumericFormula computes the propagated precision/scale of a NUMERIC(p,s)
// result for the additive operators, following spec.md §4.5:
//
//	dec  = max(s1, s2)
//	prec = dec + max(p1-s1, p2-s2) + 1
//
// capped at maxNumericPrecision.
func NumericFormula(p1, s1, p2, s2 int) (prec, scale int) {
	scale = max(s1, s2)
	prec = scale + max(p1-s1, p2-s2) + 1
	if prec > maxNumericPrecision {
		prec = maxNumericPrecision
	}
	return prec, scale
}

// MultiplyFormula computes the propagated precision/scale for the
// multiplicative operator: scale = s1+s2, precision = p1+p2, capped.
func MultiplyFormula(p1, s1, p2, s2 int) (prec, scale int) {
	scale = s1 + s2
	prec = p1 + p2
	if prec > maxNumericPrecision {
		prec = maxNumericPrecision
	}
	if scale > prec {
		scale = prec
	}
	return prec, scale
}

const maxNumericPrecision = 38

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
