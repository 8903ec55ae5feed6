package expr

// BetweenForm names one of the four canonical BETWEEN_GE_LE-family
// shapes spec.md §4.5 refers to: `{(GE,LE,GE_LE), (GE,LT,GE_LT), …}`.
type BetweenForm int

const (
	FormGELE BetweenForm = iota // low <= expr <= high
	FormGELT                    // low <= expr <  high
	FormGTLE                    // low <  expr <= high
	FormGTLT                    // low <  expr <  high
)

var betweenFormTable = map[[2]CmpOp]BetweenForm{
	{GreaterEquals, LessEquals}: FormGELE,
	{GreaterEquals, Less}:       FormGELT,
	{Greater, LessEquals}:       FormGTLE,
	{Greater, Less}:             FormGTLT,
}

var betweenFormOps = map[BetweenForm][2]CmpOp{
	FormGELE: {GreaterEquals, LessEquals},
	FormGELT: {GreaterEquals, Less},
	FormGTLE: {Greater, LessEquals},
	FormGTLT: {Greater, Less},
}

// CompToBetween recognizes `expr loOp low AND expr hiOp high` as one of
// the four canonical forms, returning ok=false if the pair of operators
// does not correspond to a BETWEEN shape at all.
func CompToBetween(loOp, hiOp CmpOp) (form BetweenForm, ok bool) {
	form, ok = betweenFormTable[[2]CmpOp{loOp, hiOp}]
	return form, ok
}

// BetweenToComp is the exact inverse of CompToBetween: it returns the
// pair of comparison operators that the canonical form expands to, so
// that CompToBetween(BetweenToComp(f)) == f for every BetweenForm f
// (spec.md §4.5: "its inverse between_to_comp must be exact").
func BetweenToComp(form BetweenForm) (loOp, hiOp CmpOp) {
	ops := betweenFormOps[form]
	return ops[0], ops[1]
}

// expandBetween rewrites a Between node into the pair of Comparison
// nodes joined by AND (or, for NOT BETWEEN, the De Morgan OR-of-negated
// form), using the canonical GE_LE shape.
func expandBetween(b *Between) Node {
	loOp, hiOp := BetweenToComp(FormGELE)
	lo := &Comparison{Op: loOp, Left: b.Expr, Right: b.Low}
	lo.SetType(Domain{Type: LogicalType})
	hi := &Comparison{Op: hiOp, Left: b.Expr, Right: b.High}
	hi.SetType(Domain{Type: LogicalType})
	if !b.Negated {
		l := &Logical{Op: AndOp, Left: lo, Right: hi}
		l.SetType(Domain{Type: LogicalType})
		return l
	}
	notLo := &Comparison{Op: Less, Left: b.Expr, Right: b.Low}
	notLo.SetType(Domain{Type: LogicalType})
	notHi := &Comparison{Op: Greater, Left: b.Expr, Right: b.High}
	notHi.SetType(Domain{Type: LogicalType})
	l := &Logical{Op: OrOp, Left: notLo, Right: notHi}
	l.SetType(Domain{Type: LogicalType})
	return l
}
