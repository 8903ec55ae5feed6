package expr

import "math/big"

// fold.go implements the constant-fold half of the checker.Rewrite
// bottom-up pass (spec.md §4.5 step 3): once an operator's operands are
// all Literal and none of them is MAYBE, the operator is replaced by its
// computed value. A MAYBE operand disables folding for that node without
// poisoning the result type already assigned by the check* methods; any
// error a fold step hits (overflow, division by zero, truncation) is
// recorded through adderror and the node is left symbolic so the caller
// still sees the assigned type.

func allLiteral(ns ...Node) ([]*Literal, bool) {
	lits := make([]*Literal, len(ns))
	for i, n := range ns {
		l, ok := n.(*Literal)
		if !ok {
			return nil, false
		}
		lits[i] = l
	}
	return lits, true
}

func anyMaybe(ns ...Node) bool {
	for _, n := range ns {
		if t, ok := n.(Typed); ok && t.Type().Type == MaybeType {
			return true
		}
	}
	return false
}

func anyNull(lits ...*Literal) bool {
	for _, l := range lits {
		if l.IsNull {
			return true
		}
	}
	return false
}

func foldUnary(u *Unary, c *checker) Node {
	if anyMaybe(u.Operand) {
		return u
	}
	lits, ok := allLiteral(u.Operand)
	if !ok {
		return u
	}
	if anyNull(lits...) {
		n := NullLit()
		n.SetType(u.Resolved)
		return n
	}
	r := literalRat(lits[0])
	if u.Op == Neg {
		r = new(big.Rat).Neg(r)
	}
	out := ratLiteral(r, u.Resolved)
	if u.Resolved.Type.Numeric() && out.Rat == nil && u.Resolved.Type != FloatType && u.Resolved.Type != DoubleType {
		if !fitsWidth(out.Int, u.Resolved.Type) {
			c.adderror(erroverflow(u, "unary result does not fit "+u.Resolved.String()))
			return u
		}
	}
	return out
}

func foldArithmetic(a *Arithmetic, c *checker) Node {
	if anyMaybe(a.Left, a.Right) {
		return a
	}
	lits, ok := allLiteral(a.Left, a.Right)
	if !ok {
		return a
	}
	if anyNull(lits...) {
		n := NullLit()
		n.SetType(a.Resolved)
		return n
	}
	left, right := lits[0], lits[1]

	// Integer-width arithmetic is checked with the sign-based overflow
	// predicates before the exact big.Rat computation is even
	// performed, per spec.md §4.5; the predicates only apply when both
	// operands are plain integers (not NUMERIC/FLOAT).
	if isPlainInt(left) && isPlainInt(right) && a.Resolved.Type != NumericType &&
		a.Resolved.Type != FloatType && a.Resolved.Type != DoubleType && a.Resolved.Type != MonetaryType {
		switch a.Op {
		case AddOp:
			if addOverflows(left.Int, right.Int) {
				c.adderror(erroverflow(a, "integer addition overflows"))
				return a
			}
		case SubOp:
			if subOverflows(left.Int, right.Int) {
				c.adderror(erroverflow(a, "integer subtraction overflows"))
				return a
			}
		case MulOp:
			if mulOverflows(left.Int, right.Int) {
				c.adderror(erroverflow(a, "integer multiplication overflows"))
				return a
			}
		}
	}

	lr, rr := literalRat(left), literalRat(right)
	var result *big.Rat
	switch a.Op {
	case AddOp:
		result = new(big.Rat).Add(lr, rr)
	case SubOp:
		result = new(big.Rat).Sub(lr, rr)
	case MulOp:
		result = new(big.Rat).Mul(lr, rr)
	case DivOp:
		if rr.Sign() == 0 {
			c.adderror(erroverflow(a, "division by zero"))
			return a
		}
		result = new(big.Rat).Quo(lr, rr)
	case ModOp:
		if rr.Sign() == 0 {
			c.adderror(erroverflow(a, "division by zero"))
			return a
		}
		result = modulusRational(lr, rr)
	}

	out := ratLiteral(result, a.Resolved)
	if a.Resolved.Type.Numeric() && out.Rat == nil && a.Resolved.Type != FloatType && a.Resolved.Type != DoubleType {
		if !fitsWidth(out.Int, a.Resolved.Type) {
			c.adderror(erroverflow(a, "arithmetic result does not fit "+a.Resolved.String()))
			return a
		}
	}
	return out
}

func isPlainInt(l *Literal) bool {
	return l.Rat == nil && !l.IsNull && (l.Resolved.Type == SmallintType || l.Resolved.Type == IntegerType || l.Resolved.Type == BigintType)
}

func foldComparison(cmp *Comparison, c *checker) Node {
	if anyMaybe(cmp.Left, cmp.Right) {
		return shortCircuitRange(cmp)
	}
	lits, ok := allLiteral(cmp.Left, cmp.Right)
	if !ok {
		return cmp
	}
	if anyNull(lits...) {
		n := NullLit()
		n.SetType(Domain{Type: LogicalType})
		return n
	}
	result, ok := evalCompare(cmp.Op, lits[0], lits[1])
	if !ok {
		return cmp
	}
	return BoolLit(result)
}

// shortCircuitRange implements the out-of-range literal comparison
// short-circuit (spec.md §4.5): when one side is a MAYBE host variable
// bound to an integer domain and the other is a literal outside that
// domain's range, the comparison can already be decided without knowing
// the host variable's eventual value, for the handful of operators where
// that is sound (a literal too large for the domain makes `col < lit`
// trivially true and `col > lit` trivially false, etc). Folding is only
// safe for strict ordering against a value outside the representable
// range; anything else is left symbolic.
func shortCircuitRange(cmp *Comparison) Node {
	hv, lit, flipped := hostVarLiteralPair(cmp.Left, cmp.Right)
	if hv == nil || lit == nil || lit.IsNull || lit.Rat != nil {
		return cmp
	}
	dom := hv.Type()
	if !dom.Type.Numeric() || dom.Type == FloatType || dom.Type == DoubleType {
		return cmp
	}
	if fitsWidth(lit.Int, dom.Type) {
		return cmp
	}
	op := cmp.Op
	if flipped {
		op = flipOp(op)
	}
	below := lit.Int < 0
	switch op {
	case Less, LessEquals:
		return BoolLit(!below)
	case Greater, GreaterEquals:
		return BoolLit(below)
	case Equals:
		return BoolLit(false)
	case NotEquals:
		return BoolLit(true)
	}
	return cmp
}

func hostVarLiteralPair(l, r Node) (hv Typed, lit *Literal, flipped bool) {
	if h, ok := l.(*HostVar); ok {
		if lt, ok := r.(*Literal); ok {
			return h, lt, false
		}
	}
	if h, ok := r.(*HostVar); ok {
		if lt, ok := l.(*Literal); ok {
			return h, lt, true
		}
	}
	return nil, nil, false
}

func flipOp(op CmpOp) CmpOp {
	switch op {
	case Less:
		return Greater
	case LessEquals:
		return GreaterEquals
	case Greater:
		return Less
	case GreaterEquals:
		return LessEquals
	default:
		return op
	}
}

func evalCompare(op CmpOp, a, b *Literal) (bool, bool) {
	switch {
	case a.Resolved.Type.Numeric() && b.Resolved.Type.Numeric():
		c := literalRat(a).Cmp(literalRat(b))
		return compareOrdinal(op, c), true
	case a.Resolved.Type.StringLike() && b.Resolved.Type.StringLike():
		switch op {
		case Equals:
			return a.Str == b.Str, true
		case NotEquals:
			return a.Str != b.Str, true
		default:
			c := 0
			switch {
			case a.Str < b.Str:
				c = -1
			case a.Str > b.Str:
				c = 1
			}
			return compareOrdinal(op, c), true
		}
	case a.Resolved.Type == LogicalType && b.Resolved.Type == LogicalType:
		switch op {
		case Equals:
			return a.Bool == b.Bool, true
		case NotEquals:
			return a.Bool != b.Bool, true
		}
	}
	return false, false
}

func compareOrdinal(op CmpOp, c int) bool {
	switch op {
	case Equals:
		return c == 0
	case NotEquals:
		return c != 0
	case Less:
		return c < 0
	case LessEquals:
		return c <= 0
	case Greater:
		return c > 0
	case GreaterEquals:
		return c >= 0
	}
	return false
}

// foldLogical implements SQL three-valued AND/OR/XOR, short-circuited on
// a constant operand even when the other side is still symbolic (spec.md
// §4.5): FALSE AND x -> FALSE, TRUE OR x -> TRUE, regardless of x.
func foldLogical(l *Logical, c *checker) Node {
	lb, lok := constBool(l.Left)
	rb, rok := constBool(l.Right)

	switch l.Op {
	case AndOp:
		if lok && lb.valid && !lb.val {
			return BoolLit(false)
		}
		if rok && rb.valid && !rb.val {
			return BoolLit(false)
		}
	case OrOp:
		if lok && lb.valid && lb.val {
			return BoolLit(true)
		}
		if rok && rb.valid && rb.val {
			return BoolLit(true)
		}
	}

	if !lok || !rok {
		return l
	}
	if !lb.valid || !rb.valid {
		n := NullLit()
		n.SetType(Domain{Type: LogicalType})
		return n
	}
	switch l.Op {
	case AndOp:
		return BoolLit(lb.val && rb.val)
	case OrOp:
		return BoolLit(lb.val || rb.val)
	case XorOp:
		return BoolLit(lb.val != rb.val)
	}
	return l
}

// tvl is a three-valued-logic result: valid=false represents NULL.
type tvl struct {
	val   bool
	valid bool
}

func constBool(n Node) (tvl, bool) {
	l, ok := n.(*Literal)
	if !ok {
		return tvl{}, false
	}
	if l.IsNull {
		return tvl{valid: false}, true
	}
	return tvl{val: l.Bool, valid: true}, true
}

func foldNot(n *Not, c *checker) Node {
	b, ok := constBool(n.Operand)
	if !ok {
		return n
	}
	if !b.valid {
		out := NullLit()
		out.SetType(Domain{Type: LogicalType})
		return out
	}
	return BoolLit(!b.val)
}

// foldBetween first applies the literal-endpoint-collapse simplification
// of spec.md §4.5 (Low == High literally collapses BETWEEN into an
// equality test, independent of whether Expr itself is constant), and
// only then attempts full constant folding when Expr is also literal.
func foldBetween(b *Between, c *checker) Node {
	if lo, ok := b.Low.(*Literal); ok {
		if hi, ok := b.High.(*Literal); ok && !lo.IsNull && !hi.IsNull {
			if eq, ok := evalCompare(Equals, lo, hi); ok && eq {
				op := Equals
				if b.Negated {
					op = NotEquals
				}
				cmp := &Comparison{Op: op, Left: b.Expr, Right: lo}
				cmp.SetType(Domain{Type: LogicalType})
				return foldComparison(cmp, c)
			}
		}
	}

	if anyMaybe(b.Expr, b.Low, b.High) {
		return b
	}
	lits, ok := allLiteral(b.Expr, b.Low, b.High)
	if !ok {
		return b
	}
	if anyNull(lits...) {
		n := NullLit()
		n.SetType(Domain{Type: LogicalType})
		return n
	}
	ge, ok1 := evalCompare(GreaterEquals, lits[0], lits[1])
	le, ok2 := evalCompare(LessEquals, lits[0], lits[2])
	if !ok1 || !ok2 {
		return b
	}
	in := ge && le
	if b.Negated {
		in = !in
	}
	return BoolLit(in)
}

// foldCase reduces CASE/DECODE/IF to its chosen arm once the selector
// (the WHEN condition, or for simple-CASE the Operand = When equality)
// is constant, discarding the untaken arms; when the arms' types differ
// an implicit CAST was already inserted by checkCase so the chosen value
// always carries the node's assigned type.
func foldCase(cs *Case, c *checker) Node {
	for _, limb := range cs.Limbs {
		when := limb.When
		if cs.Kind == CaseSimple {
			eq := &Comparison{Op: Equals, Left: cs.Operand, Right: limb.When}
			eq.SetType(Domain{Type: LogicalType})
			when = foldComparison(eq, c)
		}
		b, ok := constBool(when)
		if !ok {
			return cs
		}
		if b.valid && b.val {
			return limb.Then
		}
		if !b.valid {
			continue // NULL selector: this limb never fires, but folding continues
		}
	}
	if cs.Else != nil {
		return cs.Else
	}
	n := NullLit()
	n.SetType(cs.Resolved)
	return n
}

func foldCast(cast *Cast, c *checker) Node {
	src, ok := cast.From.(*Literal)
	if !ok {
		return cast
	}
	if t, ok := cast.From.(Typed); ok && t.Type().Type == MaybeType {
		return cast
	}
	dst := &Literal{}
	out, err := CoerceValue(src, cast.To, dst, c.opts.HostVarLateBinding)
	if err != nil {
		c.adderror(err)
		return cast
	}
	out.Text = out.printed()
	return out
}

func foldCall(call *Call, info *binfo, c *checker) Node {
	if info.fold == nil {
		return call
	}
	if anyMaybe(call.Args...) {
		return call
	}
	lits, ok := allLiteral(call.Args...)
	if !ok {
		return call
	}
	for _, l := range lits {
		if l.IsNull {
			n := NullLit()
			n.SetType(call.Resolved)
			return n
		}
	}
	out, err := info.fold(lits)
	if err != nil {
		c.adderror(err)
		return call
	}
	out.SetType(call.Resolved)
	out.Text = out.printed()
	return out
}
