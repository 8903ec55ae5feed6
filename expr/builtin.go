package expr

import (
	"math/big"
)

// binfo is one row of the builtin operator table. This is the
// table-driven evaluator called for in spec.md §9 as a replacement for
// the original monolithic pt_evaluate_db_value_expr/pt_fold_const_expr:
// each operator carries {arity, input-domain predicate, result-type
// formula, fold kernel} and the kernels share the small value-arithmetic
// library in coerce.go/math.go. A row has no overflow predicate of its
// own; overflow is detected inside the kernels and, for the arithmetic
// operators, by foldArithmetic.
type binfo struct {
	minArgs, maxArgs int

	// check validates argument types; it is the "input-domain
	// predicate" of spec.md §9.
	check func(args []Node) error

	// result computes the result domain; this is the "result-type
	// formula", evaluated per-call so it can be asymmetric (the
	// result need not share a type with any argument -- spec.md
	// §4.5 calls out SUBSTRING, CAST, DATE_ADD, IF as asymmetric).
	result func(args []Node) (Domain, error)

	// fold evaluates the operator when every argument is a constant
	// Literal; returning (nil, nil) means "not foldable" (e.g. the
	// operator is deliberately excluded from folding), as opposed to
	// returning an error.
	fold func(args []*Literal) (*Literal, error)
}

var builtinTable map[string]*binfo

func init() {
	builtinTable = map[string]*binfo{
		"ABS":         {minArgs: 1, maxArgs: 1, check: fixedNumeric(1), result: sameAsArg(0), fold: foldRound(roundIdentity)},
		"SIGN":        {minArgs: 1, maxArgs: 1, check: fixedNumeric(1), result: constDomain(Domain{Type: IntegerType}), fold: foldSign},
		"ROUND":       {minArgs: 1, maxArgs: 1, check: fixedNumeric(1), result: sameAsArg(0), fold: foldRound(roundNearest)},
		"ROUND_EVEN":  {minArgs: 1, maxArgs: 1, check: fixedNumeric(1), result: sameAsArg(0), fold: foldRound(roundEven)},
		"TRUNC":       {minArgs: 1, maxArgs: 1, check: fixedNumeric(1), result: sameAsArg(0), fold: foldRound(roundTrunc)},
		"FLOOR":       {minArgs: 1, maxArgs: 1, check: fixedNumeric(1), result: sameAsArg(0), fold: foldRound(roundFloor)},
		"CEIL":        {minArgs: 1, maxArgs: 1, check: fixedNumeric(1), result: sameAsArg(0), fold: foldRound(roundCeil)},
		"CHAR_LENGTH": {minArgs: 1, maxArgs: 1, check: fixedString(1), result: constDomain(Domain{Type: IntegerType}), fold: foldCharLength},

		// SUBSTRING(str, start[, length]) -> VARCHAR: an asymmetric
		// operator (spec.md §4.5) because its result type does not
		// follow from a common-type join of its arguments.
		"SUBSTRING": {minArgs: 2, maxArgs: 3, check: checkSubstring, result: substringResult, fold: foldSubstring},

		// DATE_ADD(date, n) -> same temporal type as the first
		// argument: another named asymmetric operator.
		"DATE_ADD": {minArgs: 2, maxArgs: 2, check: checkDateAdd, result: sameAsArg(0), fold: nil},
	}
}

func fixedNumeric(n int) func([]Node) error {
	return func(args []Node) error {
		if len(args) != n {
			return errsyntaxf("got %d args; need %d", len(args), n)
		}
		for _, a := range args {
			t, ok := a.(Typed)
			if !ok || !t.Type().Type.Numeric() {
				return errtypef(a, "argument is not numeric")
			}
		}
		return nil
	}
}

func fixedString(n int) func([]Node) error {
	return func(args []Node) error {
		if len(args) != n {
			return errsyntaxf("got %d args; need %d", len(args), n)
		}
		for _, a := range args {
			t, ok := a.(Typed)
			if !ok || !t.Type().Type.StringLike() {
				return errtypef(a, "argument is not a string")
			}
		}
		return nil
	}
}

func sameAsArg(i int) func([]Node) (Domain, error) {
	return func(args []Node) (Domain, error) {
		t := args[i].(Typed)
		return t.Type(), nil
	}
}

func constDomain(d Domain) func([]Node) (Domain, error) {
	return func([]Node) (Domain, error) { return d, nil }
}

func checkSubstring(args []Node) error {
	if len(args) < 2 || len(args) > 3 {
		return errsyntaxf("SUBSTRING takes 2 or 3 args, got %d", len(args))
	}
	if t, ok := args[0].(Typed); !ok || !t.Type().Type.StringLike() {
		return errtypef(args[0], "SUBSTRING source must be a string")
	}
	for _, a := range args[1:] {
		if t, ok := a.(Typed); !ok || !t.Type().Type.Numeric() {
			return errtypef(a, "SUBSTRING bounds must be numeric")
		}
	}
	return nil
}

func substringResult(args []Node) (Domain, error) {
	from := args[0].(Typed).Type()
	return Domain{Type: VarcharType, Length: from.Length}, nil
}

func foldSubstring(args []*Literal) (*Literal, error) {
	s := args[0].Str
	start, err := ratToInt(args[1])
	if err != nil {
		return nil, err
	}
	// CUBRID/SQL SUBSTRING positions are 1-based.
	idx := start - 1
	if idx < 0 {
		idx = 0
	}
	if idx > int64(len(s)) {
		idx = int64(len(s))
	}
	end := int64(len(s))
	if len(args) == 3 {
		length, err := ratToInt(args[2])
		if err != nil {
			return nil, err
		}
		if length < 0 {
			return nil, erroverflow(nil, "negative SUBSTRING length")
		}
		if idx+length < end {
			end = idx + length
		}
	}
	if idx > end {
		idx = end
	}
	return StringLit(s[idx:end]), nil
}

func checkDateAdd(args []Node) error {
	if len(args) != 2 {
		return errsyntaxf("DATE_ADD takes 2 args, got %d", len(args))
	}
	if t, ok := args[0].(Typed); !ok || !t.Type().Type.Temporal() {
		return errtypef(args[0], "DATE_ADD target must be a temporal value")
	}
	if t, ok := args[1].(Typed); !ok || !t.Type().Type.Numeric() {
		return errtypef(args[1], "DATE_ADD offset must be numeric")
	}
	return nil
}

func ratToInt(l *Literal) (int64, error) {
	if l.Rat != nil {
		if !l.Rat.IsInt() {
			return 0, erroverflow(nil, "expected integral value")
		}
		return l.Rat.Num().Int64(), nil
	}
	return l.Int, nil
}

func foldCharLength(args []*Literal) (*Literal, error) {
	return IntLit(int64(len([]rune(args[0].Str)))), nil
}

type roundOp int

const (
	roundIdentity roundOp = iota
	roundNearest
	roundEven
	roundTrunc
	roundFloor
	roundCeil
)

// roundBigRat implements ROUND/ROUND_EVEN/TRUNC/FLOOR/CEIL on an exact
// rational, adapted from the teacher's expr/simplify.go roundBigRat.
func roundBigRat(value *big.Rat, op roundOp) *big.Rat {
	one := big.NewInt(1)
	denom := value.Denom()
	if denom.Cmp(one) <= 0 {
		return value
	}
	halfDenom := new(big.Int).Div(denom, big.NewInt(2))
	p, q := new(big.Int).DivMod(value.Num(), denom, new(big.Int))

	switch op {
	case roundNearest:
		if q.Cmp(halfDenom) >= 0 {
			p.Add(p, one)
		}
	case roundEven:
		switch q.Cmp(halfDenom) {
		case 1:
			p.Add(p, one)
		case 0:
			odd := new(big.Int).Abs(p)
			odd.And(odd, one)
			if odd.Cmp(one) == 0 {
				p.Add(p, one)
			}
		}
	case roundTrunc:
		if q.Cmp(one) >= 0 && value.Num().Sign() < 0 {
			p.Add(p, one)
		}
	case roundFloor:
		// DivMod already floors p.
	case roundCeil:
		if q.Cmp(one) >= 0 {
			p.Add(p, one)
		}
	}
	return new(big.Rat).SetFrac(p, one)
}

func foldRound(op roundOp) func([]*Literal) (*Literal, error) {
	return func(args []*Literal) (*Literal, error) {
		lit := args[0]
		r := literalRat(lit)
		if op == roundIdentity {
			r = new(big.Rat).Abs(r)
		} else {
			r = roundBigRat(r, op)
		}
		return ratLiteral(r, lit.Resolved), nil
	}
}

func foldSign(args []*Literal) (*Literal, error) {
	r := literalRat(args[0])
	return IntLit(int64(r.Sign())), nil
}

func literalRat(l *Literal) *big.Rat {
	switch {
	case l.Rat != nil:
		return new(big.Rat).Set(l.Rat)
	case l.Resolved.Type == FloatType || l.Resolved.Type == DoubleType:
		r := new(big.Rat).SetFloat64(l.Float)
		if r == nil {
			return new(big.Rat)
		}
		return r
	default:
		return big.NewRat(l.Int, 1)
	}
}

func ratLiteral(r *big.Rat, d Domain) *Literal {
	lit := &Literal{}
	switch d.Type {
	case FloatType, DoubleType:
		f, _ := r.Float64()
		lit.Float = f
	case NumericType, MonetaryType:
		lit.Rat = r
	default:
		if r.IsInt() {
			lit.Int = r.Num().Int64()
		}
	}
	lit.SetType(d)
	lit.Text = lit.printed()
	return lit
}
