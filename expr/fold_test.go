package expr

import (
	"math/big"
	"testing"
)

func bigRat(num, den int64) *big.Rat { return big.NewRat(num, den) }

func checkOK(t *testing.T, n Node) Node {
	t.Helper()
	out, _, err := Check(n, NoHint, DefaultOptions())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	return out
}

// identHint resolves any Ident to the given domain; used by tests that
// need a symbolic (un-foldable) operand of a known type.
func identHint(d Domain) Hint {
	return HintFn(func(*Ident) (Domain, bool) { return d, true })
}

func TestFoldArithmeticConstant(t *testing.T) {
	n := &Arithmetic{Op: AddOp, Left: IntLit(2), Right: IntLit(3)}
	out := checkOK(t, n)
	lit, ok := out.(*Literal)
	if !ok {
		t.Fatalf("expected folded literal, got %T", out)
	}
	if lit.Int != 5 {
		t.Errorf("2+3 folded to %d; want 5", lit.Int)
	}
}

func TestFoldArithmeticWithinSameWidthDoesNotOverflow(t *testing.T) {
	n := &Arithmetic{Op: AddOp, Left: IntLit(smallintMax - 1), Right: IntLit(1)}
	out := checkOK(t, n)
	lit, ok := out.(*Literal)
	if !ok || lit.Int != smallintMax {
		t.Fatalf("expected folded SMALLINT literal %d, got %#v", smallintMax, out)
	}
}

func TestFoldArithmeticSameWidthOverflowErrors(t *testing.T) {
	// Both operands are SMALLINT, so the common type stays SMALLINT;
	// the sum exceeds the SMALLINT range even though int64 addition
	// does not overflow, which the width-level overflow check catches.
	n := &Arithmetic{Op: AddOp, Left: IntLit(smallintMax), Right: IntLit(1)}
	_, _, err := Check(n, NoHint, DefaultOptions())
	if err == nil {
		t.Fatal("expected an overflow error for a SMALLINT sum outside SMALLINT range")
	}
	if _, ok := err.(*OverflowError); !ok {
		t.Fatalf("wrong error type: %T", err)
	}
}

func TestFoldArithmeticIntegerOverflowErrors(t *testing.T) {
	// Two BIGINT-range literals whose sum overflows int64 addition.
	big1 := IntLit(9223372036854775807) // math.MaxInt64, already BIGINT-typed
	big2 := IntLit(1)
	big2.SetType(Domain{Type: BigintType})
	n := &Arithmetic{Op: AddOp, Left: big1, Right: big2}
	n.SetType(Domain{Type: BigintType})
	c := &checker{hint: NoHint, opts: DefaultOptions()}
	out := foldArithmetic(n, c)
	if len(c.errors) == 0 {
		t.Fatal("expected an overflow error")
	}
	if _, ok := out.(*Arithmetic); !ok {
		t.Fatalf("node failing to fold must stay symbolic, got %T", out)
	}
}

func TestFoldDivisionByZero(t *testing.T) {
	n := &Arithmetic{Op: DivOp, Left: IntLit(1), Right: IntLit(0)}
	_, _, err := Check(n, NoHint, DefaultOptions())
	if err == nil {
		t.Fatal("expected division-by-zero error")
	}
	if _, ok := err.(*OverflowError); !ok {
		t.Fatalf("wrong error type: %T", err)
	}
}

func TestFoldComparisonConstant(t *testing.T) {
	n := &Comparison{Op: Less, Left: IntLit(1), Right: IntLit(2)}
	out := checkOK(t, n)
	lit := out.(*Literal)
	if !lit.Bool {
		t.Error("1 < 2 should fold to TRUE")
	}
}

func TestFoldComparisonNullYieldsNull(t *testing.T) {
	n := &Comparison{Op: Equals, Left: NullLit(), Right: IntLit(1)}
	out := checkOK(t, n)
	lit := out.(*Literal)
	if !lit.IsNull {
		t.Error("comparison against NULL should fold to NULL, not a boolean")
	}
}

func TestFoldLogicalShortCircuit(t *testing.T) {
	// FALSE AND <col> -> FALSE even though <col> cannot be folded.
	sym := &Ident{Name: "x"}
	n := &Logical{Op: AndOp, Left: BoolLit(false), Right: sym}
	out, _, err := Check(n, identHint(Domain{Type: LogicalType}), DefaultOptions())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	lit, ok := out.(*Literal)
	if !ok || lit.Bool {
		t.Fatalf("FALSE AND x should short-circuit to FALSE, got %#v", out)
	}
}

func TestFoldLogicalThreeValued(t *testing.T) {
	n := &Logical{Op: AndOp, Left: BoolLit(true), Right: NullLit()}
	out := checkOK(t, n)
	lit := out.(*Literal)
	if !lit.IsNull {
		t.Error("TRUE AND NULL should fold to NULL")
	}
}

func TestFoldNot(t *testing.T) {
	n := &Not{Operand: BoolLit(false)}
	out := checkOK(t, n)
	lit := out.(*Literal)
	if !lit.Bool {
		t.Error("NOT FALSE should fold to TRUE")
	}
}

func TestFoldBetweenLiteralEndpointsEqual(t *testing.T) {
	// BETWEEN 5 AND 5 with a symbolic Expr collapses to an equality,
	// not a full fold, since Expr itself is not constant.
	sym := &Ident{Name: "x"}
	b := &Between{Expr: sym, Low: IntLit(5), High: IntLit(5)}
	out, _, err := Check(b, identHint(Domain{Type: IntegerType}), DefaultOptions())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	cmp, ok := out.(*Comparison)
	if !ok {
		t.Fatalf("expected collapse to Comparison, got %T", out)
	}
	if cmp.Op != Equals {
		t.Errorf("collapsed op = %v; want Equals", cmp.Op)
	}
}

func TestFoldBetweenAllLiteral(t *testing.T) {
	b := &Between{Expr: IntLit(5), Low: IntLit(1), High: IntLit(10)}
	out := checkOK(t, b)
	lit := out.(*Literal)
	if !lit.Bool {
		t.Error("5 BETWEEN 1 AND 10 should fold to TRUE")
	}
}

func TestFoldBetweenNegated(t *testing.T) {
	b := &Between{Expr: IntLit(50), Low: IntLit(1), High: IntLit(10), Negated: true}
	out := checkOK(t, b)
	lit := out.(*Literal)
	if !lit.Bool {
		t.Error("50 NOT BETWEEN 1 AND 10 should fold to TRUE")
	}
}

func TestFoldCaseSearchedChoosesArm(t *testing.T) {
	cs := &Case{
		Kind: CaseSearched,
		Limbs: []CaseLimb{
			{When: BoolLit(false), Then: IntLit(1)},
			{When: BoolLit(true), Then: IntLit(2)},
		},
		Else: IntLit(3),
	}
	out := checkOK(t, cs)
	lit := out.(*Literal)
	if lit.Int != 2 {
		t.Errorf("CASE should choose the first true arm's value 2, got %d", lit.Int)
	}
}

func TestFoldCaseFallsThroughToElse(t *testing.T) {
	cs := &Case{
		Kind:  CaseSearched,
		Limbs: []CaseLimb{{When: BoolLit(false), Then: IntLit(1)}},
		Else:  IntLit(9),
	}
	out := checkOK(t, cs)
	lit := out.(*Literal)
	if lit.Int != 9 {
		t.Errorf("CASE with no matching arm should fold to ELSE value 9, got %d", lit.Int)
	}
}

func TestFoldCast(t *testing.T) {
	n := &Cast{From: IntLit(42), To: Domain{Type: BigintType}}
	out := checkOK(t, n)
	lit, ok := out.(*Literal)
	if !ok {
		t.Fatalf("expected folded literal, got %T", out)
	}
	if lit.Resolved.Type != BigintType || lit.Int != 42 {
		t.Errorf("cast result = %+v; want BIGINT 42", lit)
	}
}

func TestFoldCastOverflowKeepsCastSymbolic(t *testing.T) {
	n := &Cast{From: IntLit(1 << 20), To: Domain{Type: SmallintType}}
	_, _, err := Check(n, NoHint, DefaultOptions())
	if err == nil {
		t.Fatal("casting an out-of-range value to SMALLINT should error")
	}
}

func TestFoldCallRound(t *testing.T) {
	lit := &Literal{Rat: bigRat(3, 2)}
	lit.SetType(Domain{Type: NumericType, Prec: 10, Scale: 2})
	n := &Call{Name: "ROUND", Args: []Node{lit}}
	out := checkOK(t, n)
	res, ok := out.(*Literal)
	if !ok {
		t.Fatalf("expected folded literal, got %T", out)
	}
	if res.Rat.Cmp(bigRat(2, 1)) != 0 {
		t.Errorf("ROUND(1.5) = %s; want 2", res.Rat.RatString())
	}
}

func TestFoldCallSubstring(t *testing.T) {
	n := &Call{Name: "SUBSTRING", Args: []Node{StringLit("hello world"), IntLit(1), IntLit(5)}}
	out := checkOK(t, n)
	res := out.(*Literal)
	if res.Str != "hello" {
		t.Errorf("SUBSTRING result = %q; want %q", res.Str, "hello")
	}
}

func TestHostVarMaybeDisablesFolding(t *testing.T) {
	hv := &HostVar{Index: 1}
	n := &Arithmetic{Op: AddOp, Left: hv, Right: IntLit(1)}
	out, hostVars, err := Check(n, NoHint, DefaultOptions())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if _, ok := out.(*Arithmetic); !ok {
		t.Fatalf("expression with an unbound host var must stay symbolic, got %T", out)
	}
	if len(hostVars) != 1 || hostVars[0].Index != 1 {
		t.Fatalf("expected one recorded host var, got %v", hostVars)
	}
}
