package expr

import "fmt"

// Hint resolves the domain of a column reference; it is the only
// collaborator the type checker needs from the (non-goal) catalog
// layer (spec.md §1). Mirrors the teacher's expr.Hint.
type Hint interface {
	TypeOf(*Ident) (Domain, bool)
}

// HintFn adapts a function to Hint.
type HintFn func(*Ident) (Domain, bool)

func (f HintFn) TypeOf(i *Ident) (Domain, bool) { return f(i) }

// NoHint resolves no identifiers; every Ident fails to type-check.
var NoHint = HintFn(func(*Ident) (Domain, bool) { return Domain{}, false })

// Options carries the environment parameters spec.md §6 requires the
// checker/folder to honor, each with the default the core must apply
// when the parameter is absent.
type Options struct {
	// DefaultNumericDivScale is the scale assigned to the result of
	// NUMERIC/NUMERIC division when neither operand pins one down.
	// Default: 9 (the CUBRID/CUBRID-like default scale).
	DefaultNumericDivScale int

	// CompatMySQL is carried for callers but not read by Check or the
	// folding kernels: SUBSTRING always applies its 0-and-negative-index
	// clamping and subtraction behaves the same whatever its value.
	// Default: false.
	CompatMySQL bool

	// OracleStyleEmptyString is carried for callers but not read by
	// Check or the folding kernels; this package has no concatenation
	// operator for it to affect. Default: false.
	OracleStyleEmptyString bool

	// HostVarLateBinding, when true, allows Check to succeed on a
	// host variable whose value has not yet been supplied (the
	// CoerceValue early-return path, spec.md §9). Default: true,
	// since PREPARE must type-check a statement before any EXECUTE
	// has supplied host variable values.
	HostVarLateBinding bool
}

// DefaultOptions returns the environment defaults mandated by spec.md §6.
func DefaultOptions() Options {
	return Options{
		DefaultNumericDivScale: 9,
		CompatMySQL:            false,
		OracleStyleEmptyString: false,
		HostVarLateBinding:     true,
	}
}

// HostVarDomain records the expected domain bound to one positional
// host variable, discovered during Check (spec.md §4.5 step 4).
type HostVarDomain struct {
	Index    int
	Expected Domain
}

// checker performs the two-pass walk described in spec.md §4.5. It
// implements Rewriter so that Rewrite(checker, n) produces a new tree
// with every node's type assigned, implicit casts inserted and
// deterministic subtrees folded into Literal nodes.
type checker struct {
	hint     Hint
	opts     Options
	errors   []error
	hostVars []HostVarDomain
}

// Check type-checks and folds n, returning the rewritten tree. Errors
// accumulate across the whole walk (spec.md §7: "the type checker
// accumulates errors without aborting the walk; the caller checks
// has_error after the walk"); the returned error is nil when none were
// recorded, otherwise the first one, annotated with how many others
// followed it.
func Check(n Node, hint Hint, opts Options) (Node, []HostVarDomain, error) {
	if s, ok := n.(*Select); ok {
		RewriteLimit(s)
	}
	c := &checker{hint: hint, opts: opts}
	out := Rewrite(c, n)
	if len(c.errors) == 0 {
		return out, c.hostVars, nil
	}
	return out, c.hostVars, combineErrors(c.errors)
}

func combineErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	return fmt.Errorf("%w (and %d other errors)", errs[0], len(errs)-1)
}

func (c *checker) adderror(err error) {
	if err != nil {
		c.errors = append(c.errors, err)
	}
}

// Walk never stops descending; every node participates in both passes.
func (c *checker) Walk(Node) Rewriter { return c }

// Rewrite is called bottom-up (children already rewritten); it assigns
// this node's type and attempts to fold it.
func (c *checker) Rewrite(n Node) Node {
	switch t := n.(type) {
	case *Literal, nil:
		return n
	case *Ident:
		d, ok := c.hint.TypeOf(t)
		if !ok {
			c.adderror(errtypef(t, "unknown identifier %q", t.Name))
			d = Domain{Type: NoneType}
		}
		t.SetType(d)
		return t
	case *HostVar:
		// type remains MAYBE until EXECUTE supplies a value; the
		// expected domain, if any, is recorded afterwards by the
		// operator that consumes it, once that parent node is
		// rewritten (see checkArithmetic/checkComparison).
		if t.Resolved.Type == NoneType {
			t.SetType(Domain{Type: MaybeType})
		}
		return t
	case *Unary:
		return c.checkUnary(t)
	case *Arithmetic:
		return c.checkArithmetic(t)
	case *Comparison:
		return c.checkComparison(t)
	case *Logical:
		return c.checkLogical(t)
	case *Not:
		return c.checkNot(t)
	case *Between:
		return c.checkBetween(t)
	case *Case:
		return c.checkCase(t)
	case *Cast:
		return c.checkCast(t)
	case *Call:
		return c.checkCall(t)
	case *Select:
		return c.checkSelect(t)
	default:
		return n
	}
}

func (c *checker) recordHostVar(hv *HostVar, want Domain) {
	hv.SetType(want)
	c.hostVars = append(c.hostVars, HostVarDomain{Index: hv.Index, Expected: want})
}

func (c *checker) checkUnary(u *Unary) Node {
	dom := typeOf(u.Operand)
	if dom.Type == MaybeType {
		if hv, ok := u.Operand.(*HostVar); ok {
			c.recordHostVar(hv, Domain{Type: NumericType})
		}
	} else if !dom.Type.Numeric() {
		c.adderror(errtype(u, "argument is not numeric"))
	}
	u.SetType(dom)
	return foldUnary(u, c)
}

func (c *checker) checkArithmetic(a *Arithmetic) Node {
	lt := typeOf(a.Left)
	rt := typeOf(a.Right)

	if lt.Type == MaybeType {
		if hv, ok := a.Left.(*HostVar); ok {
			c.recordHostVar(hv, rt)
		}
		lt = rt
	}
	if rt.Type == MaybeType {
		if hv, ok := a.Right.(*HostVar); ok {
			c.recordHostVar(hv, lt)
		}
		rt = lt
	}

	if !lt.Type.Numeric() || !rt.Type.Numeric() {
		c.adderror(errtype(a, "arguments are not numeric"))
		a.SetType(Domain{Type: NoneType})
		return a
	}

	common, err := CommonType(lt.Type, rt.Type)
	if err != nil {
		c.adderror(errtype(a, err.Error()))
		a.SetType(Domain{Type: NoneType})
		return a
	}
	result := Domain{Type: common}
	if common == NumericType || common == MonetaryType {
		switch a.Op {
		case MulOp:
			result.Prec, result.Scale = MultiplyFormula(lt.Prec, lt.Scale, rt.Prec, rt.Scale)
		case DivOp:
			result.Scale = c.opts.DefaultNumericDivScale
			result.Prec = maxNumericPrecision
		default:
			result.Prec, result.Scale = NumericFormula(lt.Prec, lt.Scale, rt.Prec, rt.Scale)
		}
	}
	a.Left = InsertCast(a.Left, result)
	a.Right = InsertCast(a.Right, result)
	a.SetType(result)
	return foldArithmetic(a, c)
}

func (c *checker) checkComparison(cmp *Comparison) Node {
	lt := typeOf(cmp.Left)
	rt := typeOf(cmp.Right)

	if lt.Type == MaybeType {
		if hv, ok := cmp.Left.(*HostVar); ok {
			c.recordHostVar(hv, rt)
		}
		lt = rt
	}
	if rt.Type == MaybeType {
		if hv, ok := cmp.Right.(*HostVar); ok {
			c.recordHostVar(hv, lt)
		}
		rt = lt
	}

	if cmp.Op.Ordinal() {
		if !(lt.Type.Numeric() && rt.Type.Numeric()) &&
			!(lt.Type.Temporal() && rt.Type.Temporal()) &&
			!(lt.Type.StringLike() && rt.Type.StringLike()) &&
			lt.Type != rt.Type {
			c.adderror(errtype(cmp, "lhs and rhs of comparison are never comparable"))
		}
	} else if lt.Type != NullType && rt.Type != NullType {
		if _, err := CommonType(lt.Type, rt.Type); err != nil {
			c.adderror(errtype(cmp, "lhs and rhs of comparison are never comparable"))
		}
	}
	cmp.SetType(Domain{Type: LogicalType})
	return foldComparison(cmp, c)
}

func (c *checker) checkLogical(l *Logical) Node {
	if typeOf(l.Left).Type != LogicalType && typeOf(l.Left).Type != NullType {
		c.adderror(errtype(l, "left-hand-side not a logical expression"))
	}
	if typeOf(l.Right).Type != LogicalType && typeOf(l.Right).Type != NullType {
		c.adderror(errtype(l, "right-hand-side not a logical expression"))
	}
	l.SetType(Domain{Type: LogicalType})
	return foldLogical(l, c)
}

func (c *checker) checkNot(n *Not) Node {
	if typeOf(n.Operand).Type != LogicalType && typeOf(n.Operand).Type != NullType {
		c.adderror(errtype(n, "can't compute NOT of non-logical expression"))
	}
	n.SetType(Domain{Type: LogicalType})
	return foldNot(n, c)
}

func (c *checker) checkBetween(b *Between) Node {
	if !comparable(typeOf(b.Expr), typeOf(b.Low)) || !comparable(typeOf(b.Expr), typeOf(b.High)) {
		c.adderror(errtype(b, "BETWEEN operands are not comparable"))
	}
	b.SetType(Domain{Type: LogicalType})
	return foldBetween(b, c)
}

func comparable(a, b Domain) bool {
	if a.Type == NullType || b.Type == NullType || a.Type == MaybeType || b.Type == MaybeType {
		return true
	}
	_, err := CommonType(a.Type, b.Type)
	return err == nil
}

func (c *checker) checkCase(cs *Case) Node {
	if cs.Kind == CaseSearched || cs.Kind == CaseIf {
		for _, limb := range cs.Limbs {
			if typeOf(limb.When).Type != LogicalType && typeOf(limb.When).Type != MaybeType {
				c.adderror(errtype(limb.When, "not a valid WHEN clause; doesn't evaluate to a boolean"))
			}
		}
	}

	result := Domain{Type: NAType}
	first := true
	join := func(d Domain) {
		if d.Type == NoneType {
			return
		}
		if first {
			result = d
			first = false
			return
		}
		t, err := CommonType(result.Type, d.Type)
		if err != nil {
			c.adderror(errtypef(cs, "CASE arms have incompatible types: %s", err))
			return
		}
		result.Type = t
	}
	for _, limb := range cs.Limbs {
		join(typeOf(limb.Then))
	}
	if cs.Else != nil {
		join(typeOf(cs.Else))
	}
	for i := range cs.Limbs {
		cs.Limbs[i].Then = InsertCast(cs.Limbs[i].Then, result)
	}
	if cs.Else != nil {
		cs.Else = InsertCast(cs.Else, result)
	}
	cs.SetType(result)
	return foldCase(cs, c)
}

func (c *checker) checkCast(cast *Cast) Node {
	from := typeOf(cast.From)
	if from.Type == MaybeType {
		if hv, ok := cast.From.(*HostVar); ok {
			c.recordHostVar(hv, cast.To)
		}
	}
	cast.SetType(cast.To)
	return foldCast(cast, c)
}

func (c *checker) checkCall(call *Call) Node {
	info, ok := builtinTable[call.Name]
	if !ok {
		c.adderror(errsyntaxf("unknown builtin %q", call.Name))
		call.SetType(Domain{Type: NoneType})
		return call
	}
	if len(call.Args) < info.minArgs || len(call.Args) > info.maxArgs {
		c.adderror(errsyntaxf("%s: got %d args", call.Name, len(call.Args)))
	}
	if info.check != nil {
		if err := info.check(call.Args); err != nil {
			c.adderror(err)
			call.SetType(Domain{Type: NoneType})
			return call
		}
	}
	d, err := info.result(call.Args)
	if err != nil {
		c.adderror(err)
		d = Domain{Type: NoneType}
	}
	call.SetType(d)
	return foldCall(call, info, c)
}

func (c *checker) checkSelect(s *Select) Node {
	if s.Where != nil && typeOf(s.Where).Type != LogicalType && typeOf(s.Where).Type != MaybeType {
		c.adderror(errtype(s.Where, "WHERE must be a logical expression"))
	}
	if s.Having != nil && typeOf(s.Having).Type != LogicalType && typeOf(s.Having).Type != MaybeType {
		c.adderror(errtype(s.Having, "HAVING must be a logical expression"))
	}
	return s
}

func typeOf(n Node) Domain {
	if t, ok := n.(Typed); ok {
		return t.Type()
	}
	return Domain{Type: NoneType}
}
