package expr

import (
	"fmt"
	"math/big"
	"strings"
)

// Node is implemented by every expression-tree node. All concrete node
// types are used through a pointer receiver, mirroring the teacher's
// AST convention (expr/node.go: *Builtin, *Select, *Comparison, ...).
//
// Traversal (Walk/Rewrite) does not require each node type to implement
// its own recursion step; instead childSlots exposes addressable
// pointers to a node's child fields, and the generic Walk/Rewrite
// functions below use that to recurse. This plays the same role as the
// teacher's codegen'd per-node walk/rewrite methods without requiring a
// code generator.
type Node interface {
	// String returns the canonical printed form of the node, used
	// both for error messages and for the alias_print text a folded
	// constant is expected to remember (spec.md §8 scenario 3).
	String() string
}

// typed is embedded by every node that carries a resolved type; it
// implements the Typed interface.
type typed struct {
	Resolved Domain
}

func (t *typed) Type() Domain     { return t.Resolved }
func (t *typed) SetType(d Domain) { t.Resolved = d }

// Typed is implemented by every node that has passed (or is about to
// pass) the type-checker.
type Typed interface {
	Type() Domain
	SetType(Domain)
}

// Visitor mirrors ast.Visitor / the teacher's expr.Visitor.
type Visitor interface {
	Visit(Node) Visitor
}

// Rewriter mirrors the teacher's expr.Rewriter.
type Rewriter interface {
	Rewrite(Node) Node
	Walk(Node) Rewriter
}

// Walk traverses the AST in depth-first order (see also: expr.Walk in
// the teacher).
func Walk(v Visitor, n Node) {
	if n == nil {
		return
	}
	w := v.Visit(n)
	if w == nil {
		return
	}
	for _, slot := range childSlots(n) {
		if *slot != nil {
			Walk(w, *slot)
		}
	}
	w.Visit(nil)
}

// Rewrite recursively applies a Rewriter in depth-first order.
func Rewrite(r Rewriter, n Node) Node {
	if n == nil {
		return nil
	}
	w := r.Walk(n)
	if w != nil {
		for _, slot := range childSlots(n) {
			if *slot != nil {
				*slot = Rewrite(w, *slot)
			}
		}
	}
	return r.Rewrite(n)
}

// childSlots returns addressable pointers to n's immediate children, in
// evaluation order. A leaf node returns nil.
func childSlots(n Node) []*Node {
	switch t := n.(type) {
	case *Unary:
		return []*Node{&t.Operand}
	case *Arithmetic:
		return []*Node{&t.Left, &t.Right}
	case *Comparison:
		return []*Node{&t.Left, &t.Right}
	case *Logical:
		return []*Node{&t.Left, &t.Right}
	case *Not:
		return []*Node{&t.Operand}
	case *Between:
		return []*Node{&t.Expr, &t.Low, &t.High}
	case *Case:
		slots := make([]*Node, 0, 2*len(t.Limbs)+1)
		for i := range t.Limbs {
			slots = append(slots, &t.Limbs[i].When, &t.Limbs[i].Then)
		}
		slots = append(slots, &t.Else)
		return slots
	case *Cast:
		return []*Node{&t.From}
	case *Call:
		slots := make([]*Node, len(t.Args))
		for i := range t.Args {
			slots[i] = &t.Args[i]
		}
		return slots
	case *Select:
		slots := []*Node{}
		for i := range t.Columns {
			slots = append(slots, &t.Columns[i])
		}
		slots = append(slots, &t.Where)
		for i := range t.GroupBy {
			slots = append(slots, &t.GroupBy[i])
		}
		slots = append(slots, &t.Having, &t.OrderByFilter)
		for i := range t.OrderBy {
			slots = append(slots, &t.OrderBy[i].Expr)
		}
		return slots
	}
	return nil
}

// ---- leaf nodes ----

// Literal is a constant value of a concrete type.
type Literal struct {
	typed
	Text string // original source text, preserved for alias_print

	IsNull bool
	Bool   bool
	Int    int64    // INTEGER/BIGINT/SMALLINT
	Float  float64  // FLOAT/DOUBLE
	Rat    *big.Rat // NUMERIC/MONETARY, exact
	Str    string   // CHAR/VARCHAR/NCHAR/VARNCHAR
	Bits   []byte   // BIT/VARBIT
}

func (l *Literal) String() string {
	if l.Text != "" {
		return l.Text
	}
	return l.printed()
}

func (l *Literal) printed() string {
	switch {
	case l.IsNull:
		return "NULL"
	case l.Resolved.Type == LogicalType:
		if l.Bool {
			return "TRUE"
		}
		return "FALSE"
	case l.Resolved.Type.Numeric():
		if l.Rat != nil {
			return l.Rat.FloatString(l.Resolved.Scale)
		}
		if l.Resolved.Type == FloatType || l.Resolved.Type == DoubleType {
			return fmt.Sprintf("%g", l.Float)
		}
		return fmt.Sprintf("%d", l.Int)
	case l.Resolved.Type.StringLike():
		return Quote(l.Str)
	default:
		return fmt.Sprintf("%v", l.Str)
	}
}

// IntLit builds an integer literal of the narrowest integer type that
// holds v (see fitInteger in coerce.go for the width rule).
func IntLit(v int64) *Literal {
	l := &Literal{Int: v, Text: fmt.Sprintf("%d", v)}
	l.SetType(Domain{Type: fitInteger(v)})
	return l
}

// NullLit builds an untyped NULL.
func NullLit() *Literal {
	l := &Literal{IsNull: true, Text: "NULL"}
	l.SetType(Domain{Type: NullType})
	return l
}

// BoolLit builds a LOGICAL literal.
func BoolLit(v bool) *Literal {
	l := &Literal{Bool: v}
	if v {
		l.Text = "TRUE"
	} else {
		l.Text = "FALSE"
	}
	l.SetType(Domain{Type: LogicalType})
	return l
}

// StringLit builds a VARCHAR literal.
func StringLit(s string) *Literal {
	l := &Literal{Str: s, Text: Quote(s)}
	l.SetType(Domain{Type: VarcharType, Length: len(s)})
	return l
}

// Ident is a column reference resolved through a Hint.
type Ident struct {
	typed
	Name string
}

func (i *Ident) String() string { return i.Name }

// HostVar is a positional `?` placeholder. Index is 1-based, matching
// the order host variables are bound in EXECUTE ... USING (...).
type HostVar struct {
	typed
	Index int
}

func (h *HostVar) String() string { return "?" }

// ---- operators ----

type UnaryOp int

const (
	Neg UnaryOp = iota
	Pos
)

var unaryOpText = map[UnaryOp]string{Neg: "-", Pos: "+"}

// Unary is a unary arithmetic operator.
type Unary struct {
	typed
	Op      UnaryOp
	Operand Node
}

func (u *Unary) String() string { return unaryOpText[u.Op] + u.Operand.String() }

type ArithOp int

const (
	AddOp ArithOp = iota
	SubOp
	MulOp
	DivOp
	ModOp
)

var arithOpText = map[ArithOp]string{AddOp: "+", SubOp: "-", MulOp: "*", DivOp: "/", ModOp: "%"}

// Arithmetic is a binary arithmetic operator.
type Arithmetic struct {
	typed
	Op          ArithOp
	Left, Right Node
}

func (a *Arithmetic) String() string {
	return a.Left.String() + arithOpText[a.Op] + a.Right.String()
}

type CmpOp int

const (
	Equals CmpOp = iota
	NotEquals
	Less
	LessEquals
	Greater
	GreaterEquals
)

var cmpOpText = map[CmpOp]string{
	Equals: "=", NotEquals: "<>", Less: "<", LessEquals: "<=", Greater: ">", GreaterEquals: ">=",
}

// Ordinal reports whether op is an ordering comparison (as opposed to
// (in)equality), mirroring the teacher's Comparison.Op.Ordinal().
func (op CmpOp) Ordinal() bool {
	return op == Less || op == LessEquals || op == Greater || op == GreaterEquals
}

// Comparison is a binary comparison, always LOGICAL-typed.
type Comparison struct {
	typed
	Op          CmpOp
	Left, Right Node
}

func (c *Comparison) String() string {
	return c.Left.String() + cmpOpText[c.Op] + c.Right.String()
}

type LogicalOp int

const (
	AndOp LogicalOp = iota
	OrOp
	XorOp
)

var logicalOpText = map[LogicalOp]string{AndOp: " AND ", OrOp: " OR ", XorOp: " XOR "}

// Logical is AND/OR/XOR with SQL three-valued-logic semantics.
type Logical struct {
	typed
	Op          LogicalOp
	Left, Right Node
}

func (l *Logical) String() string {
	return l.Left.String() + logicalOpText[l.Op] + l.Right.String()
}

// Not negates a LOGICAL expression.
type Not struct {
	typed
	Operand Node
}

func (n *Not) String() string { return "NOT " + n.Operand.String() }

// Between is `Expr [NOT] BETWEEN Low AND High`.
type Between struct {
	typed
	Expr, Low, High Node
	Negated         bool
}

func (b *Between) String() string {
	kw := "BETWEEN"
	if b.Negated {
		kw = "NOT BETWEEN"
	}
	return fmt.Sprintf("%s %s %s AND %s", b.Expr, kw, b.Low, b.High)
}

// CaseLimb is one WHEN/THEN arm of a Case.
type CaseLimb struct {
	When, Then Node
}

// Case implements CASE/DECODE/IF, unified into one node: DECODE and IF
// are parsed into the same Limbs/Else shape (spec.md §4.5), with Kind
// recording which surface syntax produced the node so String() can
// reproduce it.
type Case struct {
	typed
	Operand Node // non-nil for "simple CASE x WHEN v THEN ..."
	Limbs   []CaseLimb
	Else    Node
	Kind    CaseKind
}

type CaseKind int

const (
	CaseSearched CaseKind = iota
	CaseSimple
	CaseDecode
	CaseIf
)

func (c *Case) String() string {
	var b strings.Builder
	switch c.Kind {
	case CaseIf:
		fmt.Fprintf(&b, "IF(%s, %s, %s)", c.Limbs[0].When, c.Limbs[0].Then, c.Else)
		return b.String()
	case CaseDecode:
		fmt.Fprintf(&b, "DECODE(%s", c.Operand)
		for _, l := range c.Limbs {
			fmt.Fprintf(&b, ", %s, %s", l.When, l.Then)
		}
		if c.Else != nil {
			fmt.Fprintf(&b, ", %s", c.Else)
		}
		b.WriteByte(')')
		return b.String()
	}
	b.WriteString("CASE")
	if c.Operand != nil {
		fmt.Fprintf(&b, " %s", c.Operand)
	}
	for _, l := range c.Limbs {
		fmt.Fprintf(&b, " WHEN %s THEN %s", l.When, l.Then)
	}
	if c.Else != nil {
		fmt.Fprintf(&b, " ELSE %s", c.Else)
	}
	b.WriteString(" END")
	return b.String()
}

// Cast represents both an explicit user CAST(expr AS type) and an
// implicit coercion inserted by the checker (Implicit=true); the
// distinction matters only for pretty-printing.
type Cast struct {
	typed
	From     Node
	To       Domain
	Implicit bool
}

func (c *Cast) String() string {
	if c.Implicit {
		return c.From.String()
	}
	return fmt.Sprintf("CAST(%s AS %s)", c.From, c.To)
}

// Call is a builtin/function invocation, looked up in the operator
// table (builtin.go).
type Call struct {
	typed
	Name string
	Args []Node
}

func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(parts, ", "))
}

// OrderItem is one ORDER BY term.
type OrderItem struct {
	Expr Node
	Desc bool
}

// Select is a minimal SELECT shape: just enough structure to carry the
// LIMIT pre-pass rewrite (spec.md §4.5) and the predicate slots it
// targets. Full FROM/JOIN/aggregate construction remains the black-box
// planner's concern (spec.md §1 non-goals).
type Select struct {
	typed
	Columns []Node
	Where   Node
	GroupBy []Node
	Having  Node
	OrderBy []OrderItem
	// OrderByFilter holds the predicate LIMIT rewrites into when an
	// ORDER BY is present but no GROUP BY (spec.md §4.5 pre-pass);
	// there is no natural SQL clause for "the ORDER-BY-FOR slot", so
	// it gets its own field rather than overloading WHERE/HAVING.
	OrderByFilter Node
	Limit         *int64

	// HasOuterSpec marks an outer-join derived subquery (set by
	// MarkOuterJoinSubquery). Check and the folder do not read it, so
	// folding proceeds the same whether or not it is set.
	HasOuterSpec bool
}

func (s *Select) String() string {
	var b strings.Builder
	b.WriteString("SELECT ...")
	if s.Where != nil {
		fmt.Fprintf(&b, " WHERE %s", s.Where)
	}
	return b.String()
}
