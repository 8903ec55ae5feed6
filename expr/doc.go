// Package expr implements the expression type checker and constant
// folder used while compiling a statement: it walks an expression tree
// twice (a rewriting pre-pass, then a bottom-up type/fold pass), assigns
// a result type to every node, inserts implicit coercions, binds the
// expected domain of host-variable placeholders, and replaces
// deterministic subtrees with their computed value.
//
// The type lattice, the coercion rules and the folding rules are
// table-driven (see builtin.go): each operator is described by its
// arity, an input-domain predicate, a result-type formula and a fold
// kernel, rather than living inside one very long hand-written
// function. Overflow is checked inside the fold kernels and by the
// arithmetic folder, not by a per-operator predicate.
package expr
