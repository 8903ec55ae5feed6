package expr

// RewriteLimit implements the spec.md §4.5 pre-pass LIMIT rewrite:
// `LIMIT n` on a SELECT becomes an `instnum < n` / `orderby_num < n` /
// `groupby_num < n` filter appended to the most specific predicate slot
// (WHERE, the ORDER-BY-FOR slot, HAVING) depending on whether ORDER BY
// or GROUP BY is present, and the LIMIT node itself is removed.
//
// This routing matters for INST_NUM/ROWNUM/ORDERBY_NUM assignment order
// (spec.md §5 Ordering): the execution engine assigns those pseudo-columns
// in scan order, so the filter must land in the slot that is evaluated
// at the point the corresponding counter is live.
func RewriteLimit(s *Select) {
	if s.Limit == nil {
		return
	}
	n := *s.Limit
	switch {
	case len(s.GroupBy) > 0:
		s.Having = appendAnd(s.Having, pseudoLess("groupby_num", n))
	case len(s.OrderBy) > 0:
		s.OrderByFilter = appendAnd(s.OrderByFilter, pseudoLess("orderby_num", n))
	default:
		s.Where = appendAnd(s.Where, pseudoLess("instnum", n))
	}
	s.Limit = nil
}

func pseudoLess(pseudocol string, n int64) Node {
	id := &Ident{Name: pseudocol}
	id.SetType(Domain{Type: BigintType})
	return &Comparison{Op: Less, Left: id, Right: IntLit(n)}
}

func appendAnd(existing, cond Node) Node {
	if existing == nil {
		return cond
	}
	l := &Logical{Op: AndOp, Left: existing, Right: cond}
	l.SetType(Domain{Type: LogicalType})
	return l
}

// MarkOuterJoinSubquery marks s as derived from an outer-join rewrite
// by setting HasOuterSpec. Check does not consult the mark; it folds a
// marked Select exactly as it folds an unmarked one.
func MarkOuterJoinSubquery(s *Select) {
	s.HasOuterSpec = true
}
