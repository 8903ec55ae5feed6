// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package session

import (
	"github.com/relaydb/qcore/expr"
	"github.com/relaydb/qcore/plancache"
)

// Stage is the lifecycle stage of a Statement (spec.md §4.4: metadata
// queries remain answerable in every stage >= Compiled).
type Stage int

const (
	StageEmpty Stage = iota
	StageCompiled
	StageExecuted
)

// Kind classifies a compiled statement for StatementType.
type Kind int

const (
	KindOther Kind = iota
	KindSelect
)

// Statement is one entry of a session's ordered statement array.
type Statement struct {
	Stage Stage
	Kind  Kind
	Text  string
	AST   expr.Node

	HostVars    []expr.HostVarDomain
	ColumnTypes []expr.Domain

	// Cached carries whether this statement's plan is tracked in the
	// plan cache at all; PlanID is meaningful only while Cached is true.
	// It is the zero value for a statement that was never cached (plan
	// cache disabled, or the statement is not prepareable), and keeps
	// its old value when a dropped plan clears Cached.
	Cached bool
	PlanID plancache.PlanID

	RowCount int64
}

func kindOf(n expr.Node) Kind {
	if _, ok := n.(*expr.Select); ok {
		return KindSelect
	}
	return KindOther
}

func columnTypesOf(n expr.Node) []expr.Domain {
	sel, ok := n.(*expr.Select)
	if !ok {
		return nil
	}
	out := make([]expr.Domain, len(sel.Columns))
	for i, c := range sel.Columns {
		if t, ok := c.(expr.Typed); ok {
			out[i] = t.Type()
		}
	}
	return out
}
