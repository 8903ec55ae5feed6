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

import "github.com/relaydb/qcore/expr"

// Parser turns SQL source text into an unchecked expr.Node. Full SQL
// grammar/AST construction is an external collaborator (spec.md §6);
// Session only needs the resulting tree.
type Parser interface {
	Parse(sql string) (expr.Node, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(sql string) (expr.Node, error)

func (f ParserFunc) Parse(sql string) (expr.Node, error) { return f(sql) }

// Planner turns a checked expr.Node into the opaque byte stream the
// plan cache stores and the Runner later executes. Plan generation
// itself is an external collaborator; Session only needs the bytes.
type Planner interface {
	Plan(n expr.Node) ([]byte, error)
}

// PlannerFunc adapts a function to Planner.
type PlannerFunc func(n expr.Node) ([]byte, error)

func (f PlannerFunc) Plan(n expr.Node) ([]byte, error) { return f(n) }

// Runner executes a plan byte stream with bound host variables and
// reports how many rows were affected or produced. A Runner that finds
// its plan stale returns an error whose direrr.CodeOf is
// direrr.QprocInvalidXASLNode; Session handles the bounded re-prepare
// retry itself (spec.md §4.4), so Runner need not retry on its own.
type Runner interface {
	Run(plan []byte, hostVars []*expr.Literal) (rowCount int64, err error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(plan []byte, hostVars []*expr.Literal) (int64, error)

func (f RunnerFunc) Run(plan []byte, hostVars []*expr.Literal) (int64, error) {
	return f(plan, hostVars)
}
