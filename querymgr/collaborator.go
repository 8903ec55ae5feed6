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

package querymgr

import (
	"github.com/relaydb/qcore/expr"
	"github.com/relaydb/qcore/tempfile"
)

// Executor runs a compiled plan against hostVars, writing each result
// tuple page to out via out.Put as it becomes available, and returns
// the total row count once production is complete. The manager calls
// out.Done itself after Execute returns (whether or not it errored);
// Execute must not call it. Execute should poll out.Interrupted() at
// page boundaries and stop producing once it reports true, so
// Interrupt can take effect promptly (spec.md §5 Cancellation).
//
// Plan execution -- the storage scan, join, and aggregation engine --
// is an external collaborator; this package only owns the query entry
// bookkeeping around it.
type Executor interface {
	Execute(plan []byte, hostVars []*expr.Literal, out *tempfile.TempFile) (rowCount int64, err error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(plan []byte, hostVars []*expr.Literal, out *tempfile.TempFile) (int64, error)

func (f ExecutorFunc) Execute(plan []byte, hostVars []*expr.Literal, out *tempfile.TempFile) (int64, error) {
	return f(plan, hostVars, out)
}

// TxnAborter is the transaction-layer collaborator notified when a
// query's producer fails with LK_UNILATERALLY_ABORTED (spec.md §4.7:
// "the manager immediately unilaterally aborts the owning
// transaction"). Lock management and transaction state are an
// external collaborator (spec.md §1 non-goals); this package only
// triggers the callback.
type TxnAborter interface {
	AbortUnilaterally()
}
