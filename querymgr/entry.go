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
	"sync"

	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/plancache"
	"github.com/relaydb/qcore/tempfile"
	"github.com/relaydb/qcore/wire"
)

// Mode is a query entry's execution mode (spec.md §3 "Query entry").
type Mode int

const (
	Sync Mode = iota
	Async
	Completed
)

func (m Mode) String() string {
	switch m {
	case Sync:
		return "SYNC"
	case Async:
		return "ASYNC"
	case Completed:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}

// QueryEntry is one registered query: its compiled plan, its result
// list file, and the bookkeeping spec.md §3 names (execution mode,
// interrupt flag, per-entry error under its own mutex). RowCount and
// lastPage mirror QFILE_LIST_ID/QMGR_QUERY_ENTRY fields the distilled
// spec only gestures at, added so GetQueryInfo can answer without
// re-deriving from the list file (SPEC_FULL.md §4 supplemented
// features).
type QueryEntry struct {
	QueryID int64
	PlanID  plancache.PlanID
	ListID  wire.ListID

	temp *tempfile.TempFile

	// mu guards everything below: the producer goroutine writes,
	// GetQueryInfo/Interrupt read, matching spec.md §3's "per-entry
	// error (errid + message, under its own mutex + condvar)".
	mu                 sync.Mutex
	mode               Mode
	flags              uint32
	interrupted        bool
	propagateInterrupt bool
	rowCount           int64
	lastPage           tempfile.PageID
	err                *direrr.CoreError

	// done is closed exactly once, when the producer goroutine
	// returns and the entry transitions to Completed.
	done chan struct{}
}

// Mode reports the entry's current execution mode.
func (e *QueryEntry) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// RowCount reports the row count the Executor returned; it stays 0
// until Mode is Completed.
func (e *QueryEntry) RowCount() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rowCount
}
