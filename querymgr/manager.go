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
	"errors"
	"sync"

	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/expr"
	"github.com/relaydb/qcore/plancache"
	"github.com/relaydb/qcore/tempfile"
	"github.com/relaydb/qcore/wire"
)

// Manager is a per-transaction registry of live query entries
// (spec.md §3 "Query entry", §4.7), grounded on the teacher's
// tenant.Manager mutex-guarded live map, generalized from per-tenant
// subprocess handles to per-query temp files and execution state.
type Manager struct {
	Cache    *plancache.Cache
	Pool     *tempfile.Pool
	Executor Executor
	Aborter  TxnAborter

	mu        sync.Mutex
	live      map[int64]*QueryEntry
	nextID    int64
	cacheTime wire.CacheTime
}

// NewManager returns an empty Manager sharing cache as the process-wide
// plan cache and pool as the temp-file allocator for result list files.
func NewManager(cache *plancache.Cache, pool *tempfile.Pool, executor Executor) *Manager {
	return &Manager{
		Cache:    cache,
		Pool:     pool,
		Executor: executor,
		live:     make(map[int64]*QueryEntry),
	}
}

// SetCacheTime records the server's current cache time, the value
// execute_query compares the client's cache_time against.
func (m *Manager) SetCacheTime(t wire.CacheTime) {
	m.mu.Lock()
	m.cacheTime = t
	m.mu.Unlock()
}

// CacheTime reports the server's current cache time.
func (m *Manager) CacheTime() wire.CacheTime {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cacheTime
}

// ExecuteResult is execute_query's return value (spec.md §4.7).
type ExecuteResult struct {
	ListID          wire.ListID
	QueryID         int64
	ServerCacheTime wire.CacheTime
	// FirstPage is nil both for the cache-time short-circuit and for
	// a query that produced zero rows; HadRows distinguishes the two.
	FirstPage []byte
	HadRows   bool
}

// ExecuteQuery begins executing planID's plan and peeks the first
// result page (spec.md §4.7 execute_query). If clientCacheTime is
// non-zero and matches the server's current cache time, it returns an
// empty result carrier without running anything. mode == Sync blocks
// until the list file is fully produced before returning; mode ==
// Async returns as soon as the first page is available and streams
// the rest via GetListFilePage.
func (m *Manager) ExecuteQuery(planID plancache.PlanID, hostVars []*expr.Literal, mode Mode, clientCacheTime wire.CacheTime) (ExecuteResult, error) {
	if mode != Sync && mode != Async {
		return ExecuteResult{}, direrr.New(direrr.ObjInvalidArguments, "execute_query: mode must be Sync or Async")
	}

	serverTime := m.CacheTime()
	if clientCacheTime != (wire.CacheTime{}) && clientCacheTime == serverTime {
		return ExecuteResult{ServerCacheTime: serverTime}, nil
	}

	plan, err := m.Cache.Lookup(planID)
	if err != nil {
		return ExecuteResult{}, direrr.Wrap(direrr.QprocInvalidXASLNode, err)
	}

	entry := m.newEntry(planID, mode)
	m.run(entry, plan, hostVars)

	if mode == Sync {
		<-entry.done
	}

	page, hadRows, err := peekFirstPage(entry.temp)
	if err != nil {
		return ExecuteResult{}, err
	}
	return ExecuteResult{
		ListID:          entry.ListID,
		QueryID:         entry.QueryID,
		ServerCacheTime: serverTime,
		FirstPage:       page,
		HadRows:         hadRows,
	}, nil
}

// PrepareAndExecute installs text's plan (or reuses the cached one for
// the same (text, user)) and immediately executes it, combining
// plancache.Prepare with ExecuteQuery the way the wire-level
// PREPARE_AND_EXECUTE request does for one-shot statements.
func (m *Manager) PrepareAndExecute(text string, user wire.OID, stream []byte, hostVars []*expr.Literal, mode Mode, clientCacheTime wire.CacheTime) (ExecuteResult, error) {
	planID, err := m.Cache.Prepare(text, user, stream)
	if err != nil {
		return ExecuteResult{}, err
	}
	return m.ExecuteQuery(planID, hostVars, mode, clientCacheTime)
}

func (m *Manager) newEntry(planID plancache.PlanID, mode Mode) *QueryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	e := &QueryEntry{
		QueryID: id,
		PlanID:  planID,
		ListID:  wire.ListID{QueryID: id},
		temp:    m.Pool.Alloc(),
		mode:    mode,
		done:    make(chan struct{}),
	}
	m.live[id] = e
	return e
}

// run starts entry's producer on its own goroutine. Regardless of how
// Execute finishes, the temp file is marked Done (waking any blocked
// consumer) and the entry transitions to Completed before done closes.
func (m *Manager) run(entry *QueryEntry, plan []byte, hostVars []*expr.Literal) {
	go func() {
		rows, err := m.Executor.Execute(plan, hostVars, entry.temp)
		entry.temp.Done()

		entry.mu.Lock()
		entry.rowCount = rows
		if err != nil {
			entry.err = asCoreError(err)
		}
		entry.mode = Completed
		entry.mu.Unlock()
		close(entry.done)

		if err != nil && direrr.CodeOf(err) == direrr.LkUnilaterallyAborted && m.Aborter != nil {
			m.Aborter.AbortUnilaterally()
		}
	}()
}

// peekFirstPage fetches and immediately releases page 0, reporting
// hadRows=false (no error) for a producer that finished with zero
// pages.
func peekFirstPage(tf *tempfile.TempFile) (page []byte, hadRows bool, err error) {
	data, err := tf.GetPage(0)
	if err == tempfile.ErrPageNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	tf.FreePage(0)
	return data, true, nil
}

func (m *Manager) lookup(queryID int64) (*QueryEntry, error) {
	m.mu.Lock()
	e := m.live[queryID]
	m.mu.Unlock()
	if e == nil {
		return nil, direrr.New(direrr.ObjInvalidArguments, "query manager: unknown query id")
	}
	return e, nil
}

// GetListFilePage fetches and releases one tuple page, blocking on
// C8's condvar while the producer is still running (spec.md §4.7
// get_list_file_page). An interrupted query reports direrr.Interrupted
// and leaves the producer able to observe the same interrupt at its
// next safe point.
func (m *Manager) GetListFilePage(queryID int64, pageID tempfile.PageID) ([]byte, error) {
	entry, err := m.lookup(queryID)
	if err != nil {
		return nil, err
	}
	data, err := entry.temp.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	entry.temp.FreePage(pageID)
	entry.mu.Lock()
	entry.lastPage = pageID
	entry.mu.Unlock()
	return data, nil
}

// EndQuery releases the result list file and the query entry
// (spec.md §4.7, idempotent). It interrupts the producer first so a
// still-running async query is not left orphaned, then waits for it
// to observe the interrupt and exit before freeing its temp file --
// "all owned temp files are freed before the entry is reclaimed"
// (spec.md §5 Cancellation).
func (m *Manager) EndQuery(queryID int64) error {
	m.mu.Lock()
	e := m.live[queryID]
	if e == nil {
		m.mu.Unlock()
		return nil
	}
	delete(m.live, queryID)
	m.mu.Unlock()

	e.temp.Interrupt()
	<-e.done
	return m.Pool.Free(e.temp)
}

// SyncQuery forces completion of an async query and returns its final
// list ID (spec.md §4.7 sync_query). wait=false reports the entry's
// current list ID without blocking, even if production is ongoing.
func (m *Manager) SyncQuery(queryID int64, wait bool) (wire.ListID, error) {
	e, err := m.lookup(queryID)
	if err != nil {
		return wire.ListID{}, err
	}
	if wait {
		<-e.done
	}
	return e.ListID, nil
}

// Interrupt sets queryID's interrupt flag and wakes any waiter
// (spec.md §4.7, §5). A no-op once the entry has already completed
// (spec.md §3 invariant: "mode=COMPLETED ⇒ interrupt is a no-op").
func (m *Manager) Interrupt(queryID int64) error {
	e, err := m.lookup(queryID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	if e.mode == Completed {
		e.mu.Unlock()
		return nil
	}
	e.interrupted = true
	e.mu.Unlock()
	e.temp.Interrupt()
	return nil
}

// QueryInfo is get_query_info's return value: the producer's frozen
// error, if any, plus the bookkeeping needed to answer without
// re-deriving from the list file.
type QueryInfo struct {
	Mode     Mode
	RowCount int64
	LastPage tempfile.PageID
	Err      *direrr.CoreError
}

// GetQueryInfo returns the packed error area for an async query whose
// producer aborted (spec.md §4.7). The error is not cleared here;
// call AcknowledgeError once the consumer has observed it.
func (m *Manager) GetQueryInfo(queryID int64) (QueryInfo, error) {
	e, err := m.lookup(queryID)
	if err != nil {
		return QueryInfo{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return QueryInfo{
		Mode:     e.mode,
		RowCount: e.rowCount,
		LastPage: e.lastPage,
		Err:      e.err,
	}, nil
}

// AcknowledgeError clears a completed query's frozen error once the
// consumer has observed it via GetQueryInfo (spec.md §4.7: "clearing
// the producer error is deferred until the consumer acknowledges
// completion").
func (m *Manager) AcknowledgeError(queryID int64) error {
	e, err := m.lookup(queryID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.err = nil
	e.mu.Unlock()
	return nil
}

func asCoreError(err error) *direrr.CoreError {
	var ce *direrr.CoreError
	if errors.As(err, &ce) {
		return ce
	}
	return direrr.Wrap(direrr.GenericError, err)
}
