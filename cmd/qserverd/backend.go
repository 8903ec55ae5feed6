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

package main

import (
	"bytes"
	"fmt"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/relaydb/qcore/date"
	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/expr"
	"github.com/relaydb/qcore/internal/logctx"
	"github.com/relaydb/qcore/tempfile"
	"github.com/relaydb/qcore/wire"
)

// SQL grammar, query planning, plan execution, large-object storage,
// and the catalog engine behind SERIAL/CHECKDB/KILLTRAN are all
// external collaborators the core packages take as interfaces rather
// than implement (session.Parser/Planner/Runner, querymgr.Executor,
// dispatch.BlobStore, and the Storage interface below). This file's
// stubs are the daemon's default wiring for all of them, grounded on
// the teacher's noPeers{} stub (cmd/snellerd/peercmd.go): a named
// type with no state that satisfies the collaborator interface and
// fails loudly instead of silently doing nothing.

type noParser struct{}

func (noParser) Parse(sql string) (expr.Node, error) {
	return nil, direrr.New(direrr.Syntax, "qserverd: no SQL parser configured")
}

type noPlanner struct{}

func (noPlanner) Plan(n expr.Node) ([]byte, error) {
	return nil, direrr.New(direrr.Execution, "qserverd: no query planner configured")
}

type noRunner struct{}

func (noRunner) Run(plan []byte, hostVars []*expr.Literal) (int64, error) {
	return 0, direrr.New(direrr.Execution, "qserverd: no statement runner configured")
}

type noExecutor struct{}

func (noExecutor) Execute(plan []byte, hostVars []*expr.Literal, out *tempfile.TempFile) (int64, error) {
	return 0, direrr.New(direrr.Execution, "qserverd: no query executor configured")
}

type noBlobStore struct{}

func (noBlobStore) ReadLOB(loid wire.OID, offset int64, length int32) ([]byte, int32, error) {
	return nil, 0, direrr.New(direrr.Execution, "qserverd: no large-object store configured")
}

func (noBlobStore) WriteLOB(loid wire.OID, offset int64, data []byte) error {
	return direrr.New(direrr.Execution, "qserverd: no large-object store configured")
}

func (noBlobStore) InsertLOB(loid wire.OID, offset int64, data []byte) error {
	return direrr.New(direrr.Execution, "qserverd: no large-object store configured")
}

func (noBlobStore) AppendLOB(loid wire.OID, data []byte) error {
	return direrr.New(direrr.Execution, "qserverd: no large-object store configured")
}

// txnAborter bridges dispatch.UnilateralAborter's UnilaterallyAbort and
// querymgr.TxnAborter's AbortUnilaterally -- the same event, named
// differently by each package because each was written against its
// own vocabulary (spec.md §4.3 vs §4.7) -- onto one log line, since
// actually tearing down a transaction is the lock manager's job and
// the lock manager is a non-goal.
type txnAborter struct {
	logger logctx.Logger
}

func (a txnAborter) UnilaterallyAbort() {
	logctx.OrNop(a.logger).Printf("qserverd: unilateral abort triggered")
}

func (a txnAborter) AbortUnilaterally() {
	a.UnilaterallyAbort()
}

// Storage is the supplemented catalog surface SerialNext/CheckDB/
// KillTran (SPEC_FULL.md's supplemented handlers) call into. A real
// implementation would be backed by the page/volume layer spec.md
// scopes out entirely; memStorage below is a process-local stand-in
// that at least makes SERIAL_NEXT's monotonic-counter contract and
// CHECKDB/KILLTRAN's request/reply shape observable end to end.
type Storage interface {
	SerialNext(name string) (int64, error)
	CheckDB() error
	KillTran(id int32) error
}

// memStorage backs Storage and dispatch.DumpSource with an in-memory
// table of named counters, guarded by mu. Dump renders the table as
// sorted "name=value" lines, the same deterministic-ordering idiom
// the teacher reaches for with golang.org/x/exp/maps.Keys +
// golang.org/x/exp/slices.Sort wherever a map needs a stable printed
// form (e.g. plan/pir/projectelim.go, vm/vmmemleaks.go).
type memStorage struct {
	mu      sync.Mutex
	serials map[string]int64
	logger  logctx.Logger
}

func newMemStorage(logger logctx.Logger) *memStorage {
	return &memStorage{serials: make(map[string]int64), logger: logger}
}

func (s *memStorage) SerialNext(name string) (int64, error) {
	if name == "" {
		return 0, direrr.New(direrr.ObjInvalidArguments, "qserverd: SERIAL_NEXT: empty serial name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serials[name]++
	return s.serials[name], nil
}

// CheckDB is a liveness probe: it always succeeds, since the volume
// consistency checker itself is a non-goal (spec.md Non-goals).
func (s *memStorage) CheckDB() error {
	logctx.OrNop(s.logger).Printf("qserverd: CHECK_DB probe ok")
	return nil
}

// KillTran rejects a negative transaction index and otherwise only
// logs the request; lock-table/transaction-table ownership is a
// non-goal, so there is nothing here to actually kill.
func (s *memStorage) KillTran(id int32) error {
	if id < 0 {
		return direrr.New(direrr.ObjInvalidArguments, "qserverd: KILL_TRAN: negative transaction index")
	}
	logctx.OrNop(s.logger).Printf("qserverd: KILL_TRAN requested for tran %d (no-op: transaction table is out of scope)", id)
	return nil
}

// Dump renders a manifest header stamped with the generation time
// (date.Now -- the same calendar type the wire package's DATE/TIME/
// TIMESTAMP/DATETIME conversions round-trip through, see
// literalToWireValue) followed by the serial table as sorted
// "name=value" lines, for BackupDumpHandler.
func (s *memStorage) Dump(w *bytes.Buffer) error {
	fmt.Fprintf(w, "generated_at=%s\n", date.Now().String())

	s.mu.Lock()
	names := maps.Keys(s.serials)
	values := make(map[string]int64, len(s.serials))
	for k, v := range s.serials {
		values[k] = v
	}
	s.mu.Unlock()

	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s=%d\n", name, values[name])
	}
	return nil
}
