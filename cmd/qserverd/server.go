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
	"context"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/relaydb/qcore/dispatch"
	"github.com/relaydb/qcore/internal/logctx"
	"github.com/relaydb/qcore/netsvc"
	"github.com/relaydb/qcore/plancache"
	"github.com/relaydb/qcore/querymgr"
	"github.com/relaydb/qcore/session"
	"github.com/relaydb/qcore/tempfile"
)

// Server owns the process-wide collaborators -- the plan cache
// (spec.md §3: "process-wide, protected by its own critical
// section"), the server identity Handshake negotiates against, and
// the backend stubs/stand-ins from backend.go -- and spins up a fresh
// Session/Manager/Table per accepted connection, the way the
// teacher's server in cmd/snellerd owns one tenant.Manager across many
// HTTP requests.
type Server struct {
	Identity dispatch.ServerIdentity
	Cache    *plancache.Cache
	Logger   logctx.Logger

	Parser   session.Parser
	Planner  session.Planner
	Runner   session.Runner
	Executor querymgr.Executor

	BlobStore  dispatch.BlobStore
	DumpSource dispatch.DumpSource
	Storage    Storage

	SessionConfig   session.Config
	MembufPages     int
	BackupChunkSize int

	wg sync.WaitGroup
}

// Serve accepts connections off l until it is closed, handling each on
// its own goroutine.
func (s *Server) Serve(l net.Listener) error {
	for {
		c, err := l.Accept()
		if err != nil {
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(c)
		}()
	}
}

// Shutdown waits (up to ctx's deadline) for in-flight connections to
// finish their current request, mirroring cmd/snellerd's
// run_daemon.go graceful-shutdown wait.
func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) handleConn(c net.Conn) {
	connID := uuid.New().String()
	log := logctx.OrNop(s.Logger)
	defer c.Close()

	conn := netsvc.NewConn(c, log)
	sess := session.Open(s.SessionConfig, s.Parser, s.Planner, s.Runner, s.Cache)
	defer sess.Close()

	pool := tempfile.NewPool(s.MembufPages, tempfile.NewMemSpillStore())
	qm := querymgr.NewManager(s.Cache, pool, s.Executor)
	qm.Aborter = txnAborter{logger: s.Logger}

	d := &dispatch.Dispatcher{
		Table:  s.table(sess, qm),
		Logger: s.Logger,
		Abort:  txnAborter{logger: s.Logger},
	}
	if err := d.Serve(conn); err != nil {
		log.Printf("qserverd: connection %s closed: %s", connID, err)
	}
}

func (s *Server) table(sess *session.Session, qm *querymgr.Manager) dispatch.Table {
	return dispatch.Table{
		dispatch.Handshake: handshakeHandler(s.Identity),

		dispatch.Compile:        compileHandler(sess),
		dispatch.Execute:        executeHandler(sess),
		dispatch.Drop:           dropHandler(sess),
		dispatch.DropAll:        dropAllHandler(sess),
		dispatch.CloseSession:   closeSessionHandler(sess),
		dispatch.StatementCount: statementCountHandler(sess),
		dispatch.StatementType:  statementTypeHandler(sess),
		dispatch.ColumnTypes:    columnTypesHandler(sess),
		dispatch.InputMarkers:   inputMarkersHandler(sess),
		dispatch.OutputMarkers:  outputMarkersHandler(sess),

		dispatch.Prepare:         prepareHandler(sess),
		dispatch.ExecutePrepared: executePreparedHandler(sess),
		dispatch.Deallocate:      deallocateHandler(sess),

		dispatch.Commit: dispatch.CommitHandler,
		dispatch.Abort:  dispatch.AbortHandler,

		dispatch.LargeObjectRead:   dispatch.LargeObjectReadHandler(s.BlobStore),
		dispatch.LargeObjectWrite:  dispatch.LargeObjectWriteHandler(s.BlobStore),
		dispatch.LargeObjectInsert: dispatch.LargeObjectInsertHandler(s.BlobStore),
		dispatch.LargeObjectAppend: dispatch.LargeObjectAppendHandler(s.BlobStore),

		dispatch.BackupDump: dispatch.BackupDumpHandler(s.BackupChunkSize, s.DumpSource),

		dispatch.ExecuteQuery:       executeQueryHandler(qm),
		dispatch.PrepareAndExecute:  prepareAndExecuteHandler(qm, s.SessionConfig.User),
		dispatch.GetListFilePage:    getListFilePageHandler(qm),
		dispatch.EndQuery:           endQueryHandler(qm),
		dispatch.SyncQuery:          syncQueryHandler(qm),
		dispatch.Interrupt:          interruptHandler(qm),
		dispatch.GetQueryInfo:       getQueryInfoHandler(qm),

		dispatch.SerialNext: serialNextHandler(s.Storage),
		dispatch.CheckDB:    checkDBHandler(s.Storage),
		dispatch.KillTran:   killTranHandler(s.Storage),
	}
}
