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
	"fmt"

	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/dispatch"
	"github.com/relaydb/qcore/querymgr"
	"github.com/relaydb/qcore/tempfile"
	"github.com/relaydb/qcore/wire"
)

func packExecuteResult(res querymgr.ExecuteResult) []byte {
	buf := wire.PackListID(nil, res.ListID)
	buf = wire.PackBigint(buf, res.QueryID)
	buf = wire.PackCacheTime(buf, res.ServerCacheTime)
	hadRows := int32(0)
	if res.HadRows {
		hadRows = 1
	}
	buf = wire.PackInt(buf, hadRows)
	return wire.PackBit(buf, res.FirstPage, len(res.FirstPage)*8, res.FirstPage == nil)
}

func unpackMode(tag int32) querymgr.Mode {
	if tag != 0 {
		return querymgr.Async
	}
	return querymgr.Sync
}

// executeQueryHandler wraps Manager.ExecuteQuery: request is plan
// id(32 bytes) | mode(i32: 0=sync,1=async) | client cache time |
// host variable list.
func executeQueryHandler(qm *querymgr.Manager) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		planID, rest, err := unpackPlanID(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking EXECUTE_QUERY plan id: %w", err)
		}
		modeTag, rest, err := wire.UnpackInt(rest)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking EXECUTE_QUERY mode: %w", err)
		}
		clientCacheTime, rest, err := wire.UnpackCacheTime(rest)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking EXECUTE_QUERY cache time: %w", err)
		}
		hostVars, _, err := unpackLiteralList(rest)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking EXECUTE_QUERY host variables: %w", err)
		}
		res, err := qm.ExecuteQuery(planID, hostVars, unpackMode(modeTag), clientCacheTime)
		if err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, packExecuteResult(res))
	}
}

// prepareAndExecuteHandler wraps Manager.PrepareAndExecute: request is
// text(str) | plan stream(bit) | mode(i32) | client cache time | host
// variable list. The plan stream is whatever the caller's planner
// already produced; this daemon has no in-process planner (backend.go
// noPlanner), so PREPARE_AND_EXECUTE only does useful work when the
// client supplies a pre-compiled stream out of band.
func prepareAndExecuteHandler(qm *querymgr.Manager, user wire.OID) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		sql, _, rest, err := wire.UnpackString(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking PREPARE_AND_EXECUTE text: %w", err)
		}
		stream, _, _, rest, err := wire.UnpackBit(rest)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking PREPARE_AND_EXECUTE plan stream: %w", err)
		}
		modeTag, rest, err := wire.UnpackInt(rest)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking PREPARE_AND_EXECUTE mode: %w", err)
		}
		clientCacheTime, rest, err := wire.UnpackCacheTime(rest)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking PREPARE_AND_EXECUTE cache time: %w", err)
		}
		hostVars, _, err := unpackLiteralList(rest)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking PREPARE_AND_EXECUTE host variables: %w", err)
		}
		res, err := qm.PrepareAndExecute(sql, user, stream, hostVars, unpackMode(modeTag), clientCacheTime)
		if err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, packExecuteResult(res))
	}
}

func getListFilePageHandler(qm *querymgr.Manager) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		queryID, rest, err := wire.UnpackBigint(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking GET_LIST_FILE_PAGE query id: %w", err)
		}
		pageID, _, err := wire.UnpackBigint(rest)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking GET_LIST_FILE_PAGE page id: %w", err)
		}
		data, err := qm.GetListFilePage(queryID, tempfile.PageID(pageID))
		if err != nil {
			return err
		}
		return ctx.Conn.SendReplyAndData(ctx.Rid, nil, data)
	}
}

func endQueryHandler(qm *querymgr.Manager) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		queryID, _, err := wire.UnpackBigint(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking END_QUERY query id: %w", err)
		}
		if err := qm.EndQuery(queryID); err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, nil)
	}
}

func syncQueryHandler(qm *querymgr.Manager) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		queryID, rest, err := wire.UnpackBigint(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking SYNC_QUERY query id: %w", err)
		}
		waitFlag, _, err := wire.UnpackInt(rest)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking SYNC_QUERY wait flag: %w", err)
		}
		listID, err := qm.SyncQuery(queryID, waitFlag != 0)
		if err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, wire.PackListID(nil, listID))
	}
}

func interruptHandler(qm *querymgr.Manager) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		queryID, _, err := wire.UnpackBigint(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking INTERRUPT query id: %w", err)
		}
		if err := qm.Interrupt(queryID); err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, nil)
	}
}

// noQueryError is the sentinel get_query_info packs for a query entry
// that currently has no frozen producer error; direrr's ErrCode iota
// starts at 1 (direrr.go), so the zero value never collides with a
// real code.
var noQueryError = direrr.New(direrr.ErrCode(0), "")

// getQueryInfoHandler wraps Manager.GetQueryInfo. Per spec.md §4.7,
// clearing a completed query's frozen error is deferred until the
// consumer acknowledges it; a client's GET_QUERY_INFO call on a
// COMPLETED query with a non-nil error *is* that acknowledgement, so
// this handler calls Manager.AcknowledgeError right after packing the
// reply.
func getQueryInfoHandler(qm *querymgr.Manager) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		queryID, _, err := wire.UnpackBigint(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking GET_QUERY_INFO query id: %w", err)
		}
		info, err := qm.GetQueryInfo(queryID)
		if err != nil {
			return err
		}
		buf := wire.PackInt(nil, int32(info.Mode))
		buf = wire.PackBigint(buf, info.RowCount)
		buf = wire.PackBigint(buf, int64(info.LastPage))
		if info.Err != nil {
			buf = dispatch.PackError(buf, info.Err)
		} else {
			buf = dispatch.PackError(buf, noQueryError)
		}
		if info.Mode == querymgr.Completed && info.Err != nil {
			if err := qm.AcknowledgeError(queryID); err != nil {
				return err
			}
		}
		return ctx.Conn.SendReply(ctx.Rid, buf)
	}
}
