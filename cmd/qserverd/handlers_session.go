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

	"github.com/relaydb/qcore/dispatch"
	"github.com/relaydb/qcore/expr"
	"github.com/relaydb/qcore/session"
	"github.com/relaydb/qcore/wire"
)

func unpackHandshakeRequest(buf []byte) (dispatch.HandshakeRequest, error) {
	release, _, rest, err := wire.UnpackString(buf)
	if err != nil {
		return dispatch.HandshakeRequest{}, fmt.Errorf("qserverd: unpacking HANDSHAKE release: %w", err)
	}
	caps, rest, err := wire.UnpackInt(rest)
	if err != nil {
		return dispatch.HandshakeRequest{}, fmt.Errorf("qserverd: unpacking HANDSHAKE capabilities: %w", err)
	}
	bitPlatform, rest, err := wire.UnpackInt(rest)
	if err != nil {
		return dispatch.HandshakeRequest{}, fmt.Errorf("qserverd: unpacking HANDSHAKE bit platform: %w", err)
	}
	host, _, _, err := wire.UnpackString(rest)
	if err != nil {
		return dispatch.HandshakeRequest{}, fmt.Errorf("qserverd: unpacking HANDSHAKE host: %w", err)
	}
	return dispatch.HandshakeRequest{
		Release:      release,
		Capabilities: dispatch.Capability(caps),
		BitPlatform:  uint32(bitPlatform),
		Host:         host,
	}, nil
}

func packHandshakeReply(r dispatch.HandshakeReply) []byte {
	buf := wire.PackString(nil, r.ServerRelease, false)
	buf = wire.PackString(buf, "", false) // wire placeholder field, see dispatch.HandshakeReply
	buf = wire.PackInt(buf, int32(r.Capabilities))
	buf = wire.PackInt(buf, int32(r.BitPlatform))
	return wire.PackString(buf, r.ServerHost, false)
}

func handshakeHandler(identity dispatch.ServerIdentity) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		req, err := unpackHandshakeRequest(ctx.Payload)
		if err != nil {
			return err
		}
		reply, err := dispatch.Handshake(identity, req)
		if err != nil {
			return err
		}
		ctx.State.Release = reply.ServerRelease
		ctx.State.Capabilities = reply.Capabilities
		ctx.State.BitPlatform = reply.BitPlatform
		ctx.State.Host = reply.ServerHost
		return ctx.Conn.SendReply(ctx.Rid, packHandshakeReply(reply))
	}
}

// compileHandler wraps Session.Compile: request is the SQL text,
// reply is the new statement's index.
func compileHandler(sess *session.Session) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		sql, _, _, err := wire.UnpackString(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking COMPILE text: %w", err)
		}
		idx, err := sess.Compile(sql)
		if err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, wire.PackInt(nil, int32(idx)))
	}
}

// executeHandler wraps Session.Execute: request is the statement
// index followed by the positional host variable list, reply is the
// affected/produced row count.
func executeHandler(sess *session.Session) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		idx, rest, err := wire.UnpackInt(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking EXECUTE statement index: %w", err)
		}
		hostVars, _, err := unpackLiteralList(rest)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking EXECUTE host variables: %w", err)
		}
		rows, err := sess.Execute(int(idx), hostVars)
		if err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, wire.PackBigint(nil, rows))
	}
}

func dropHandler(sess *session.Session) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		idx, _, err := wire.UnpackInt(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking DROP statement index: %w", err)
		}
		if err := sess.Drop(int(idx)); err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, nil)
	}
}

func dropAllHandler(sess *session.Session) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		if err := sess.DropAll(); err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, nil)
	}
}

// closeSessionHandler wraps Session.Close; the connection itself stays
// open (a client may still issue HANDSHAKE again on it), matching
// spec.md §4.4's "close" verb acting only on the statement book.
func closeSessionHandler(sess *session.Session) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		if err := sess.Close(); err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, nil)
	}
}

func statementCountHandler(sess *session.Session) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		return ctx.Conn.SendReply(ctx.Rid, wire.PackInt(nil, int32(sess.StatementCount())))
	}
}

// statementTypeHandler, columnTypesHandler, inputMarkersHandler, and
// outputMarkersHandler all address either an ordinary statement by
// index or a named prepared statement via unpackStatementRef
// (wireglue.go), falling through to the session's PreparedXxx twin
// when the reference names a prepared statement.
func statementTypeHandler(sess *session.Session) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		idx, name, isName, _, err := unpackStatementRef(ctx.Payload)
		if err != nil {
			return err
		}
		var kind session.Kind
		if isName {
			kind, err = sess.PreparedStatementType(name)
		} else {
			kind, err = sess.StatementType(idx)
		}
		if err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, wire.PackInt(nil, int32(kind)))
	}
}

func columnTypesHandler(sess *session.Session) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		idx, name, isName, _, err := unpackStatementRef(ctx.Payload)
		if err != nil {
			return err
		}
		var domains []expr.Domain
		if isName {
			domains, err = sess.PreparedColumnTypes(name)
		} else {
			domains, err = sess.ColumnTypes(idx)
		}
		if err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, packDomainList(nil, domains))
	}
}

func outputMarkersHandler(sess *session.Session) dispatch.Handler {
	// OUTPUT_MARKERS is Session.OutputMarkers, which is itself an
	// alias for ColumnTypes (session.go), so the wire handler is too.
	return columnTypesHandler(sess)
}

func inputMarkersHandler(sess *session.Session) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		idx, name, isName, _, err := unpackStatementRef(ctx.Payload)
		if err != nil {
			return err
		}
		var hv []expr.HostVarDomain
		if isName {
			hv, err = sess.PreparedInputMarkers(name)
		} else {
			hv, err = sess.InputMarkers(idx)
		}
		if err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, packHostVarDomainList(nil, hv))
	}
}
