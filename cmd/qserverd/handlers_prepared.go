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
	"github.com/relaydb/qcore/session"
	"github.com/relaydb/qcore/wire"
)

// prepareHandler wraps Session.Prepare: request is name(str) | sql(str).
func prepareHandler(sess *session.Session) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		name, _, rest, err := wire.UnpackString(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking PREPARE name: %w", err)
		}
		sql, _, _, err := wire.UnpackString(rest)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking PREPARE text: %w", err)
		}
		if err := sess.Prepare(name, sql); err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, nil)
	}
}

// executePreparedHandler wraps Session.ExecutePrepared: request is
// name(str) | host variable list, reply is the row count.
func executePreparedHandler(sess *session.Session) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		name, _, rest, err := wire.UnpackString(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking EXECUTE_PREPARED name: %w", err)
		}
		args, _, err := unpackLiteralList(rest)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking EXECUTE_PREPARED host variables: %w", err)
		}
		rows, err := sess.ExecutePrepared(name, args)
		if err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, wire.PackBigint(nil, rows))
	}
}

func deallocateHandler(sess *session.Session) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		name, _, _, err := wire.UnpackString(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking DEALLOCATE name: %w", err)
		}
		if err := sess.Deallocate(name); err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, nil)
	}
}
