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
	"github.com/relaydb/qcore/wire"
)

func serialNextHandler(storage Storage) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		name, _, _, err := wire.UnpackString(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking SERIAL_NEXT name: %w", err)
		}
		next, err := storage.SerialNext(name)
		if err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, wire.PackBigint(nil, next))
	}
}

func checkDBHandler(storage Storage) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		if err := storage.CheckDB(); err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, nil)
	}
}

func killTranHandler(storage Storage) dispatch.Handler {
	return func(ctx *dispatch.RequestContext) error {
		id, _, err := wire.UnpackInt(ctx.Payload)
		if err != nil {
			return fmt.Errorf("qserverd: unpacking KILL_TRAN id: %w", err)
		}
		if err := storage.KillTran(id); err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, nil)
	}
}
