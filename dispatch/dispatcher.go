package dispatch

import (
	"errors"
	"io"

	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/internal/logctx"
	"github.com/relaydb/qcore/netsvc"
	"github.com/relaydb/qcore/wire"
)

// UnilateralAborter is the collaborator ReturnErrorToClient calls when
// the current-thread error demands the owning transaction be
// unilaterally aborted (spec.md §4.3 step 3). Implemented by whatever
// owns the transaction (the session layer); dispatch only needs the
// one method.
type UnilateralAborter interface {
	UnilaterallyAbort()
}

// Dispatcher runs a Table against one or more connections, one request
// at a time per connection (spec.md §5 Scheduling: "a handler runs to
// completion before the next request on that connection begins").
type Dispatcher struct {
	Table  Table
	Logger logctx.Logger

	// Abort, if non-nil, is consulted by ReturnErrorToClient for every
	// connection Serve handles.
	Abort UnilateralAborter
}

// Serve reads requests off conn until it is closed or a protocol
// violation occurs, dispatching each to Table and replying (or
// reporting the error) before reading the next one.
func (d *Dispatcher) Serve(conn *netsvc.Conn) error {
	log := logctx.OrNop(d.Logger)
	state := &ConnState{}
	for {
		code, rid, payload, err := conn.RecvRequest()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			var inflight *netsvc.ErrRequestInFlight
			if errors.As(err, &inflight) {
				log.Printf("dispatch: protocol violation, closing connection: %s", err)
				return err
			}
			return err
		}
		ctx := &RequestContext{
			Conn:    conn,
			Rid:     rid,
			Code:    RequestCode(code),
			Payload: payload,
			State:   state,
		}
		h, ok := d.Table[ctx.Code]
		if !ok {
			h = unknownCodeHandler
		}
		if err := h(ctx); err != nil {
			if serr := ReturnErrorToClient(ctx, err, d.Abort); serr != nil {
				// A failed send after a successful compute is logged
				// but does not re-enter the error register: the
				// client is already gone (spec.md §7).
				log.Printf("dispatch: failed to send error reply for rid %d: %s", rid, serr)
			}
		}
	}
}

func unknownCodeHandler(ctx *RequestContext) error {
	return direrr.New(direrr.GenericError, "unrecognized request code")
}

// PackError packs an error's code and message the way C1 packs the
// error area (spec.md §4.3 step 3 / §7).
func PackError(buf []byte, err error) []byte {
	code := direrr.CodeOf(err)
	msg := err.Error()
	var ce *direrr.CoreError
	if errors.As(err, &ce) {
		msg = ce.Msg
	}
	buf = wire.PackInt(buf, int32(code))
	buf = wire.PackString(buf, msg, false)
	return buf
}

// ReturnErrorToClient is the only path from a handler to the wire on
// failure (spec.md §7). It triggers a unilateral abort when the error
// is LK_UNILATERALLY_ABORTED or DB_NO_MODIFICATIONS, arms
// reset_on_commit for DB_NO_MODIFICATIONS, records the error in the
// connection's thread-local register, and packs+sends it.
func ReturnErrorToClient(ctx *RequestContext, err error, abort UnilateralAborter) error {
	code := direrr.CodeOf(err)
	if code == direrr.LkUnilaterallyAborted || code == direrr.DbNoModifications {
		if abort != nil {
			abort.UnilaterallyAbort()
		}
	}
	if code == direrr.DbNoModifications {
		ctx.State.ResetOnCommit = true
	}
	var ce *direrr.CoreError
	if !errors.As(err, &ce) {
		ce = direrr.New(code, err.Error())
	}
	ctx.State.DBError = ce

	payload := PackError(nil, err)
	return ctx.Conn.SendReply(ctx.Rid, payload)
}
