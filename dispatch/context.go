package dispatch

import (
	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/netsvc"
)

// ClientKind distinguishes the categories of client the commit/abort
// decision table (spec.md §4.3) treats differently.
type ClientKind int

const (
	ClientNormal ClientKind = iota
	ClientSlaveOnlyBroker
	ClientBroker
)

// HAState is the replication state of the server side of the
// connection, also consulted by the commit/abort decision table.
type HAState int

const (
	HAActive HAState = iota
	HAToBeStandby
	HAStandby
)

// ConnState is the per-connection state a handler thread owns while it
// is running: the last recorded error, the reset_on_commit latch, and
// the negotiated handshake parameters. Spec.md §5: "Connection state
// (db_error, reset_on_commit) is written only by the handler thread
// currently owning the connection" -- so ConnState carries no locking
// of its own; Dispatcher.Serve's one-handler-at-a-time loop is what
// makes that safe.
type ConnState struct {
	// ResetOnCommit is the latch DB_NO_MODIFICATIONS / the
	// TO_BE_STANDBY decision-table rows set; a later commit that
	// observes it demotes the client to standby and clears it.
	ResetOnCommit bool

	// HasUpdated records whether the current transaction has made any
	// modification, consulted by the commit decision table.
	HasUpdated bool

	HA     HAState
	Client ClientKind

	// DBError is the current-thread error register return_error_to_client
	// reads (spec.md §7: "per-thread error register").
	DBError *direrr.CoreError

	// Release/Capabilities/BitPlatform/Host are filled in by Handshake.
	Release      string
	Capabilities Capability
	BitPlatform  uint32
	Host         string
}

// RequestContext is passed to every Handler. Conn and Rid identify
// where to send a reply or push; State is this connection's
// ConnState; Payload is the request's still-packed argument buffer
// (handlers nocopy-unpack it with the wire package per spec.md §4.3
// step 1).
type RequestContext struct {
	Conn    *netsvc.Conn
	Rid     uint32
	Code    RequestCode
	Payload []byte
	State   *ConnState
}

// Handler serves one request. A non-nil error is handled by
// ReturnErrorToClient instead of letting the handler write its own
// reply (spec.md §4.3 step 3: "return_error_to_client ... is the only
// path from a handler to the wire" on failure).
type Handler func(ctx *RequestContext) error

// Table maps request codes to the handler that serves them.
type Table map[RequestCode]Handler
