// Package netsvc implements the framed client/server connection used to
// carry one request/reply exchange per round trip: `Conn` wraps a
// net.Conn (or any io.ReadWriteCloser) and frames every message as
// `u32 kind | u32 rid | u32 payload_len | payload` (payload word-padded
// via the wire package). A per-Conn mutex serializes writes so replies
// and server pushes on one connection are never interleaved, and a
// per-rid in-flight guard enforces "at most one outstanding handler per
// rid" at a time.
//
// Grounded on the teacher's tenant/tnproto header-then-payload framing
// idiom (magic-validated fixed header followed by an io.ReadFull'd
// payload): this package keeps that shape but frames a request/reply
// protocol instead of a tenant-attach handshake, since tenant
// attach/routing itself belongs to the sandboxing layer this spec
// excludes (see DESIGN.md).
package netsvc
