package netsvc

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/relaydb/qcore/wire"
)

// frame kinds. The client sends kindRequest and kindData (the follow-up
// blobs RecvData reads); the server sends the rest.
const (
	kindRequest byte = iota
	kindReply
	kindReplyData
	kindAbort
	kindPush
	kindData
)

// Exported aliases of the frame kinds, for callers of RecvReply that
// need to distinguish a normal reply from a push or an abort.
const (
	KindReply     = kindReply
	KindReplyData = kindReplyData
	KindAbort     = kindAbort
	KindPush      = kindPush
	KindData      = kindData
)

const frameHeaderSize = 12 // kind word + rid word + length word

// MaxPayloadSize bounds a single frame's payload so a corrupt length
// word cannot make RecvRequest allocate unboundedly.
const MaxPayloadSize = 64 << 20

// PushTag identifies the kind of out-of-band message ServerPush sends
// while a handler for some rid is still running (e.g. a progress
// notification or an async interrupt acknowledgement).
type PushTag uint32

// Logger is the minimal logging collaborator Conn takes instead of
// calling log.Printf directly (spec.md AMBIENT STACK, mirroring the
// teacher's tenant/dcache.Logger).
type Logger interface {
	Printf(format string, args ...interface{})
}

// Conn is a framed connection carrying one request/reply exchange per
// round trip, with zero or more server pushes and follow-up data reads
// interleaved per rid.
type Conn struct {
	rwc io.ReadWriteCloser
	log Logger

	writeMu sync.Mutex

	inflightMu sync.Mutex
	inflight   map[uint32]bool
}

// NewConn wraps rwc (typically a net.Conn) in the request/reply framing.
func NewConn(rwc io.ReadWriteCloser, log Logger) *Conn {
	return &Conn{rwc: rwc, log: log, inflight: make(map[uint32]bool)}
}

func (c *Conn) Close() error { return c.rwc.Close() }

// ErrRequestInFlight is returned by RecvRequest when the client sends a
// second request on an rid whose handler has not yet replied (spec.md
// §5 Ordering: "at most one outstanding handler per rid").
type ErrRequestInFlight struct{ Rid uint32 }

func (e *ErrRequestInFlight) Error() string {
	return fmt.Sprintf("netsvc: rid %d already has a request in flight", e.Rid)
}

func readFrame(r io.Reader) (kind byte, rid uint32, payload []byte, err error) {
	var hdr [frameHeaderSize]byte
	if _, err = io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, nil, err
	}
	kindWord := binary.BigEndian.Uint32(hdr[0:4])
	rid = binary.BigEndian.Uint32(hdr[4:8])
	length := binary.BigEndian.Uint32(hdr[8:12])
	if length > MaxPayloadSize {
		return 0, 0, nil, fmt.Errorf("netsvc: frame payload %d exceeds MaxPayloadSize", length)
	}
	padded := wire.SizeOfAligned(int(length))
	buf := make([]byte, padded)
	if padded > 0 {
		if _, err = io.ReadFull(r, buf); err != nil {
			return 0, 0, nil, err
		}
	}
	return byte(kindWord), rid, buf[:length], nil
}

func writeFrame(w io.Writer, kind byte, rid uint32, payload []byte) error {
	var hdr [frameHeaderSize]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(kind))
	binary.BigEndian.PutUint32(hdr[4:8], rid)
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	padded := wire.SizeOfAligned(len(payload))
	buf := make([]byte, padded)
	copy(buf, payload)
	if padded > 0 {
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// RecvRequest reads the next client request frame, marking its rid
// in-flight. A request arriving on an rid that is already in flight is
// an ErrRequestInFlight protocol violation (spec.md §5 Ordering).
func (c *Conn) RecvRequest() (code uint32, rid uint32, payload []byte, err error) {
	kind, rid, payload, err := readFrame(c.rwc)
	if err != nil {
		return 0, 0, nil, err
	}
	if kind != kindRequest {
		return 0, 0, nil, fmt.Errorf("netsvc: expected request frame, got kind %d", kind)
	}
	code = binary.BigEndian.Uint32(payload[:4])
	body := payload[4:]

	c.inflightMu.Lock()
	already := c.inflight[rid]
	if !already {
		c.inflight[rid] = true
	}
	c.inflightMu.Unlock()
	if already {
		return 0, 0, nil, &ErrRequestInFlight{Rid: rid}
	}
	return code, rid, body, nil
}

// SendRequest writes a client-side request frame: used by test harnesses
// and by any in-process client of this package (the real CUBRID-style
// client driver is out of scope, spec.md §1 non-goals).
func (c *Conn) SendRequest(code, rid uint32, body []byte) error {
	payload := make([]byte, 0, len(body)+4)
	payload = wire.PackInt(payload, int32(code))
	payload = append(payload, body...)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeFrame(c.rwc, kindRequest, rid, payload)
}

// RecvReply reads the next reply frame from the connection; used by a
// client-side caller after SendRequest.
func (c *Conn) RecvReply() (kind byte, rid uint32, payload []byte, err error) {
	return readFrame(c.rwc)
}

func (c *Conn) clearInflight(rid uint32) {
	c.inflightMu.Lock()
	delete(c.inflight, rid)
	c.inflightMu.Unlock()
}

// SendReply writes the final reply for rid and clears its in-flight
// marker, allowing the client to issue a new request on the same rid.
func (c *Conn) SendReply(rid uint32, buf []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	defer c.clearInflight(rid)
	return writeFrame(c.rwc, kindReply, rid, buf)
}

// SendReplyAndData writes a reply together with up to three trailing
// out-of-line blobs (e.g. a large-object fetch's header plus its
// chunked body, spec.md §4.3), each length-prefixed within the frame.
func (c *Conn) SendReplyAndData(rid uint32, reply []byte, blobs ...[]byte) error {
	if len(blobs) > 3 {
		return fmt.Errorf("netsvc: SendReplyAndData: got %d trailing blobs, max 3", len(blobs))
	}
	payload := make([]byte, 0, len(reply)+32)
	payload = wire.PackInt(payload, int32(len(reply)))
	payload = append(payload, reply...)
	payload = wire.PackInt(payload, int32(len(blobs)))
	for _, b := range blobs {
		payload = wire.PackInt(payload, int32(len(b)))
		payload = append(payload, b...)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	defer c.clearInflight(rid)
	return writeFrame(c.rwc, kindReplyData, rid, payload)
}

// SendAbort tells the client rid's handler aborted without a normal
// reply (spec.md §4.3 unilateral-abort path) and clears its in-flight
// marker.
func (c *Conn) SendAbort(rid uint32) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	defer c.clearInflight(rid)
	return writeFrame(c.rwc, kindAbort, rid, nil)
}

// RecvData reads one follow-up data frame for rid (e.g. a client
// streaming a large-object write in chunks after the initial request).
// It does not touch the in-flight marker: the handler that called
// RecvRequest is still responsible for eventually replying.
func (c *Conn) RecvData(rid uint32) ([]byte, error) {
	kind, gotRid, payload, err := readFrame(c.rwc)
	if err != nil {
		return nil, err
	}
	if kind != kindData {
		return nil, fmt.Errorf("netsvc: expected data frame, got kind %d", kind)
	}
	if gotRid != rid {
		return nil, fmt.Errorf("netsvc: data frame rid %d does not match expected %d", gotRid, rid)
	}
	return payload, nil
}

// ServerPush sends an out-of-band, tagged message to the client while
// rid's handler is still running (e.g. a progress notification). It
// does not affect rid's in-flight status.
func (c *Conn) ServerPush(rid uint32, tag PushTag, payload []byte) error {
	buf := make([]byte, 0, len(payload)+4)
	buf = wire.PackInt(buf, int32(tag))
	buf = append(buf, payload...)
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return writeFrame(c.rwc, kindPush, rid, buf)
}
