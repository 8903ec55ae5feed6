package dispatch

import (
	"fmt"

	"github.com/relaydb/qcore/wire"
)

// BlobStore is the storage collaborator the large-object handlers
// call into. Its four methods mirror the read/write/insert/append
// verbs spec.md §4.3 names; the storage engine behind it is out of
// this repo's scope (spec.md non-goals).
type BlobStore interface {
	ReadLOB(loid wire.OID, offset int64, length int32) (data []byte, actualLength int32, err error)
	WriteLOB(loid wire.OID, offset int64, data []byte) error
	InsertLOB(loid wire.OID, offset int64, data []byte) error
	AppendLOB(loid wire.OID, data []byte) error
}

// unpackLOBHeader reads the (offset:64, length:32, LOID) header every
// large-object request carries ahead of its payload blob.
func unpackLOBHeader(buf []byte) (offset int64, length int32, loid wire.OID, rest []byte, err error) {
	offset, rest, err = wire.UnpackBigint(buf)
	if err != nil {
		return 0, 0, wire.OID{}, nil, fmt.Errorf("dispatch: unpacking LOB offset: %w", err)
	}
	length, rest, err = wire.UnpackInt(rest)
	if err != nil {
		return 0, 0, wire.OID{}, nil, fmt.Errorf("dispatch: unpacking LOB length: %w", err)
	}
	loid, rest, err = wire.UnpackOID(rest)
	if err != nil {
		return 0, 0, wire.OID{}, nil, fmt.Errorf("dispatch: unpacking LOB identifier: %w", err)
	}
	return offset, length, loid, rest, nil
}

// LargeObjectReadHandler allocates a result buffer of the requested
// length on the server and returns actual_length plus the bytes read.
func LargeObjectReadHandler(store BlobStore) Handler {
	return func(ctx *RequestContext) error {
		offset, length, loid, _, err := unpackLOBHeader(ctx.Payload)
		if err != nil {
			return err
		}
		data, actual, err := store.ReadLOB(loid, offset, length)
		if err != nil {
			return err
		}
		reply := wire.PackInt(nil, actual)
		return ctx.Conn.SendReplyAndData(ctx.Rid, reply, data)
	}
}

// LargeObjectWriteHandler pulls the payload blob the client streams
// after the request header and overwrites loid's contents at offset.
func LargeObjectWriteHandler(store BlobStore) Handler {
	return largeObjectBlobHandler(store.WriteLOB)
}

// LargeObjectInsertHandler pulls the payload blob and inserts it at
// offset, shifting any existing data after it.
func LargeObjectInsertHandler(store BlobStore) Handler {
	return largeObjectBlobHandler(store.InsertLOB)
}

// LargeObjectAppendHandler pulls the payload blob and appends it,
// ignoring the request header's offset (append always targets the end).
func LargeObjectAppendHandler(store BlobStore) Handler {
	return func(ctx *RequestContext) error {
		_, _, loid, _, err := unpackLOBHeader(ctx.Payload)
		if err != nil {
			return err
		}
		blob, err := ctx.Conn.RecvData(ctx.Rid)
		if err != nil {
			return fmt.Errorf("dispatch: receiving LOB append payload: %w", err)
		}
		if err := store.AppendLOB(loid, blob); err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, nil)
	}
}

func largeObjectBlobHandler(write func(loid wire.OID, offset int64, data []byte) error) Handler {
	return func(ctx *RequestContext) error {
		offset, _, loid, _, err := unpackLOBHeader(ctx.Payload)
		if err != nil {
			return err
		}
		blob, err := ctx.Conn.RecvData(ctx.Rid)
		if err != nil {
			return fmt.Errorf("dispatch: receiving LOB payload: %w", err)
		}
		if err := write(loid, offset, blob); err != nil {
			return err
		}
		return ctx.Conn.SendReply(ctx.Rid, nil)
	}
}
