package dispatch

import (
	"bytes"
	"fmt"

	"github.com/relaydb/qcore/netsvc"
	"github.com/relaydb/qcore/wire"
)

// Chunk-count and chunk-body push tags for BackupDumpHandler.
const (
	PushDumpChunkCount netsvc.PushTag = iota + 1
	PushDumpChunk
)

// DumpSource renders server-side formatted text (a backup manifest, a
// schema dump, ...) into w.
type DumpSource interface {
	Dump(w *bytes.Buffer) error
}

// BackupDumpHandler renders source into a buffer, then streams it back
// in fixed-size chunks: the chunk count is precomputed and pushed
// first, followed by one push per chunk, followed by the final empty
// reply (spec.md §4.3).
func BackupDumpHandler(chunkSize int, source DumpSource) Handler {
	if chunkSize <= 0 {
		panic("dispatch: BackupDumpHandler: chunkSize must be positive")
	}
	return func(ctx *RequestContext) error {
		var buf bytes.Buffer
		if err := source.Dump(&buf); err != nil {
			return err
		}
		data := buf.Bytes()
		chunkCount := (len(data) + chunkSize - 1) / chunkSize

		if err := ctx.Conn.ServerPush(ctx.Rid, PushDumpChunkCount, wire.PackInt(nil, int32(chunkCount))); err != nil {
			return fmt.Errorf("dispatch: pushing dump chunk count: %w", err)
		}
		for i := 0; i < chunkCount; i++ {
			start := i * chunkSize
			end := start + chunkSize
			if end > len(data) {
				end = len(data)
			}
			if err := ctx.Conn.ServerPush(ctx.Rid, PushDumpChunk, data[start:end]); err != nil {
				return fmt.Errorf("dispatch: pushing dump chunk %d/%d: %w", i+1, chunkCount, err)
			}
		}
		return ctx.Conn.SendReply(ctx.Rid, nil)
	}
}
