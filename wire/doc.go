// Package wire implements the pack/unpack codec for the request/reply
// payload format: every value is word-aligned (4-byte boundary) and,
// where the receiver cannot know the type ahead of time, self-describing
// through a type tag that occupies one word (PackValue/UnpackValue).
//
// Every Pack* function appends to the buffer it is given and returns
// the extended buffer (each value adds a multiple of 4 bytes); every
// Unpack* function takes the remaining buffer and returns the decoded
// value plus the rest of the buffer after it. The
// *Nocopy unpack variants alias the input slice instead of cloning it;
// everything else clones, mirroring the teacher's ion decode/copy split
// (expr/copy.go) applied to wire values instead of AST nodes.
package wire
