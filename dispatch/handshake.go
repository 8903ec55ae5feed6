package dispatch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/relaydb/qcore/direrr"
)

// Capability is the client/server capability bitmask exchanged during
// Handshake (spec.md §6).
type Capability uint32

const (
	InterruptEnabled Capability = 1 << iota
	UpdateDisabled
	RemoteDisabled
	ForwardCompatible
	BackwardCompatible
)

// HandshakeRequest is the client's half of the handshake payload
// (spec.md §6): release(str) | capabilities(u32) | bit_platform(u32) | host(str).
type HandshakeRequest struct {
	Release      string
	Capabilities Capability
	BitPlatform  uint32
	Host         string
}

// HandshakeReply is the server's half: server_release(str) | ""(str) |
// server_capabilities(u32) | server_bit_platform(u32) | server_host(str).
// The empty string field is a wire placeholder the original protocol
// reserves between the two release strings; it carries no information
// here and is always "".
type HandshakeReply struct {
	ServerRelease string
	Capabilities  Capability
	BitPlatform   uint32
	ServerHost    string
}

// ServerIdentity is the fixed release/capabilities/bit-platform/host
// this server advertises; Handshake negotiates a client's request
// against it.
type ServerIdentity struct {
	Release      string
	Capabilities Capability
	BitPlatform  uint32
	Host         string
}

// release is a parsed "major.minor" version string, ordered by major
// then minor.
type release struct{ major, minor int }

func parseRelease(s string) (release, bool) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return release{}, false
	}
	maj, err1 := strconv.Atoi(major)
	min, err2 := strconv.Atoi(minor)
	if err1 != nil || err2 != nil {
		return release{}, false
	}
	return release{maj, min}, true
}

func (a release) less(b release) bool {
	if a.major != b.major {
		return a.major < b.major
	}
	return a.minor < b.minor
}

// Handshake negotiates release string, capability bitmask, and
// bit-platform width per spec.md §4.3/§6.
//
// A bit-platform mismatch or an unparseable release is fatal
// (NetDifferentBitPlatform / NetServerHandShake); an incompatible
// release ordering without the matching compatibility bit is fatal
// (NetDifferentRelease). Otherwise the reply carries the server's own
// release/host and a capability set intersected with the server's,
// with UPDATE_DISABLED/REMOTE_DISABLED subtracted from the client's
// granted bits whenever the server asserts them.
func Handshake(server ServerIdentity, req HandshakeRequest) (HandshakeReply, error) {
	if req.BitPlatform != server.BitPlatform {
		return HandshakeReply{}, direrr.New(direrr.NetDifferentBitPlatform,
			fmt.Sprintf("client bit_platform=%d, server bit_platform=%d", req.BitPlatform, server.BitPlatform))
	}

	clientRel, ok1 := parseRelease(req.Release)
	serverRel, ok2 := parseRelease(server.Release)
	if !ok1 || !ok2 {
		return HandshakeReply{}, direrr.New(direrr.NetServerHandShake,
			fmt.Sprintf("unrecognized release: client=%q server=%q", req.Release, server.Release))
	}

	switch {
	case clientRel == serverRel:
		// exact match, nothing further to check
	case clientRel.less(serverRel):
		// client is older than the server: the client must declare it
		// can talk forward to a newer server
		if req.Capabilities&ForwardCompatible == 0 {
			return HandshakeReply{}, direrr.New(direrr.NetDifferentRelease,
				fmt.Sprintf("client release %q is older than server release %q and did not set FORWARD_COMPATIBLE", req.Release, server.Release))
		}
	default:
		// client is newer than the server: the client must declare it
		// can talk backward to an older server
		if req.Capabilities&BackwardCompatible == 0 {
			return HandshakeReply{}, direrr.New(direrr.NetDifferentRelease,
				fmt.Sprintf("client release %q is newer than server release %q and did not set BACKWARD_COMPATIBLE", req.Release, server.Release))
		}
	}

	caps := req.Capabilities & server.Capabilities
	caps &^= server.Capabilities & (UpdateDisabled | RemoteDisabled)

	return HandshakeReply{
		ServerRelease: server.Release,
		Capabilities:  caps,
		BitPlatform:   server.BitPlatform,
		ServerHost:    server.Host,
	}, nil
}
