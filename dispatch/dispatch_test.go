package dispatch

import (
	"net"
	"testing"

	"github.com/relaydb/qcore/netsvc"
)

type testLogger struct{ t *testing.T }

func (l testLogger) Printf(format string, args ...interface{}) { l.t.Logf(format, args...) }

func pipeConns(t *testing.T) (client, server *netsvc.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { a.Close(); b.Close() })
	return netsvc.NewConn(a, testLogger{t}), netsvc.NewConn(b, testLogger{t})
}
