package session

import (
	"errors"
	"testing"

	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/expr"
	"github.com/relaydb/qcore/plancache"
	"github.com/relaydb/qcore/wire"
)

// fakeSelectParser parses "SELECT ?" into a one-column Select whose
// single output is a negated HostVar so host-variable binding tests have
// something to coerce, and "SELECT 1" into a one-column Select of the
// literal 1; any other non-empty text parses to a bare IntLit(1)
// expression statement.
func fakeSelectParser(sql string) (expr.Node, error) {
	if sql == "" {
		return nil, errors.New("empty statement")
	}
	if sql == "SELECT ?" {
		hv := &expr.HostVar{Index: 1}
		// wrapped in a Unary so the checker's recordHostVar path fires;
		// a bare HostVar column never resolves to an expected domain.
		return &expr.Select{Columns: []expr.Node{&expr.Unary{Op: expr.Neg, Operand: hv}}}, nil
	}
	if sql == "SELECT 1" {
		lit := expr.IntLit(1)
		return &expr.Select{Columns: []expr.Node{lit}}, nil
	}
	return expr.IntLit(1), nil
}

func fakePlanner(n expr.Node) ([]byte, error) {
	return []byte("plan-for:" + n.String()), nil
}

type fakeRunner struct {
	invalidOnce bool
	calls       int
}

func (r *fakeRunner) Run(plan []byte, hostVars []*expr.Literal) (int64, error) {
	r.calls++
	if r.invalidOnce && r.calls == 1 {
		return 0, direrr.New(direrr.QprocInvalidXASLNode, "stale plan")
	}
	return int64(len(hostVars)), nil
}

func newTestSession(t *testing.T, cacheSize int, runner Runner) *Session {
	t.Helper()
	var cache *plancache.Cache
	if cacheSize > 0 {
		cache = plancache.New()
	}
	cfg := Config{
		User:            wire.OID{Volid: 1, Pageid: 2, Slotid: 3},
		Hint:            expr.NoHint,
		Options:         expr.DefaultOptions(),
		PlanCacheSize:   cacheSize,
		HostVarLateBind: true,
	}
	return Open(cfg, ParserFunc(fakeSelectParser), PlannerFunc(fakePlanner), runner, cache)
}

func TestCompileAndExecuteSimpleStatement(t *testing.T) {
	s := newTestSession(t, 64, &fakeRunner{})
	idx, err := s.Compile("SELECT 1")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if idx != 0 {
		t.Fatalf("index = %d, want 0", idx)
	}
	if s.StatementCount() != 1 {
		t.Fatalf("StatementCount = %d, want 1", s.StatementCount())
	}
	kind, err := s.StatementType(0)
	if err != nil || kind != KindSelect {
		t.Fatalf("StatementType = %v, %v, want KindSelect", kind, err)
	}
	rows, err := s.Execute(0, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rows != 0 {
		t.Fatalf("rows = %d, want 0 (no host vars)", rows)
	}
}

func TestExecuteBindsHostVarsByPosition(t *testing.T) {
	s := newTestSession(t, 64, &fakeRunner{})
	idx, err := s.Compile("SELECT ?")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	markers, err := s.InputMarkers(idx)
	if err != nil || len(markers) != 1 {
		t.Fatalf("InputMarkers = %v, %v", markers, err)
	}
	rows, err := s.Execute(idx, []*expr.Literal{expr.IntLit(42)})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}
}

func TestExecuteRetriesExactlyOnceOnInvalidXASLNode(t *testing.T) {
	runner := &fakeRunner{invalidOnce: true}
	s := newTestSession(t, 64, runner)
	idx, err := s.Compile("SELECT 1")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	rows, err := s.Execute(idx, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if rows != 0 {
		t.Fatalf("rows = %d, want 0", rows)
	}
	if runner.calls != 2 {
		t.Fatalf("runner called %d times, want exactly 2 (one retry)", runner.calls)
	}
}

func TestDropReleasesPlanAndIsIdempotent(t *testing.T) {
	s := newTestSession(t, 64, &fakeRunner{})
	idx, _ := s.Compile("SELECT 1")
	if err := s.Drop(idx); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if err := s.Drop(idx); err != nil {
		t.Fatalf("second Drop (idempotent) failed: %v", err)
	}
	if err := s.Drop(999); err != nil {
		t.Fatalf("Drop out of range should be a no-op: %v", err)
	}
}

func TestCloseIsIdempotentAndBlocksFurtherUse(t *testing.T) {
	s := newTestSession(t, 64, &fakeRunner{})
	s.Compile("SELECT 1")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close (idempotent) failed: %v", err)
	}
	if _, err := s.Compile("SELECT 1"); direrr.CodeOf(err) != direrr.InvalidSession {
		t.Fatalf("Compile after Close = %v, want InvalidSession", err)
	}
}

func TestStatementAtOutOfRange(t *testing.T) {
	s := newTestSession(t, 64, &fakeRunner{})
	if _, err := s.Execute(0, nil); direrr.CodeOf(err) != direrr.ObjInvalidArguments {
		t.Fatalf("Execute on empty session = %v, want ObjInvalidArguments", err)
	}
}
