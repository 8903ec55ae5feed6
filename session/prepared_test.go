package session

import (
	"testing"

	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/expr"
)

func TestPrepareExecuteDeallocate(t *testing.T) {
	s := newTestSession(t, 64, &fakeRunner{})
	if err := s.Prepare("stmt1", "SELECT ?"); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	rows, err := s.ExecutePrepared("STMT1", []*expr.Literal{expr.IntLit(7)})
	if err != nil {
		t.Fatalf("ExecutePrepared: %v", err)
	}
	if rows != 1 {
		t.Fatalf("rows = %d, want 1", rows)
	}

	if err := s.Deallocate("stmt1"); err != nil {
		t.Fatalf("Deallocate: %v", err)
	}
	// metadata must still be answerable after DEALLOCATE.
	kind, err := s.PreparedStatementType("stmt1")
	if err != nil || kind != KindSelect {
		t.Fatalf("PreparedStatementType after Deallocate = %v, %v", kind, err)
	}
	if _, err := s.ExecutePrepared("stmt1", nil); direrr.CodeOf(err) != direrr.PreparedNameNotFound {
		t.Fatalf("ExecutePrepared after Deallocate = %v, want PreparedNameNotFound", err)
	}
}

func TestPrepareSilentlyReplacesSameName(t *testing.T) {
	s := newTestSession(t, 64, &fakeRunner{})
	if err := s.Prepare("p", "SELECT 1"); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := s.Prepare("p", "SELECT ?"); err != nil {
		t.Fatalf("Prepare (replace): %v", err)
	}
	markers, err := s.PreparedInputMarkers("p")
	if err != nil || len(markers) != 1 {
		t.Fatalf("PreparedInputMarkers = %v, %v, want the replaced statement's one marker", markers, err)
	}
}

func TestExecutePreparedRejectsWrongArgCount(t *testing.T) {
	s := newTestSession(t, 64, &fakeRunner{})
	if err := s.Prepare("p", "SELECT ?"); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	_, err := s.ExecutePrepared("p", nil)
	if direrr.CodeOf(err) != direrr.IncorrectHostvarCount {
		t.Fatalf("err = %v, want IncorrectHostvarCount", err)
	}
}

func TestDeallocateUnknownNameFails(t *testing.T) {
	s := newTestSession(t, 64, &fakeRunner{})
	if err := s.Deallocate("nope"); direrr.CodeOf(err) != direrr.PreparedNameNotFound {
		t.Fatalf("err = %v, want PreparedNameNotFound", err)
	}
}

func TestExecutePreparedRecompilesWhenPlanCacheDisabled(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestSession(t, 0, runner) // plan cache disabled
	if err := s.Prepare("p", "SELECT ?"); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if _, err := s.ExecutePrepared("p", []*expr.Literal{expr.IntLit(1)}); err != nil {
		t.Fatalf("ExecutePrepared: %v", err)
	}
	if runner.calls != 1 {
		t.Fatalf("runner called %d times, want 1", runner.calls)
	}
}
