package querymgr

import (
	"fmt"
	"time"

	"testing"

	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/expr"
	"github.com/relaydb/qcore/plancache"
	"github.com/relaydb/qcore/tempfile"
	"github.com/relaydb/qcore/wire"
)

// pageExecutor writes n pages of one byte each, polling Interrupted
// between pages, and optionally fails on the last one.
type pageExecutor struct {
	n       int
	delay   time.Duration
	failAs  direrr.ErrCode // zero means succeed
	stopped chan struct{}  // closed when Execute observes interrupt, if non-nil
}

func (p *pageExecutor) Execute(plan []byte, hostVars []*expr.Literal, out *tempfile.TempFile) (int64, error) {
	var rows int64
	for i := 0; i < p.n; i++ {
		if out.Interrupted() {
			if p.stopped != nil {
				close(p.stopped)
			}
			return rows, nil
		}
		if p.delay > 0 {
			time.Sleep(p.delay)
		}
		if _, err := out.Put([]byte{byte(i)}); err != nil {
			return rows, err
		}
		rows++
	}
	if p.failAs != 0 {
		return rows, direrr.New(p.failAs, "producer failed")
	}
	return rows, nil
}

func newManager(exec Executor) *Manager {
	return NewManager(plancache.New(), tempfile.NewPool(8, tempfile.NewMemSpillStore()), exec)
}

func installPlan(t *testing.T, m *Manager, text string) plancache.PlanID {
	t.Helper()
	id, err := m.Cache.Prepare(text, wire.OID{}, []byte("plan-bytes:"+text))
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return id
}

func TestExecuteQuerySyncWaitsForCompletion(t *testing.T) {
	m := newManager(&pageExecutor{n: 3})
	id := installPlan(t, m, "SELECT * FROM t")

	res, err := m.ExecuteQuery(id, nil, Sync, wire.CacheTime{})
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if !res.HadRows || len(res.FirstPage) != 1 || res.FirstPage[0] != 0 {
		t.Fatalf("first page = %+v", res)
	}
	info, err := m.GetQueryInfo(res.QueryID)
	if err != nil {
		t.Fatalf("GetQueryInfo: %v", err)
	}
	if info.Mode != Completed || info.RowCount != 3 {
		t.Fatalf("info = %+v, want Completed/3 rows", info)
	}
}

func TestExecuteQueryAsyncStreamsRemainingPages(t *testing.T) {
	m := newManager(&pageExecutor{n: 3, delay: 5 * time.Millisecond})
	id := installPlan(t, m, "SELECT * FROM t")

	res, err := m.ExecuteQuery(id, nil, Async, wire.CacheTime{})
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if !res.HadRows {
		t.Fatal("want first page produced")
	}
	for i := 1; i < 3; i++ {
		data, err := m.GetListFilePage(res.QueryID, tempfile.PageID(i))
		if err != nil {
			t.Fatalf("GetListFilePage %d: %v", i, err)
		}
		if len(data) != 1 || data[0] != byte(i) {
			t.Fatalf("page %d = %v", i, data)
		}
	}
	if _, err := m.SyncQuery(res.QueryID, true); err != nil {
		t.Fatalf("SyncQuery: %v", err)
	}
	if err := m.EndQuery(res.QueryID); err != nil {
		t.Fatalf("EndQuery: %v", err)
	}
	// idempotent
	if err := m.EndQuery(res.QueryID); err != nil {
		t.Fatalf("EndQuery (2nd): %v", err)
	}
}

func TestExecuteQueryCacheTimeShortCircuits(t *testing.T) {
	m := newManager(&pageExecutor{n: 1})
	id := installPlan(t, m, "SELECT * FROM t")
	now := wire.CacheTime{Sec: 100, Usec: 0}
	m.SetCacheTime(now)

	res, err := m.ExecuteQuery(id, nil, Sync, now)
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}
	if res.HadRows || res.FirstPage != nil || res.QueryID != 0 {
		t.Fatalf("expected empty result carrier, got %+v", res)
	}
	if res.ServerCacheTime != now {
		t.Fatalf("ServerCacheTime = %+v, want %+v", res.ServerCacheTime, now)
	}
}

func TestExecuteQueryUnknownPlanIDFails(t *testing.T) {
	m := newManager(&pageExecutor{n: 1})
	_, err := m.ExecuteQuery(plancache.PlanID{0xff}, nil, Sync, wire.CacheTime{})
	if direrr.CodeOf(err) != direrr.QprocInvalidXASLNode {
		t.Fatalf("err = %v, want QprocInvalidXASLNode", err)
	}
}

func TestInterruptStopsAsyncProducerAndGetListFilePageFails(t *testing.T) {
	stopped := make(chan struct{})
	m := newManager(&pageExecutor{n: 1000, delay: time.Millisecond, stopped: stopped})
	id := installPlan(t, m, "SELECT * FROM big")

	res, err := m.ExecuteQuery(id, nil, Async, wire.CacheTime{})
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}

	// drain a few pages first.
	for i := 1; i <= 3; i++ {
		if _, err := m.GetListFilePage(res.QueryID, tempfile.PageID(i)); err != nil {
			t.Fatalf("GetListFilePage %d: %v", i, err)
		}
	}

	if err := m.Interrupt(res.QueryID); err != nil {
		t.Fatalf("Interrupt: %v", err)
	}
	if _, err := m.GetListFilePage(res.QueryID, tempfile.PageID(1)); direrr.CodeOf(err) != direrr.Interrupted {
		t.Fatalf("GetListFilePage after Interrupt = %v, want Interrupted", err)
	}

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("producer never observed interrupt")
	}

	// second Interrupt call after completion must be a no-op, not an error.
	if err := m.Interrupt(res.QueryID); err != nil {
		t.Fatalf("Interrupt (after completion): %v", err)
	}

	if err := m.EndQuery(res.QueryID); err != nil {
		t.Fatalf("EndQuery: %v", err)
	}
}

func TestGetListFilePageUnknownQueryIDFails(t *testing.T) {
	m := newManager(&pageExecutor{n: 1})
	_, err := m.GetListFilePage(999, 0)
	if direrr.CodeOf(err) != direrr.ObjInvalidArguments {
		t.Fatalf("err = %v, want ObjInvalidArguments", err)
	}
}

func TestProducerErrorIsFrozenUntilAcknowledged(t *testing.T) {
	m := newManager(&pageExecutor{n: 1, failAs: direrr.ZeroDivide})
	id := installPlan(t, m, "SELECT 1/0")

	res, err := m.ExecuteQuery(id, nil, Sync, wire.CacheTime{})
	if err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}

	info, err := m.GetQueryInfo(res.QueryID)
	if err != nil {
		t.Fatalf("GetQueryInfo: %v", err)
	}
	if info.Err == nil || info.Err.Code != direrr.ZeroDivide {
		t.Fatalf("info.Err = %v, want ZeroDivide", info.Err)
	}

	// error survives a second read until acknowledged.
	info2, _ := m.GetQueryInfo(res.QueryID)
	if info2.Err == nil {
		t.Fatal("error cleared before acknowledgement")
	}

	if err := m.AcknowledgeError(res.QueryID); err != nil {
		t.Fatalf("AcknowledgeError: %v", err)
	}
	info3, _ := m.GetQueryInfo(res.QueryID)
	if info3.Err != nil {
		t.Fatalf("error not cleared after acknowledgement: %v", info3.Err)
	}
}

func TestUnilaterallyAbortedNotifiesAborter(t *testing.T) {
	aborted := make(chan struct{})
	m := newManager(&pageExecutor{n: 0, failAs: direrr.LkUnilaterallyAborted})
	m.Aborter = abortFunc(func() { close(aborted) })
	id := installPlan(t, m, "UPDATE t SET x=1")

	if _, err := m.ExecuteQuery(id, nil, Sync, wire.CacheTime{}); err != nil {
		t.Fatalf("ExecuteQuery: %v", err)
	}

	select {
	case <-aborted:
	case <-time.After(time.Second):
		t.Fatal("Aborter never notified")
	}
}

type abortFunc func()

func (f abortFunc) AbortUnilaterally() { f() }

func TestPrepareAndExecute(t *testing.T) {
	m := newManager(&pageExecutor{n: 1})
	res, err := m.PrepareAndExecute("SELECT 1", wire.OID{}, []byte("plan"), nil, Sync, wire.CacheTime{})
	if err != nil {
		t.Fatalf("PrepareAndExecute: %v", err)
	}
	if !res.HadRows {
		t.Fatal("want a row")
	}
}

func TestExecuteQueryRejectsCompletedMode(t *testing.T) {
	m := newManager(&pageExecutor{n: 1})
	id := installPlan(t, m, "SELECT 1")
	_, err := m.ExecuteQuery(id, nil, Completed, wire.CacheTime{})
	if direrr.CodeOf(err) != direrr.ObjInvalidArguments {
		t.Fatalf("err = %v, want ObjInvalidArguments", err)
	}
}

func TestModeString(t *testing.T) {
	for _, tc := range []struct {
		m    Mode
		want string
	}{{Sync, "SYNC"}, {Async, "ASYNC"}, {Completed, "COMPLETED"}, {Mode(99), "UNKNOWN"}} {
		if got := fmt.Sprint(tc.m); got != tc.want {
			t.Fatalf("Mode(%d).String() = %q, want %q", tc.m, got, tc.want)
		}
	}
}
