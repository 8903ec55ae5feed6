package plancache

import (
	"sync"
	"testing"

	"github.com/relaydb/qcore/wire"
)

func TestPrepareMissThenHit(t *testing.T) {
	c := New()
	user := wire.OID{Volid: 1, Pageid: 2, Slotid: 3}

	id1, err := c.Prepare("select 1", user, []byte("plan-bytes"))
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if id1 == (PlanID{}) {
		t.Fatal("expected a non-zero PlanID on a miss+install")
	}
	if c.Misses() != 1 || c.Hits() != 0 {
		t.Fatalf("misses=%d hits=%d, want 1/0", c.Misses(), c.Hits())
	}

	id2, err := c.Prepare("select 1", user, nil)
	if err != nil {
		t.Fatalf("Prepare (hit): %v", err)
	}
	if id2 != id1 {
		t.Fatalf("hit returned a different PlanID: %v != %v", id2, id1)
	}
	if c.Hits() != 1 {
		t.Fatalf("hits=%d, want 1", c.Hits())
	}
}

func TestPrepareMissWithNilStreamStaysUncached(t *testing.T) {
	c := New()
	user := wire.OID{Volid: 1}

	id, err := c.Prepare("select 1", user, nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if id != (PlanID{}) {
		t.Fatalf("expected the zero PlanID, got %v", id)
	}
	if _, err := c.Lookup(id); err != ErrInvalidXASLNode {
		t.Fatalf("Lookup(zero id) = %v, want ErrInvalidXASLNode", err)
	}

	// A subsequent Prepare for the same key is still a miss: nothing
	// was installed.
	if _, err := c.Prepare("select 1", user, []byte("now it compiles")); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if c.Misses() != 2 {
		t.Fatalf("misses=%d, want 2", c.Misses())
	}
}

func TestDifferentUsersDoNotShareAnEntry(t *testing.T) {
	c := New()
	alice := wire.OID{Volid: 1, Pageid: 1}
	bob := wire.OID{Volid: 1, Pageid: 2}

	idA, _ := c.Prepare("select * from t", alice, []byte("plan-a"))
	idB, _ := c.Prepare("select * from t", bob, []byte("plan-b"))
	if idA == idB {
		t.Fatal("plans for different users must not share a PlanID")
	}
}

func TestLookupAndDrop(t *testing.T) {
	c := New()
	user := wire.OID{Volid: 9}

	id, err := c.Prepare("select 1", user, []byte("stream"))
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	stream, err := c.Lookup(id)
	if err != nil || string(stream) != "stream" {
		t.Fatalf("Lookup = %q, %v", stream, err)
	}

	if err := c.Drop("select 1", user, id); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, err := c.Lookup(id); err != ErrInvalidXASLNode {
		t.Fatalf("Lookup after Drop = %v, want ErrInvalidXASLNode", err)
	}
	if err := c.Drop("select 1", user, id); err != ErrInvalidXASLNode {
		t.Fatalf("second Drop = %v, want ErrInvalidXASLNode", err)
	}
}

func TestDropAll(t *testing.T) {
	c := New()
	user := wire.OID{Volid: 1}
	id1, _ := c.Prepare("select 1", user, []byte("a"))
	id2, _ := c.Prepare("select 2", user, []byte("b"))

	c.DropAll()

	if _, err := c.Lookup(id1); err != ErrInvalidXASLNode {
		t.Error("id1 should be gone after DropAll")
	}
	if _, err := c.Lookup(id2); err != ErrInvalidXASLNode {
		t.Error("id2 should be gone after DropAll")
	}
}

// TestConcurrentPrepareCoalescesIntoOneCompile mirrors the teacher's
// single-flight guarantee: N goroutines racing to Prepare the same
// (text, user) must all observe the same PlanID, and the cache must
// record exactly one miss for the key (the rest resolve as hits once
// they unblock from the in-flight wait).
func TestConcurrentPrepareCoalescesIntoOneCompile(t *testing.T) {
	c := New()
	user := wire.OID{Volid: 5, Pageid: 5}

	const n = 32
	var wg sync.WaitGroup
	ids := make([]PlanID, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			id, err := c.Prepare("select * from big_table", user, []byte("compiled-plan"))
			if err != nil {
				t.Errorf("Prepare: %v", err)
				return
			}
			ids[i] = id
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("goroutine %d got a different PlanID: %v != %v", i, ids[i], ids[0])
		}
	}
	if c.Misses() != 1 {
		t.Fatalf("misses = %d, want exactly 1", c.Misses())
	}
}
