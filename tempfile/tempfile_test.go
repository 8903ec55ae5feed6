package tempfile

import (
	"testing"
	"time"

	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/wire"
)

func TestPutThenGetFromMembuf(t *testing.T) {
	tf := New(wire.VFID{Fileid: 1}, 4, NewMemSpillStore())
	id, err := tf.Put([]byte("page-0"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := tf.GetPage(id)
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if string(data) != "page-0" {
		t.Fatalf("data = %q", data)
	}
	tf.FreePage(id)
	if !tf.Balanced() {
		t.Error("get/free calls should balance")
	}
}

func TestOverflowSpillsToStore(t *testing.T) {
	tf := New(wire.VFID{Fileid: 2}, 2, NewMemSpillStore())
	var ids []PageID
	for i := 0; i < 4; i++ {
		id, err := tf.Put([]byte{byte(i)})
		if err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	for i, id := range ids {
		data, err := tf.GetPage(id)
		if err != nil {
			t.Fatalf("GetPage %d: %v", i, err)
		}
		if len(data) != 1 || data[0] != byte(i) {
			t.Fatalf("page %d = %v, want [%d]", i, data, i)
		}
		tf.FreePage(id)
	}
}

func TestConsumerBlocksUntilProducerPuts(t *testing.T) {
	tf := New(wire.VFID{Fileid: 3}, 4, NewMemSpillStore())
	done := make(chan struct{})
	var got []byte
	go func() {
		data, err := tf.GetPage(0)
		if err == nil {
			got = data
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("GetPage returned before any page was produced")
	case <-time.After(20 * time.Millisecond):
	}

	if _, err := tf.Put([]byte("late")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("GetPage never woke after Put")
	}
	if string(got) != "late" {
		t.Fatalf("got = %q", got)
	}
}

func TestInterruptWakesBlockedConsumer(t *testing.T) {
	tf := New(wire.VFID{Fileid: 4}, 4, NewMemSpillStore())
	errc := make(chan error, 1)
	go func() {
		_, err := tf.GetPage(0)
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	tf.Interrupt()

	select {
	case err := <-errc:
		if direrr.CodeOf(err) != direrr.Interrupted {
			t.Fatalf("err = %v, want Interrupted", err)
		}
	case <-time.After(time.Second):
		t.Fatal("GetPage never woke after Interrupt")
	}
}

func TestDoneFailsPendingWaiterWithPageNotFound(t *testing.T) {
	tf := New(wire.VFID{Fileid: 5}, 4, NewMemSpillStore())
	errc := make(chan error, 1)
	go func() {
		_, err := tf.GetPage(0)
		errc <- err
	}()

	time.Sleep(20 * time.Millisecond)
	tf.Done()

	select {
	case err := <-errc:
		if err != ErrPageNotFound {
			t.Fatalf("err = %v, want ErrPageNotFound", err)
		}
	case <-time.After(time.Second):
		t.Fatal("GetPage never woke after Done")
	}
}

func TestPoolAllocAndFreeRequiresBalance(t *testing.T) {
	pool := NewPool(4, NewMemSpillStore())
	tf := pool.Alloc()
	id, _ := tf.Put([]byte("x"))
	if _, err := tf.GetPage(id); err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if err := pool.Free(tf); err == nil {
		t.Fatal("Free should refuse an unbalanced temp file")
	}
	tf.FreePage(id)
	if err := pool.Free(tf); err != nil {
		t.Fatalf("Free: %v", err)
	}
}
