// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package tempfile

import (
	"sync"

	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/wire"
)

// slot is one membuf entry.
type slot struct {
	data  []byte
	dirty bool
}

// TempFile is the two-level tuple-page store backing one query's
// result list file (spec.md §3 "Temp file", §4.8). One TempFile is
// owned by exactly one query entry; ownership and release are the
// caller's (package querymgr's) responsibility.
type TempFile struct {
	Vfid wire.VFID

	mu   sync.Mutex
	cond sync.Cond

	membuf []slot // fixed-size array; membuf[i] valid iff i < last
	last   int    // membuf_last

	spill SpillStore

	producing   bool // false once the producer calls Done
	interrupted bool

	getCalls, freeCalls int64
}

// ErrPageNotFound is returned by GetPage once the producer has
// finished (Done was called) and the requested page was never
// written.
var ErrPageNotFound = direrr.New(direrr.GenericError, "tempfile: page not found")

// New creates a TempFile with a membuf of the given page capacity,
// spilling overflow pages through store. The temp file starts in the
// producing state.
func New(vfid wire.VFID, membufCapacity int, store SpillStore) *TempFile {
	t := &TempFile{
		Vfid:      vfid,
		membuf:    make([]slot, membufCapacity),
		spill:     store,
		producing: true,
	}
	t.cond.L = &t.mu
	return t
}

// Put is the producer's entry point: it writes the next page, either
// into the next membuf slot or, once membuf is full, into the spill
// store, then wakes a blocked consumer (spec.md §4.8 "bumps
// membuf_last and signals the condition variable").
func (t *TempFile) Put(data []byte) (PageID, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := PageID(t.last)
	if t.last < len(t.membuf) {
		cp := make([]byte, len(data))
		copy(cp, data)
		t.membuf[t.last] = slot{data: cp}
		t.last++
		t.cond.Broadcast()
		return id, nil
	}
	if err := t.spill.WritePage(t.Vfid, id, data); err != nil {
		return 0, err
	}
	t.last++
	t.cond.Broadcast()
	return id, nil
}

// Done marks the temp file as fully produced; every waiting or future
// GetPage for a page beyond the last one written now fails with
// ErrPageNotFound instead of blocking forever.
func (t *TempFile) Done() {
	t.mu.Lock()
	t.producing = false
	t.cond.Broadcast()
	t.mu.Unlock()
}

// Interrupt wakes any consumer currently blocked in GetPage so it can
// observe the interrupt and fail with direrr.Interrupted (spec.md §5
// Cancellation: "interrupt(query) sets the flag, signals the condvar,
// and returns").
func (t *TempFile) Interrupt() {
	t.mu.Lock()
	t.interrupted = true
	t.cond.Broadcast()
	t.mu.Unlock()
}

// Interrupted reports whether Interrupt has been called, letting a
// cooperative producer poll it at page boundaries and stop early
// (spec.md §5 Cancellation: "Producers are required to poll the flag
// at page boundaries").
func (t *TempFile) Interrupted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.interrupted
}

// GetPage fetches page id, pinning it (spec.md §4.8: membuf hit, spill
// hit, or block on the condvar while the query is still producing).
// Every successful GetPage must be paired with exactly one FreePage.
func (t *TempFile) GetPage(id PageID) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		if t.interrupted {
			return nil, direrr.New(direrr.Interrupted, "tempfile: interrupted waiting for a page")
		}
		if int(id) < t.last && int(id) < len(t.membuf) {
			t.getCalls++
			return t.membuf[id].data, nil
		}
		if int(id) < t.last {
			data, ok, err := t.spill.ReadPage(t.Vfid, id)
			if err != nil {
				return nil, err
			}
			if ok {
				t.getCalls++
				return data, nil
			}
		}
		if !t.producing {
			return nil, ErrPageNotFound
		}
		t.cond.Wait()
	}
}

// FreePage releases the pin GetPage took on id.
func (t *TempFile) FreePage(id PageID) {
	t.mu.Lock()
	t.freeCalls++
	t.mu.Unlock()
}

// SetDirty sets the dirty flag of a page held in membuf. For a page
// that has spilled to the SpillStore it does nothing, and no code in
// this package reads the flag back.
func (t *TempFile) SetDirty(id PageID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(id) < len(t.membuf) {
		t.membuf[id].dirty = true
	}
}

// Balanced reports whether every GetPage call has been matched by a
// FreePage call (spec.md §8 testable property 3); callers should check
// this before releasing a TempFile.
func (t *TempFile) Balanced() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getCalls == t.freeCalls
}
