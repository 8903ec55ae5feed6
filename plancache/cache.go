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

package plancache

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/relaydb/qcore/wire"
)

// PlanID is an opaque, content-addressed identifier for a cached XASL
// plan. Two Prepare calls with the same (sqlText, userOID) and the same
// plan bytes always produce the same PlanID.
type PlanID [32]byte

func (id PlanID) String() string { return fmt.Sprintf("%x", id[:]) }

// ErrInvalidXASLNode is returned by Lookup and Drop when the caller's
// PlanID does not name a currently cached plan (it was never installed,
// or was already dropped).
var ErrInvalidXASLNode = errors.New("plancache: invalid XASL node")

// Logger is the minimal logging collaborator this package takes instead
// of calling log.Printf directly.
type Logger interface {
	Printf(f string, args ...interface{})
}

type entry struct {
	id     PlanID
	stream []byte
}

// Cache caches compiled plan byte streams keyed by (sqlText, userOID).
type Cache struct {
	Logger Logger

	lock sync.Mutex
	cond sync.Cond

	// single-flight: a key present here is being compiled by some
	// goroutine right now; every other caller for that key blocks on
	// cond until the compiling goroutine calls unlockID/unlockIDMapped.
	inflight map[string]struct{}

	byKey map[string]*entry
	byID  map[PlanID]*entry

	hits, misses int64
}

// New returns an empty Cache.
func New() *Cache {
	c := &Cache{
		inflight: make(map[string]struct{}),
		byKey:    make(map[string]*entry),
		byID:     make(map[PlanID]*entry),
	}
	c.cond.L = &c.lock
	return c
}

func (c *Cache) errorf(f string, args ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(f, args...)
	}
}

// Hits returns the number of Prepare calls that found an existing plan.
func (c *Cache) Hits() int64 { return atomic.LoadInt64(&c.hits) }

// Misses returns the number of Prepare calls that did not find an
// existing plan (whether or not they went on to install a new one).
func (c *Cache) Misses() int64 { return atomic.LoadInt64(&c.misses) }

func cacheKey(text string, user wire.OID) string {
	return fmt.Sprintf("%s\x00%d.%d.%d", text, user.Volid, user.Pageid, user.Slotid)
}

func planID(key string, stream []byte) PlanID {
	h := sha256.New()
	h.Write([]byte(key))
	h.Write(stream)
	var id PlanID
	copy(id[:], h.Sum(nil))
	return id
}

// acquire key exclusively; if an entry already exists for it, return
// that entry without ever marking the key in-flight.
func (c *Cache) lockID(key string) *entry {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, ok := c.inflight[key]; ok; _, ok = c.inflight[key] {
		c.cond.Wait()
	}
	if e := c.byKey[key]; e != nil {
		return e
	}
	c.inflight[key] = struct{}{}
	return nil
}

// drop the exclusive lock on key without installing an entry (the
// caller decided not to cache anything for it).
func (c *Cache) unlockID(key string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	before := len(c.inflight)
	delete(c.inflight, key)
	if after := len(c.inflight); after != before-1 {
		panic("plancache: double unlock of key " + key)
	}
	c.cond.Broadcast()
}

// drop the exclusive lock on key and install e as its entry.
func (c *Cache) unlockIDMapped(key string, e *entry) {
	c.lock.Lock()
	defer c.lock.Unlock()
	before := len(c.inflight)
	delete(c.inflight, key)
	if after := len(c.inflight); after != before-1 {
		panic("plancache: duplicate unlockID in unlockIDMapped " + key)
	}
	c.byKey[key] = e
	c.byID[e.id] = e
	c.cond.Broadcast()
}

// Prepare looks up the cached plan for (text, user). On a hit it
// returns the existing PlanID without touching stream. On a miss, a
// non-nil stream is installed as the new entry for this key and its
// PlanID is returned; a nil stream leaves the key uncached and returns
// the zero PlanID, letting the caller decide not to cache a plan it
// failed to compile.
func (c *Cache) Prepare(text string, user wire.OID, stream []byte) (PlanID, error) {
	key := cacheKey(text, user)
	if e := c.lockID(key); e != nil {
		atomic.AddInt64(&c.hits, 1)
		return e.id, nil
	}
	atomic.AddInt64(&c.misses, 1)
	if stream == nil {
		c.unlockID(key)
		return PlanID{}, nil
	}
	e := &entry{
		id:     planID(key, stream),
		stream: append([]byte(nil), stream...),
	}
	c.unlockIDMapped(key, e)
	return e.id, nil
}

// Lookup returns the plan byte stream installed under id, or
// ErrInvalidXASLNode if id does not name a currently cached plan.
func (c *Cache) Lookup(id PlanID) ([]byte, error) {
	c.lock.Lock()
	e := c.byID[id]
	c.lock.Unlock()
	if e == nil {
		return nil, ErrInvalidXASLNode
	}
	return e.stream, nil
}

// Drop removes the cached plan for (text, user) if its current PlanID
// matches id, and reports ErrInvalidXASLNode otherwise (already
// dropped, or id belongs to a stale/different compile of the same
// text+user).
func (c *Cache) Drop(text string, user wire.OID, id PlanID) error {
	key := cacheKey(text, user)
	c.lock.Lock()
	defer c.lock.Unlock()
	e := c.byKey[key]
	if e == nil || e.id != id {
		return ErrInvalidXASLNode
	}
	delete(c.byKey, key)
	delete(c.byID, id)
	return nil
}

// DropAll removes every cached plan. It does not affect compiles
// currently in flight; those will install their entry normally and it
// will simply be the sole survivor.
func (c *Cache) DropAll() {
	c.lock.Lock()
	defer c.lock.Unlock()
	n := len(c.byKey)
	c.byKey = make(map[string]*entry)
	c.byID = make(map[PlanID]*entry)
	c.errorf("plancache: DropAll evicted %d entries", n)
}
