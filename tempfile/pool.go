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

// Pool allocates and reclaims the TempFiles backing a query manager's
// list files (spec.md §2 C8 "Allocate/reclaim tuple pages backing
// list files").
type Pool struct {
	MembufCapacity int
	Store          SpillStore

	mu       sync.Mutex
	nextFile int32
	live     map[wire.VFID]*TempFile
}

// NewPool returns a Pool whose temp files have membufCapacity pages
// in memory before spilling through store.
func NewPool(membufCapacity int, store SpillStore) *Pool {
	return &Pool{
		MembufCapacity: membufCapacity,
		Store:          store,
		live:           make(map[wire.VFID]*TempFile),
	}
}

// Alloc creates a new TempFile owned by the caller and tracks it for
// the lifetime of the pool.
func (p *Pool) Alloc() *TempFile {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextFile++
	vfid := wire.VFID{Fileid: p.nextFile, Volid: 0}
	tf := New(vfid, p.MembufCapacity, p.Store)
	p.live[vfid] = tf
	return tf
}

// Free reclaims tf. Freeing a temp file before every GetPage call has
// been matched by a FreePage call is the undefined behavior spec.md
// §3 calls out; Free refuses it instead, returning a GenericError so
// the caller's bug is observable rather than silently corrupting
// state.
func (p *Pool) Free(tf *TempFile) error {
	if !tf.Balanced() {
		return direrr.New(direrr.GenericError, "tempfile: freed with unbalanced get/free page calls")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.live, tf.Vfid)
	return nil
}
