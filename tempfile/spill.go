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
	"fmt"
	"sync"

	"github.com/relaydb/qcore/wire"
)

// PageID addresses one tuple page within a TempFile, whether it is
// currently held in membuf or has spilled to disk.
type PageID int64

// SpillStore is the file-system-backed half of a temp file (spec.md
// §4.8's "file-system-backed temp file by VFID"). Disk page layout is
// an external collaborator (spec.md §1 non-goals); TempFile only needs
// to write and read back whole pages keyed by (VFID, PageID).
type SpillStore interface {
	WritePage(vfid wire.VFID, id PageID, data []byte) error
	ReadPage(vfid wire.VFID, id PageID) ([]byte, bool, error)
}

// MemSpillStore is an in-process SpillStore, standing in for the real
// file-backed store in tests and in configurations too small to need
// one. Standard library only (sync.Mutex over a map) -- justified:
// this is a test/fallback double for the storage layer, not a
// production component any pack library targets.
type MemSpillStore struct {
	mu    sync.Mutex
	pages map[string][]byte
}

func NewMemSpillStore() *MemSpillStore {
	return &MemSpillStore{pages: make(map[string][]byte)}
}

func spillKey(vfid wire.VFID, id PageID) string {
	return fmt.Sprintf("%d.%d/%d", vfid.Volid, vfid.Fileid, id)
}

func (m *MemSpillStore) WritePage(vfid wire.VFID, id PageID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.pages[spillKey(vfid, id)] = cp
	return nil
}

func (m *MemSpillStore) ReadPage(vfid wire.VFID, id PageID) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.pages[spillKey(vfid, id)]
	return data, ok, nil
}
