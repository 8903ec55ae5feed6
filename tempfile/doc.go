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

// Package tempfile implements the per-query two-level tuple-page
// store: a fixed-size in-memory membuf that a single producer fills
// and a single consumer drains, spilling overflow pages to a
// file-backed store once membuf is full.
//
// The mutex+condvar single-producer/single-consumer shape is the same
// "wait for the installing goroutine to finish" idiom package
// plancache adapts from the teacher's tenant/dcache.Cache, generalized
// here from a single cache slot to a bounded array of pages plus an
// interrupt signal that wakes a blocked consumer early.
package tempfile
