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

// Package plancache caches compiled XASL query plans keyed by
// (sqlText, userOID), so that concurrent PREPAREs of the same statement
// by the same user coalesce into a single cache entry instead of racing
// to install it twice. Prepare is handed an already-compiled plan, so
// only the install is coalesced; each caller compiles its own plan
// before calling Prepare.
//
// Cache reuses the teacher's single-flight lockID/unlockID/unlockIDMapped
// idiom: a caller that misses the cache holds an exclusive lock on the
// key while it installs the plan, and any other caller that asks for the
// same key blocks on a condition variable until the first caller
// installs (or abandons) the entry, rather than taking a global lock for
// the whole cache.
package plancache
