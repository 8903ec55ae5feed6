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

// Package session implements the per-client statement book: an ordered
// array of compiled statements plus a named prepared-statement store,
// sitting between the dispatcher (package dispatch) and the type
// checker/plan cache (packages expr and plancache).
//
// Parsing SQL text into an expr.Node and turning a checked tree into an
// executable plan byte stream are both out of scope here (grammar
// construction and plan generation are external collaborators); Session
// depends on the small Parser/Planner/Runner interfaces instead, the
// same interface-segregation shape package dispatch uses for BlobStore
// and DumpSource.
package session
