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

// Package dispatch implements the static request-code-to-handler table
// that drives one netsvc.Conn: each handler unpacks its arguments,
// calls into the session/query-manager collaborators it was built
// with, and either replies or calls ReturnErrorToClient. Handshake,
// commit/abort, large-object and backup/dump handlers are provided
// here directly since their contracts are fully specified independent
// of the session and query-manager internals; everything else is
// wired in by the caller (typically cmd/qserverd) as a Handler value.
//
// Grounded on the teacher's cmd/snellerd server: a single dispatch
// table built once at startup (there, an *http.ServeMux keyed by
// path; here, a map keyed by request code) and a per-connection serve
// loop that runs one handler to completion before reading the next
// request, generalized from HTTP's one-shot request/response model to
// this protocol's framed, potentially-pushing one.
package dispatch
