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

// Command qserverd is the daemon that wires package dispatch's request
// table to package session's statement book and package querymgr's
// query registry over package netsvc's framed connection protocol,
// the way cmd/snellerd wires its own handler table to package tenant
// over HTTP. Real SQL parsing, planning, execution, and storage are
// external collaborators by design (see backend.go); this command's
// job is marshaling wire payloads into and out of those packages'
// APIs and running the accept loop.
package main
