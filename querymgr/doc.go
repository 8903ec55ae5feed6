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

// Package querymgr is the per-transaction query registry: it executes
// compiled plans from package plancache, streams their results through
// package tempfile list files, and owns the query entry lifecycle
// (sync/async execution, interrupt/cancel, deadlock-triggered
// unilateral abort). Actually producing tuple pages from a plan is an
// external collaborator (the Executor interface below); this package
// only owns the bookkeeping around that production.
package querymgr
