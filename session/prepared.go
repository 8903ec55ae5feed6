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

package session

import (
	"strings"

	"github.com/relaydb/qcore/direrr"
	"github.com/relaydb/qcore/expr"
)

// Prepare creates (or silently replaces) the named sub-session that
// owns a single compiled statement (spec.md §4.4 "PREPARE name AS
// 'sql'"). The lookup name is case-insensitive.
func (s *Session) Prepare(name, sql string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	stmt, err := s.compile(sql)
	if err != nil {
		return err
	}
	key := strings.ToLower(name)
	if old, ok := s.prepared[key]; ok {
		s.releaseStatement(old) // silent replace
	}
	s.prepared[key] = stmt
	delete(s.snapshots, key)
	return nil
}

// ExecutePrepared runs the named prepared statement with positional
// host-variable values (spec.md §4.4 "EXECUTE name USING (...)"). The
// sub-session recompiles when the plan cache is disabled for this
// session or the cached plan has been invalidated; the argument count
// must equal the statement's host-variable count.
func (s *Session) ExecutePrepared(name string, args []*expr.Literal) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	key := strings.ToLower(name)
	stmt, ok := s.prepared[key]
	if !ok {
		return 0, direrr.New(direrr.PreparedNameNotFound, "no such prepared statement: "+name)
	}
	if len(args) != len(stmt.HostVars) {
		return 0, direrr.New(direrr.IncorrectHostvarCount, "host variable count mismatch")
	}

	if !s.planCacheEnabled() {
		recompiled, err := s.compile(stmt.Text)
		if err != nil {
			return 0, err
		}
		s.prepared[key] = recompiled
		stmt = recompiled
	}

	rows, err := s.runWithRetry(stmt, args)
	if err != nil {
		return 0, err
	}
	stmt.Stage = StageExecuted
	stmt.RowCount = rows

	// snapshot metadata so it survives DEALLOCATE (spec.md §4.4).
	s.snapshots[key] = preparedMeta{
		kind:        stmt.Kind,
		hostVars:    stmt.HostVars,
		columnTypes: stmt.ColumnTypes,
	}
	return rows, nil
}

// Deallocate removes the named prepared statement, releasing its plan
// ID but keeping its last-executed metadata snapshot answerable
// (spec.md §4.4 "DEALLOCATE name").
func (s *Session) Deallocate(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	key := strings.ToLower(name)
	stmt, ok := s.prepared[key]
	if !ok {
		return direrr.New(direrr.PreparedNameNotFound, "no such prepared statement: "+name)
	}
	s.releaseStatement(stmt)
	delete(s.prepared, key)
	return nil
}

// PreparedStatementType reports the Kind of the named prepared
// statement, consulting the deallocated-statement snapshot if the
// statement has already been removed by Deallocate.
func (s *Session) PreparedStatementType(name string) (Kind, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(name)
	if stmt, ok := s.prepared[key]; ok {
		return stmt.Kind, nil
	}
	if meta, ok := s.snapshots[key]; ok {
		return meta.kind, nil
	}
	return KindOther, direrr.New(direrr.PreparedNameNotFound, "no such prepared statement: "+name)
}

// PreparedColumnTypes is ColumnTypes for a named prepared statement,
// same deallocated-snapshot fallback as PreparedStatementType.
func (s *Session) PreparedColumnTypes(name string) ([]expr.Domain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(name)
	if stmt, ok := s.prepared[key]; ok {
		return stmt.ColumnTypes, nil
	}
	if meta, ok := s.snapshots[key]; ok {
		return meta.columnTypes, nil
	}
	return nil, direrr.New(direrr.PreparedNameNotFound, "no such prepared statement: "+name)
}

// PreparedInputMarkers is InputMarkers for a named prepared statement,
// same deallocated-snapshot fallback.
func (s *Session) PreparedInputMarkers(name string) ([]expr.HostVarDomain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(name)
	if stmt, ok := s.prepared[key]; ok {
		return stmt.HostVars, nil
	}
	if meta, ok := s.snapshots[key]; ok {
		return meta.hostVars, nil
	}
	return nil, direrr.New(direrr.PreparedNameNotFound, "no such prepared statement: "+name)
}
